// Package siteconfig reads and rewrites the api_site configuration document.
//
// Only the api_site mapping and each entry's "api" field are interpreted.
// Everything else in the document is held as raw JSON and written back
// verbatim, so pruning never disturbs fields this tool does not own.
package siteconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Endpoint is one named remote API entry eligible for probing.
type Endpoint struct {
	Name string
	URL  string
}

// Config is a loaded api_site configuration document.
type Config struct {
	path  string
	raw   []byte
	doc   map[string]json.RawMessage
	sites map[string]json.RawMessage
}

// entry is the only part of a site object this tool interprets.
type entry struct {
	API string `json:"api"`
}

// Load reads and parses the configuration file at path.
// A missing file is an error; the caller treats it as fatal for the run.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.path = path
	return cfg, nil
}

// Parse parses a configuration document from raw bytes.
func Parse(data []byte) (*Config, error) {
	doc := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}

	sites := make(map[string]json.RawMessage)
	if rawSites, ok := doc["api_site"]; ok {
		if err := json.Unmarshal(rawSites, &sites); err != nil {
			return nil, fmt.Errorf("api_site is not an object: %w", err)
		}
	}

	return &Config{
		raw:   data,
		doc:   doc,
		sites: sites,
	}, nil
}

// Path returns the file path the config was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// Len returns the number of api_site entries, eligible or not.
func (c *Config) Len() int {
	return len(c.sites)
}

// Endpoints returns the eligible endpoints (entries with an "api" field),
// sorted by name for stable reporting order.
func (c *Config) Endpoints() []Endpoint {
	endpoints := make([]Endpoint, 0, len(c.sites))
	for name, rawEntry := range c.sites {
		var e entry
		if err := json.Unmarshal(rawEntry, &e); err != nil {
			continue
		}
		if e.API == "" {
			continue
		}
		endpoints = append(endpoints, Endpoint{Name: name, URL: e.API})
	}

	sort.Slice(endpoints, func(i, j int) bool {
		return endpoints[i].Name < endpoints[j].Name
	})
	return endpoints
}

// Entry returns the raw JSON of one api_site entry.
func (c *Config) Entry(name string) (json.RawMessage, bool) {
	raw, ok := c.sites[name]
	return raw, ok
}

// Prune removes the named identifiers from the api_site mapping and
// returns the number of entries actually removed.
func (c *Config) Prune(names []string) int {
	removed := 0
	for _, name := range names {
		if _, ok := c.sites[name]; ok {
			delete(c.sites, name)
			removed++
		}
	}
	return removed
}

// Marshal serializes the document with the current api_site mapping.
// Untouched entries and top-level keys keep their original value bytes.
func (c *Config) Marshal() ([]byte, error) {
	rawSites, err := json.Marshal(c.sites)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal api_site: %w", err)
	}

	out := make(map[string]json.RawMessage, len(c.doc))
	for k, v := range c.doc {
		out[k] = v
	}
	if _, ok := c.doc["api_site"]; ok || len(c.sites) > 0 {
		out["api_site"] = rawSites
	}

	return json.MarshalIndent(out, "", "  ")
}

// Save writes the current document to path.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Backup writes the original, unmodified document to a sibling .backup
// path and returns that path. It must run before Save overwrites the
// original file.
func (c *Config) Backup(path string) (string, error) {
	backupPath := path + ".backup"
	if err := os.WriteFile(backupPath, c.raw, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return backupPath, nil
}
