// Package history persists probe runs so past verdicts can be compared
// across invocations.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cmliussss2024/sitecheck/internal/probe"
)

var (
	bucketRuns      = []byte("runs")
	bucketEndpoints = []byte("endpoints")
)

// Run is one recorded probing run.
type Run struct {
	ID         string         `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	ConfigPath string         `json:"config_path,omitempty"`
	Total      int            `json:"total"`
	ValidCount int            `json:"valid_count"`
	Results    []probe.Result `json:"results"`
}

// Store is a BoltDB-backed archive of probe runs.
type Store struct {
	db   *bolt.DB
	path string
}

// Open opens (or creates) the history database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRuns); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketEndpoints)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// SaveRun records a run plus each endpoint's latest result.
func (s *Store) SaveRun(run *Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		if runs == nil {
			return fmt.Errorf("runs bucket not found")
		}
		// Keyed by start time so a cursor walks runs chronologically.
		key := []byte(run.StartedAt.UTC().Format(time.RFC3339Nano) + "/" + run.ID)
		if err := runs.Put(key, data); err != nil {
			return err
		}

		endpoints := tx.Bucket(bucketEndpoints)
		if endpoints == nil {
			return fmt.Errorf("endpoints bucket not found")
		}
		for _, r := range run.Results {
			resultData, err := json.Marshal(r)
			if err != nil {
				return err
			}
			if err := endpoints.Put([]byte(r.Name), resultData); err != nil {
				return err
			}
		}
		return nil
	})
}

// Runs returns up to limit most recent runs, newest first.
// limit <= 0 returns all runs.
func (s *Store) Runs(limit int) ([]Run, error) {
	var runs []Run

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		if b == nil {
			return nil
		}

		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return fmt.Errorf("corrupt run record %s: %w", k, err)
			}
			runs = append(runs, run)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// LastResult returns the most recent recorded result for an endpoint,
// or nil when the endpoint has never been probed.
func (s *Store) LastResult(name string) (*probe.Result, error) {
	var result *probe.Result

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEndpoints)
		if b == nil {
			return nil
		}

		data := b.Get([]byte(name))
		if data == nil {
			return nil
		}

		result = &probe.Result{}
		return json.Unmarshal(data, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EndpointNames returns all endpoints with a recorded result, sorted.
func (s *Store) EndpointNames() ([]string, error) {
	var names []string

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEndpoints)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
