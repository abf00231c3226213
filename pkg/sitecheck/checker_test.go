package sitecheck

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fastConfig() *Config {
	config := DefaultConfig()
	config.Workers = 4
	config.MaxAttempts = 1
	config.RetryDelay = 0
	config.Timeout = 5 * time.Second
	return config
}

func goodHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":1,"msg":"ok","list":[{"vod_id":101,"vod_name":"test"}]}`))
	}
}

func badHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// writeSiteConfig writes a config file with one entry per server and
// returns its path.
func writeSiteConfig(t *testing.T, sites map[string]string) string {
	t.Helper()

	apiSite := make(map[string]map[string]string, len(sites))
	for name, url := range sites {
		apiSite[name] = map[string]string{
			"api":  url,
			"name": name + " source",
		}
	}
	doc := map[string]any{
		"cache_time": 7200,
		"api_site":   apiSite,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal config: %v", err)
	}

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func newTestChecker(t *testing.T, out *bytes.Buffer, in string, opts ...Option) *Checker {
	t.Helper()

	all := append([]Option{
		WithConfig(fastConfig()),
		WithConsole(out, strings.NewReader(in)),
	}, opts...)

	checker, err := New(all...)
	if err != nil {
		t.Fatalf("failed to create checker: %v", err)
	}
	return checker
}

func TestCheckerRun(t *testing.T) {
	good := httptest.NewServer(goodHandler())
	defer good.Close()
	bad := httptest.NewServer(badHandler())
	defer bad.Close()

	configPath := writeSiteConfig(t, map[string]string{
		"alpha": good.URL,
		"beta":  bad.URL,
	})

	var out bytes.Buffer
	checker := newTestChecker(t, &out, "")

	run, err := checker.Run(context.Background(), configPath)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(run.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(run.Results))
	}
	if len(run.Summary.Valid) != 1 {
		t.Errorf("expected 1 valid endpoint, got %d", len(run.Summary.Valid))
	}
	if len(run.Summary.Invalid) != 1 {
		t.Errorf("expected 1 invalid endpoint, got %d", len(run.Summary.Invalid))
	}
	if run.RunID == "" {
		t.Error("expected a run ID")
	}

	output := out.String()
	if !strings.Contains(output, "alpha") || !strings.Contains(output, "beta") {
		t.Errorf("report should name both endpoints:\n%s", output)
	}
	if !strings.Contains(output, "Summary: 1/2 endpoints valid") {
		t.Errorf("unexpected summary line:\n%s", output)
	}
}

func TestCheckerRunMissingConfig(t *testing.T) {
	var out bytes.Buffer
	checker := newTestChecker(t, &out, "")

	_, err := checker.Run(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestCheckerPrune(t *testing.T) {
	good := httptest.NewServer(goodHandler())
	defer good.Close()
	bad := httptest.NewServer(badHandler())
	defer bad.Close()

	configPath := writeSiteConfig(t, map[string]string{
		"alpha": good.URL,
		"beta":  bad.URL,
	})
	original, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}

	var out bytes.Buffer
	checker := newTestChecker(t, &out, "")

	run, err := checker.Run(context.Background(), configPath)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	removed, err := checker.Prune(run, configPath, true)
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed endpoint, got %d", removed)
	}

	// The backup must hold the original file verbatim.
	backup, err := os.ReadFile(configPath + ".backup")
	if err != nil {
		t.Fatalf("failed to read backup: %v", err)
	}
	if !bytes.Equal(backup, original) {
		t.Error("backup does not match the original file")
	}

	// The pruned config keeps the valid entry and drops the invalid one.
	pruned, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read pruned config: %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(pruned, &doc); err != nil {
		t.Fatalf("pruned config is not valid JSON: %v", err)
	}
	var sites map[string]json.RawMessage
	if err := json.Unmarshal(doc["api_site"], &sites); err != nil {
		t.Fatalf("pruned api_site is not valid JSON: %v", err)
	}
	if _, ok := sites["alpha"]; !ok {
		t.Error("valid endpoint was removed")
	}
	if _, ok := sites["beta"]; ok {
		t.Error("invalid endpoint survived the prune")
	}
	if _, ok := doc["cache_time"]; !ok {
		t.Error("unrelated top-level field was dropped")
	}
}

func TestCheckerPruneDeclined(t *testing.T) {
	bad := httptest.NewServer(badHandler())
	defer bad.Close()

	configPath := writeSiteConfig(t, map[string]string{"beta": bad.URL})
	original, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}

	var out bytes.Buffer
	checker := newTestChecker(t, &out, "n\n")

	run, err := checker.Run(context.Background(), configPath)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	removed, err := checker.Prune(run, configPath, false)
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected no removals after a declined prompt, got %d", removed)
	}

	after, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if !bytes.Equal(after, original) {
		t.Error("config changed after a declined prompt")
	}
	if _, err := os.Stat(configPath + ".backup"); !os.IsNotExist(err) {
		t.Error("backup created after a declined prompt")
	}
}

func TestCheckerPruneNothingToRemove(t *testing.T) {
	good := httptest.NewServer(goodHandler())
	defer good.Close()

	configPath := writeSiteConfig(t, map[string]string{"alpha": good.URL})

	var out bytes.Buffer
	checker := newTestChecker(t, &out, "")

	run, err := checker.Run(context.Background(), configPath)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	removed, err := checker.Prune(run, configPath, true)
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected no removals, got %d", removed)
	}
	if !strings.Contains(out.String(), "nothing to prune") {
		t.Errorf("expected the nothing-to-prune notice:\n%s", out.String())
	}
}

func TestCheckerJSONReport(t *testing.T) {
	good := httptest.NewServer(goodHandler())
	defer good.Close()

	configPath := writeSiteConfig(t, map[string]string{"alpha": good.URL})
	reportPath := filepath.Join(t.TempDir(), "report.json")

	var out bytes.Buffer
	checker := newTestChecker(t, &out, "", WithOutputFile(reportPath))

	run, err := checker.Run(context.Background(), configPath)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("failed to read JSON report: %v", err)
	}

	var doc struct {
		RunID      string `json:"run_id"`
		ConfigPath string `json:"config_path"`
		Total      int    `json:"total"`
		ValidCount int    `json:"valid_count"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if doc.RunID != run.RunID {
		t.Errorf("report run ID %q does not match %q", doc.RunID, run.RunID)
	}
	if doc.Total != 1 || doc.ValidCount != 1 {
		t.Errorf("unexpected report counts: total=%d valid=%d", doc.Total, doc.ValidCount)
	}
}

func TestCheckerHistory(t *testing.T) {
	good := httptest.NewServer(goodHandler())
	defer good.Close()

	configPath := writeSiteConfig(t, map[string]string{"alpha": good.URL})
	dbPath := filepath.Join(t.TempDir(), "history.db")

	var out bytes.Buffer
	checker := newTestChecker(t, &out, "", WithHistory(dbPath))

	if _, err := checker.Run(context.Background(), configPath); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("history database was not created: %v", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.Workers = 0

	if _, err := New(WithConfig(config)); err == nil {
		t.Fatal("expected an error for an invalid configuration")
	}
}
