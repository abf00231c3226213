// Package report renders probe results for the operator and gates the
// destructive prune step behind an interactive confirmation.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cmliussss2024/sitecheck/internal/probe"
)

// Summary partitions a run's results into valid and invalid endpoints.
type Summary struct {
	Valid   []probe.Result
	Invalid []probe.Result
}

// Partition splits results by verdict, keeping each group's input order.
func Partition(results []probe.Result) Summary {
	var s Summary
	for _, r := range results {
		if r.OK {
			s.Valid = append(s.Valid, r)
		} else {
			s.Invalid = append(s.Invalid, r)
		}
	}
	return s
}

// Total returns the number of results in the summary.
func (s Summary) Total() int {
	return len(s.Valid) + len(s.Invalid)
}

// InvalidNames returns the identifiers of all failing endpoints.
func (s Summary) InvalidNames() []string {
	names := make([]string, 0, len(s.Invalid))
	for _, r := range s.Invalid {
		names = append(names, r.Name)
	}
	return names
}

// Console writes the human-readable run report.
type Console struct {
	w io.Writer
}

// NewConsole creates a console reporter writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Header prints the run header with the loaded endpoint count.
func (c *Console) Header(count int) {
	fmt.Fprintf(c.w, "Loaded %d endpoints for testing\n", count)
	fmt.Fprintln(c.w, strings.Repeat("=", 80))
}

// Results prints the partitioned per-endpoint lines and the final
// passed/total summary.
func (c *Console) Results(s Summary) {
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, "Test results:")
	fmt.Fprintln(c.w, strings.Repeat("=", 80))

	fmt.Fprintf(c.w, "\nValid endpoints (%d):\n", len(s.Valid))
	fmt.Fprintln(c.w, strings.Repeat("-", 40))
	for _, r := range s.Valid {
		fmt.Fprintf(c.w, "✓ %s: %s (status: %d)\n", r.Name, r.URL, r.StatusCode)
	}

	fmt.Fprintf(c.w, "\nInvalid endpoints (%d):\n", len(s.Invalid))
	fmt.Fprintln(c.w, strings.Repeat("-", 40))
	for _, r := range s.Invalid {
		if r.StatusCode == probe.StatusNoResponse {
			fmt.Fprintf(c.w, "✗ %s: %s (request failed: %s)\n", r.Name, r.URL, r.Message)
		} else {
			fmt.Fprintf(c.w, "✗ %s: %s (status: %d)\n", r.Name, r.URL, r.StatusCode)
		}
	}

	fmt.Fprintf(c.w, "\nSummary: %d/%d endpoints valid\n", len(s.Valid), s.Total())
}

// PruneResult prints the outcome of a confirmed prune.
func (c *Console) PruneResult(backupPath string, removed int) {
	fmt.Fprintf(c.w, "Original config backed up to: %s\n", backupPath)
	fmt.Fprintf(c.w, "Removed %d invalid endpoints from the config file\n", removed)
}

// Confirm asks a single yes/no question. Only an explicit "y" or "yes"
// (case-insensitive) is an affirmative; anything else, including empty
// input or a read error, declines.
func Confirm(r io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s (y/N): ", prompt)

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
