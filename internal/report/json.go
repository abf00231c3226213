package report

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/cmliussss2024/sitecheck/internal/metrics"
	"github.com/cmliussss2024/sitecheck/internal/probe"
)

// RunReport is the machine-readable form of one complete run.
type RunReport struct {
	RunID       string             `json:"run_id,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
	ConfigPath  string             `json:"config_path,omitempty"`
	Total       int                `json:"total"`
	ValidCount  int                `json:"valid_count"`
	Results     []probe.Result     `json:"results"`
	Metrics     *metrics.Snapshot  `json:"metrics,omitempty"`
}

// NewRunReport builds a RunReport from raw results.
func NewRunReport(runID, configPath string, results []probe.Result, snap *metrics.Snapshot) *RunReport {
	valid := 0
	for _, r := range results {
		if r.OK {
			valid++
		}
	}
	return &RunReport{
		RunID:       runID,
		GeneratedAt: time.Now(),
		ConfigPath:  configPath,
		Total:       len(results),
		ValidCount:  valid,
		Results:     results,
		Metrics:     snap,
	}
}

// JSONWriter writes run reports as JSON.
type JSONWriter struct {
	mu     sync.Mutex
	writer io.Writer
	pretty bool
}

// NewJSONWriter creates a new JSON report writer.
func NewJSONWriter(w io.Writer, pretty bool) *JSONWriter {
	return &JSONWriter{writer: w, pretty: pretty}
}

// WriteReport writes one run report followed by a newline.
func (j *JSONWriter) WriteReport(report *RunReport) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var data []byte
	var err error

	if j.pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return err
	}

	if _, err := j.writer.Write(data); err != nil {
		return err
	}
	_, err = j.writer.Write([]byte("\n"))
	return err
}
