// Package sitecheck validates the remote API endpoints declared in an
// api_site configuration file and can prune the ones that fail.
package sitecheck

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/cmliussss2024/sitecheck/internal/history"
	"github.com/cmliussss2024/sitecheck/internal/logger"
	"github.com/cmliussss2024/sitecheck/internal/metrics"
	"github.com/cmliussss2024/sitecheck/internal/probe"
	"github.com/cmliussss2024/sitecheck/internal/ratelimit"
	"github.com/cmliussss2024/sitecheck/internal/report"
	"github.com/cmliussss2024/sitecheck/internal/scheduler"
	"github.com/cmliussss2024/sitecheck/internal/siteconfig"
)

// Checker orchestrates one validation pass over a configuration file.
type Checker struct {
	config  *Config
	log     *logger.Logger
	metrics *metrics.Collector
	stdout  io.Writer
	stdin   io.Reader
}

// RunResult is the outcome of a completed validation pass.
type RunResult struct {
	RunID   string
	Config  *siteconfig.Config
	Results []probe.Result
	Summary report.Summary
	Metrics *metrics.Snapshot
}

// New creates a Checker with the given options.
func New(opts ...Option) (*Checker, error) {
	c := &Checker{
		config:  DefaultConfig(),
		metrics: metrics.New(),
		stdout:  os.Stdout,
		stdin:   os.Stdin,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if c.log == nil {
		level := logger.InfoLevel
		if c.config.Debug {
			level = logger.DebugLevel
		} else if !c.config.Verbose {
			level = logger.WarnLevel
		}
		c.log = logger.New(logger.Config{
			Level:     level,
			Pretty:    true,
			Output:    os.Stderr,
			Component: "sitecheck",
		})
	}

	return c, nil
}

// Run loads the configuration file, probes every eligible endpoint, and
// prints the report. A missing or unreadable configuration file is fatal
// for the run and returned as an error before any probing starts.
func (c *Checker) Run(ctx context.Context, configPath string) (*RunResult, error) {
	cfg, err := siteconfig.Load(configPath)
	if err != nil {
		return nil, err
	}

	endpoints := cfg.Endpoints()
	c.log.Infof("loaded %d eligible endpoints from %s", len(endpoints), configPath)

	console := report.NewConsole(c.stdout)
	console.Header(len(endpoints))

	results := c.probeAll(ctx, endpoints)
	summary := report.Partition(results)
	console.Results(summary)

	runID := uuid.NewString()
	snap := c.metrics.Snapshot()
	c.log.StatsEvent(snap.Summary())

	run := &RunResult{
		RunID:   runID,
		Config:  cfg,
		Results: results,
		Summary: summary,
		Metrics: snap,
	}

	if c.config.Output.FilePath != "" {
		if err := c.writeJSONReport(run, configPath); err != nil {
			c.log.WithError(err).Error("failed to write JSON report")
		}
	}

	if c.config.History.Enabled {
		if err := c.recordHistory(run, configPath); err != nil {
			c.log.WithError(err).Error("failed to record run history")
		}
	}

	return run, nil
}

// probeAll fans the probes out through the scheduler.
func (c *Checker) probeAll(ctx context.Context, endpoints []siteconfig.Endpoint) []probe.Result {
	var limiter *ratelimit.Limiter
	if c.config.RateLimit.Enabled {
		limiter = ratelimit.NewLimiter(c.config.RateLimit.RequestsPerSecond, c.config.RateLimit.Burst)
		if c.config.RateLimit.HostDelay > 0 {
			limiter.SetHostDelay(c.config.RateLimit.HostDelay)
		}
	}

	probeConfig := probe.Config{
		MaxAttempts: c.config.MaxAttempts,
		RetryDelay:  c.config.RetryDelay,
		Client: probe.ClientConfig{
			Timeout:             c.config.Timeout,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 4,
			UserAgent:           c.config.UserAgent,
			Trust:               trustPolicy(c.config.Insecure),
		},
	}

	prober := probe.New(probeConfig, limiter, c.metrics, c.log.WithComponent("probe"))
	defer prober.Close()

	sched := scheduler.New(c.config.Workers, prober.Probe, c.metrics, c.log.WithComponent("scheduler"))
	return sched.Run(ctx, endpoints)
}

// Prune removes the run's invalid endpoints from the configuration file.
// Unless assumeYes is set, the operator is asked for confirmation first;
// any non-affirmative answer leaves the file untouched. The original file
// is backed up to a .backup sibling before it is overwritten.
func (c *Checker) Prune(run *RunResult, configPath string, assumeYes bool) (int, error) {
	invalid := run.Summary.InvalidNames()
	if len(invalid) == 0 {
		fmt.Fprintln(c.stdout, "\nAll endpoints are valid, nothing to prune")
		return 0, nil
	}

	if !assumeYes {
		prompt := fmt.Sprintf("\nRemove these %d invalid endpoints from %s?", len(invalid), configPath)
		if !report.Confirm(c.stdin, c.stdout, prompt) {
			fmt.Fprintln(c.stdout, "Prune declined, config left unchanged")
			return 0, nil
		}
	}

	backupPath, err := run.Config.Backup(configPath)
	if err != nil {
		return 0, err
	}

	removed := run.Config.Prune(invalid)
	if err := run.Config.Save(configPath); err != nil {
		return 0, fmt.Errorf("failed to save pruned config: %w", err)
	}

	report.NewConsole(c.stdout).PruneResult(backupPath, removed)
	c.log.Infof("pruned %d endpoints from %s", removed, configPath)
	return removed, nil
}

// writeJSONReport writes the machine-readable run report.
func (c *Checker) writeJSONReport(run *RunResult, configPath string) error {
	f, err := os.Create(c.config.Output.FilePath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := report.NewJSONWriter(f, c.config.Output.Pretty)
	return w.WriteReport(report.NewRunReport(run.RunID, configPath, run.Results, run.Metrics))
}

// recordHistory persists the run in the history database.
func (c *Checker) recordHistory(run *RunResult, configPath string) error {
	store, err := history.Open(c.config.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.SaveRun(&history.Run{
		ID:         run.RunID,
		StartedAt:  run.Metrics.Timestamp.Add(-run.Metrics.Uptime),
		ConfigPath: configPath,
		Total:      run.Summary.Total(),
		ValidCount: len(run.Summary.Valid),
		Results:    run.Results,
	})
}

// trustPolicy maps the insecure flag to the probe trust policy.
func trustPolicy(insecure bool) probe.TrustPolicy {
	if insecure {
		return probe.TrustAny
	}
	return probe.TrustSystem
}
