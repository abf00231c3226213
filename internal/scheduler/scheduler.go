// Package scheduler fans probes out across endpoints under a bounded
// worker limit and joins all results before returning.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/cmliussss2024/sitecheck/internal/logger"
	"github.com/cmliussss2024/sitecheck/internal/metrics"
	"github.com/cmliussss2024/sitecheck/internal/probe"
	"github.com/cmliussss2024/sitecheck/internal/siteconfig"
)

// ProbeFunc checks one endpoint and returns its result.
type ProbeFunc func(ctx context.Context, name, url string) probe.Result

// Scheduler runs probes concurrently with bounded parallelism.
type Scheduler struct {
	workers int
	probeFn ProbeFunc
	metrics *metrics.Collector
	log     *logger.Logger
}

// New creates a Scheduler. workers below 1 is clamped to 1.
func New(workers int, probeFn ProbeFunc, collector *metrics.Collector, log *logger.Logger) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	if collector == nil {
		collector = metrics.Global()
	}
	if log == nil {
		log = logger.Global().WithComponent("scheduler")
	}
	return &Scheduler{
		workers: workers,
		probeFn: probeFn,
		metrics: collector,
		log:     log,
	}
}

// Run probes every endpoint and blocks until all results are in. The
// returned slice has exactly one result per endpoint, in input order.
// Each result lands in its own pre-allocated slot, so workers never
// contend over a shared collection.
func (s *Scheduler) Run(ctx context.Context, endpoints []siteconfig.Endpoint) []probe.Result {
	results := make([]probe.Result, len(endpoints))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i, ep := range endpoints {
		wg.Add(1)
		go func(idx int, ep siteconfig.Endpoint) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			s.metrics.WorkerStarted()
			defer s.metrics.WorkerFinished()

			results[idx] = s.runOne(ctx, ep)
		}(i, ep)
	}

	wg.Wait()
	return results
}

// runOne executes a single probe, converting a panic into a failed result
// so one endpoint can never abort the batch.
func (s *Scheduler) runOne(ctx context.Context, ep siteconfig.Endpoint) (result probe.Result) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithEndpoint(ep.Name).Errorf("probe panicked: %v", r)
			result = probe.Result{
				Name:       ep.Name,
				URL:        ep.URL,
				OK:         false,
				StatusCode: probe.StatusNoResponse,
				Message:    fmt.Sprintf("internal probe failure: %v", r),
			}
			s.metrics.RecordProbe(false)
		}
	}()

	result = s.probeFn(ctx, ep.Name, ep.URL)
	s.metrics.RecordProbe(result.OK)
	s.log.ProbeEvent(result.Name, result.URL, result.OK, result.StatusCode, result.Attempts)
	return result
}
