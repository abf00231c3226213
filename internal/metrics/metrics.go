// Package metrics provides metrics collection for the endpoint checker.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector collects and aggregates metrics for a probing run.
type Collector struct {
	// Counters
	requestsTotal atomic.Int64
	errorsTotal   atomic.Int64
	probesTotal   atomic.Int64
	probesValid   atomic.Int64
	probesInvalid atomic.Int64
	retriesTotal  atomic.Int64
	bytesTotal    atomic.Int64

	// Response time tracking
	responseTimesSum atomic.Int64
	responseTimesNum atomic.Int64

	// Gauges
	activeWorkers atomic.Int64

	// Error breakdown
	errorCounts map[string]*atomic.Int64
	errorMu     sync.RWMutex

	// Status code breakdown
	statusCodes map[int]*atomic.Int64
	statusMu    sync.RWMutex

	startTime time.Time
}

// New creates a new metrics collector.
func New() *Collector {
	return &Collector{
		errorCounts: make(map[string]*atomic.Int64),
		statusCodes: make(map[int]*atomic.Int64),
		startTime:   time.Now(),
	}
}

// RecordRequest records an HTTP request.
func (c *Collector) RecordRequest() {
	c.requestsTotal.Add(1)
}

// RecordError records an error by category.
func (c *Collector) RecordError(errorType string) {
	c.errorsTotal.Add(1)

	c.errorMu.Lock()
	if c.errorCounts[errorType] == nil {
		c.errorCounts[errorType] = &atomic.Int64{}
	}
	c.errorCounts[errorType].Add(1)
	c.errorMu.Unlock()
}

// RecordResponseTime records a response time.
func (c *Collector) RecordResponseTime(d time.Duration) {
	c.responseTimesSum.Add(d.Milliseconds())
	c.responseTimesNum.Add(1)
}

// RecordStatusCode records an HTTP status code.
func (c *Collector) RecordStatusCode(code int) {
	c.statusMu.Lock()
	if c.statusCodes[code] == nil {
		c.statusCodes[code] = &atomic.Int64{}
	}
	c.statusCodes[code].Add(1)
	c.statusMu.Unlock()
}

// RecordProbe records a completed endpoint probe and its verdict.
func (c *Collector) RecordProbe(valid bool) {
	c.probesTotal.Add(1)
	if valid {
		c.probesValid.Add(1)
	} else {
		c.probesInvalid.Add(1)
	}
}

// RecordRetry records a retry attempt round.
func (c *Collector) RecordRetry() {
	c.retriesTotal.Add(1)
}

// RecordBytes records transferred bytes.
func (c *Collector) RecordBytes(n int64) {
	c.bytesTotal.Add(n)
}

// SetActiveWorkers sets the number of active workers.
func (c *Collector) SetActiveWorkers(n int64) {
	c.activeWorkers.Store(n)
}

// WorkerStarted increments the active worker gauge.
func (c *Collector) WorkerStarted() {
	c.activeWorkers.Add(1)
}

// WorkerFinished decrements the active worker gauge.
func (c *Collector) WorkerFinished() {
	c.activeWorkers.Add(-1)
}

// GetAverageResponseTime returns the average response time.
func (c *Collector) GetAverageResponseTime() time.Duration {
	sum := c.responseTimesSum.Load()
	num := c.responseTimesNum.Load()
	if num == 0 {
		return 0
	}
	return time.Duration(sum/num) * time.Millisecond
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() *Snapshot {
	s := &Snapshot{
		Timestamp:           time.Now(),
		Uptime:              time.Since(c.startTime),
		RequestsTotal:       c.requestsTotal.Load(),
		ErrorsTotal:         c.errorsTotal.Load(),
		ProbesTotal:         c.probesTotal.Load(),
		ProbesValid:         c.probesValid.Load(),
		ProbesInvalid:       c.probesInvalid.Load(),
		RetriesTotal:        c.retriesTotal.Load(),
		BytesTotal:          c.bytesTotal.Load(),
		ActiveWorkers:       c.activeWorkers.Load(),
		AverageResponseTime: c.GetAverageResponseTime(),
		ErrorCounts:         make(map[string]int64),
		StatusCodes:         make(map[int]int64),
	}

	c.errorMu.RLock()
	for k, v := range c.errorCounts {
		s.ErrorCounts[k] = v.Load()
	}
	c.errorMu.RUnlock()

	c.statusMu.RLock()
	for k, v := range c.statusCodes {
		s.StatusCodes[k] = v.Load()
	}
	c.statusMu.RUnlock()

	return s
}

// Reset resets all metrics.
func (c *Collector) Reset() {
	c.requestsTotal.Store(0)
	c.errorsTotal.Store(0)
	c.probesTotal.Store(0)
	c.probesValid.Store(0)
	c.probesInvalid.Store(0)
	c.retriesTotal.Store(0)
	c.bytesTotal.Store(0)
	c.responseTimesSum.Store(0)
	c.responseTimesNum.Store(0)
	c.activeWorkers.Store(0)

	c.errorMu.Lock()
	c.errorCounts = make(map[string]*atomic.Int64)
	c.errorMu.Unlock()

	c.statusMu.Lock()
	c.statusCodes = make(map[int]*atomic.Int64)
	c.statusMu.Unlock()

	c.startTime = time.Now()
}

// Snapshot represents a point-in-time view of metrics.
type Snapshot struct {
	Timestamp           time.Time        `json:"timestamp"`
	Uptime              time.Duration    `json:"uptime"`
	RequestsTotal       int64            `json:"requests_total"`
	ErrorsTotal         int64            `json:"errors_total"`
	ProbesTotal         int64            `json:"probes_total"`
	ProbesValid         int64            `json:"probes_valid"`
	ProbesInvalid       int64            `json:"probes_invalid"`
	RetriesTotal        int64            `json:"retries_total"`
	BytesTotal          int64            `json:"bytes_total"`
	ActiveWorkers       int64            `json:"active_workers"`
	AverageResponseTime time.Duration    `json:"average_response_time"`
	ErrorCounts         map[string]int64 `json:"error_counts"`
	StatusCodes         map[int]int64    `json:"status_codes"`
}

// ErrorRate returns the error rate (errors/requests).
func (s *Snapshot) ErrorRate() float64 {
	if s.RequestsTotal == 0 {
		return 0
	}
	return float64(s.ErrorsTotal) / float64(s.RequestsTotal)
}

// ValidRate returns the fraction of probes that passed validation.
func (s *Snapshot) ValidRate() float64 {
	if s.ProbesTotal == 0 {
		return 0
	}
	return float64(s.ProbesValid) / float64(s.ProbesTotal)
}

// Summary returns a human-readable summary.
func (s *Snapshot) Summary() map[string]interface{} {
	return map[string]interface{}{
		"uptime":               s.Uptime.String(),
		"requests_total":       s.RequestsTotal,
		"errors_total":         s.ErrorsTotal,
		"error_rate":           s.ErrorRate(),
		"probes_total":         s.ProbesTotal,
		"probes_valid":         s.ProbesValid,
		"probes_invalid":       s.ProbesInvalid,
		"retries_total":        s.RetriesTotal,
		"avg_response_time_ms": s.AverageResponseTime.Milliseconds(),
	}
}

// Global metrics collector.
var globalCollector = New()

// SetGlobal sets the global metrics collector.
func SetGlobal(c *Collector) {
	globalCollector = c
}

// Global returns the global metrics collector.
func Global() *Collector {
	return globalCollector
}
