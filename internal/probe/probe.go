// Package probe checks one named API endpoint for reachability and a
// plausible catalog response shape.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cmliussss2024/sitecheck/internal/errors"
	"github.com/cmliussss2024/sitecheck/internal/logger"
	"github.com/cmliussss2024/sitecheck/internal/metrics"
	"github.com/cmliussss2024/sitecheck/internal/ratelimit"
	"github.com/cmliussss2024/sitecheck/internal/validator"
)

// StatusNoResponse is the status code recorded when no HTTP response was
// ever obtained from any candidate URL.
const StatusNoResponse = -1

// Result is the outcome of probing one endpoint. Exactly one Result is
// produced per endpoint per run and it is never mutated afterwards.
type Result struct {
	Name       string        `json:"name"`
	URL        string        `json:"url"`
	OK         bool          `json:"ok"`
	StatusCode int           `json:"status_code"`
	Message    string        `json:"message"`
	Attempts   int           `json:"attempts"`
	Duration   time.Duration `json:"duration"`
	CheckedAt  time.Time     `json:"checked_at"`
}

// Config holds probe behavior settings.
type Config struct {
	MaxAttempts int
	RetryDelay  time.Duration
	Client      ClientConfig
}

// DefaultConfig returns defaults matching the intended use: a handful of
// attempt rounds with a short fixed pause between them.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		RetryDelay:  time.Second,
		Client:      DefaultClientConfig(),
	}
}

// Prober probes endpoints using a shared HTTP client.
type Prober struct {
	client  *Client
	config  Config
	limiter *ratelimit.Limiter
	metrics *metrics.Collector
	log     *logger.Logger
}

// New creates a Prober. limiter may be nil to disable throttling.
func New(config Config, limiter *ratelimit.Limiter, collector *metrics.Collector, log *logger.Logger) *Prober {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if collector == nil {
		collector = metrics.Global()
	}
	if log == nil {
		log = logger.Global().WithComponent("probe")
	}
	return &Prober{
		client:  NewClient(config.Client),
		config:  config,
		limiter: limiter,
		metrics: collector,
		log:     log,
	}
}

// Probe checks one endpoint. It never returns an error: every failure mode
// is folded into the Result's verdict and diagnostic message.
func (p *Prober) Probe(ctx context.Context, name, baseURL string) Result {
	start := time.Now()
	candidates := Candidates(baseURL)

	// Last observed outcome, threaded explicitly through every path so the
	// final result never depends on which branch happened to run last.
	lastStatus := StatusNoResponse
	lastDiag := "no response"

	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		for _, candidate := range candidates {
			if err := p.limiter.WaitURL(ctx, candidate); err != nil {
				lastDiag = fmt.Sprintf("rate limiter: %v", err)
				continue
			}

			p.metrics.RecordRequest()
			resp, err := p.client.Get(ctx, candidate)
			if err != nil {
				perr := errors.Categorize(err, candidate)
				p.metrics.RecordError(perr.Type.String())
				lastDiag = perr.Error()
				p.log.RequestEvent(candidate, StatusNoResponse, 0)
				continue
			}

			p.metrics.RecordStatusCode(resp.StatusCode)
			p.metrics.RecordResponseTime(resp.Duration)
			p.metrics.RecordBytes(int64(len(resp.Body)))
			p.log.RequestEvent(candidate, resp.StatusCode, resp.Duration)

			if resp.StatusCode != http.StatusOK {
				lastStatus = resp.StatusCode
				if perr := errors.CategorizeHTTPStatus(resp.StatusCode, candidate); perr != nil {
					p.metrics.RecordError(perr.Type.String())
					lastDiag = perr.Message
				} else {
					lastDiag = fmt.Sprintf("status %d", resp.StatusCode)
				}
				continue
			}

			lastStatus = resp.StatusCode

			var payload any
			if err := json.Unmarshal(resp.Body, &payload); err != nil {
				p.metrics.RecordError(errors.Decode.String())
				lastDiag = decodeDiagnostic(resp, err)
				continue
			}

			if !validator.Valid(payload) {
				p.metrics.RecordError(errors.Validation.String())
				lastDiag = "response shape rejected"
				continue
			}

			return Result{
				Name:       name,
				URL:        candidate,
				OK:         true,
				StatusCode: resp.StatusCode,
				Message:    "valid",
				Attempts:   attempt,
				Duration:   time.Since(start),
				CheckedAt:  time.Now(),
			}
		}

		if attempt < p.config.MaxAttempts {
			p.metrics.RecordRetry()
			time.Sleep(p.config.RetryDelay)
		}
	}

	return Result{
		Name:       name,
		URL:        baseURL,
		OK:         false,
		StatusCode: lastStatus,
		Message:    lastDiag,
		Attempts:   p.config.MaxAttempts,
		Duration:   time.Since(start),
		CheckedAt:  time.Now(),
	}
}

// Close releases the prober's HTTP client resources.
func (p *Prober) Close() {
	p.client.Close()
}

// decodeDiagnostic describes a 200 response whose body was not JSON.
// HTML bodies get the page title, which distinguishes parked domains and
// anti-bot pages from legitimate but broken APIs.
func decodeDiagnostic(resp *Response, err error) string {
	if looksLikeHTML(resp) {
		if title := htmlTitle(resp.Body); title != "" {
			return fmt.Sprintf("HTML page instead of JSON (title: %s)", title)
		}
		return "HTML page instead of JSON"
	}
	return fmt.Sprintf("invalid JSON body: %v", err)
}

// looksLikeHTML checks content type and body prefix for HTML markers.
func looksLikeHTML(resp *Response) bool {
	if strings.Contains(resp.ContentType, "text/html") {
		return true
	}
	prefix := strings.ToLower(strings.TrimSpace(string(resp.Body[:min(len(resp.Body), 256)])))
	return strings.HasPrefix(prefix, "<!doctype html") || strings.HasPrefix(prefix, "<html")
}
