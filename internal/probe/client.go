package probe

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cmliussss2024/sitecheck/internal/errors"
)

// TrustPolicy controls TLS certificate verification for probe requests.
type TrustPolicy int

const (
	// TrustSystem verifies certificates against the system trust store.
	TrustSystem TrustPolicy = iota
	// TrustAny disables certificate verification. Many of the probed sites
	// run on self-signed or misconfigured certificates; this is a
	// reachability check, not a security check, so TrustAny is the default.
	TrustAny
)

// String returns the string representation of a TrustPolicy.
func (p TrustPolicy) String() string {
	if p == TrustAny {
		return "any"
	}
	return "system"
}

// maxBodySize caps how much of a response body a probe reads (2MB).
const maxBodySize = 2 * 1024 * 1024

// Client is the HTTP client used for endpoint probes.
type Client struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
}

// ClientConfig holds configuration for the probe HTTP client.
type ClientConfig struct {
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	UserAgent           string
	Headers             map[string]string
	Trust               TrustPolicy
}

// DefaultClientConfig returns defaults tuned for a single validation pass.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:             10 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 4,
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		Trust:               TrustAny,
	}
}

// NewClient creates a new probe HTTP client.
func NewClient(config ClientConfig) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.Trust == TrustAny,
		},
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent: config.UserAgent,
		headers:   config.Headers,
	}
}

// Response contains the result of one probe request.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	Duration    time.Duration
}

// Get performs an HTTP GET and reads the body up to maxBodySize.
// Transport failures are returned as categorized errors.
func (c *Client) Get(ctx context.Context, targetURL string) (*Response, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, errors.NewProbeError(errors.Unknown, targetURL, "request_creation", "failed to create request", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json,text/plain,*/*")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Categorize(err, targetURL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.NewNetworkError(targetURL, "body_read", err)
	}

	return &Response{
		URL:         targetURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		Duration:    time.Since(start),
	}, nil
}

// Close closes idle connections held by the client.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
