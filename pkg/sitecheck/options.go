package sitecheck

import (
	"io"
	"time"

	"github.com/cmliussss2024/sitecheck/internal/logger"
)

// Option is a functional option for configuring the Checker.
type Option func(*Checker) error

// WithConfig replaces the whole configuration.
func WithConfig(config *Config) Option {
	return func(c *Checker) error {
		if config != nil {
			c.config = config
		}
		return nil
	}
}

// WithWorkers sets the number of concurrent probe workers.
func WithWorkers(n int) Option {
	return func(c *Checker) error {
		if n < 1 {
			n = 1
		}
		c.config.Workers = n
		return nil
	}
}

// WithMaxAttempts sets the attempt rounds per endpoint.
func WithMaxAttempts(n int) Option {
	return func(c *Checker) error {
		if n < 1 {
			n = 1
		}
		c.config.MaxAttempts = n
		return nil
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Checker) error {
		c.config.Timeout = timeout
		return nil
	}
}

// WithRetryDelay sets the fixed pause between attempt rounds.
func WithRetryDelay(delay time.Duration) Option {
	return func(c *Checker) error {
		c.config.RetryDelay = delay
		return nil
	}
}

// WithUserAgent sets the user agent string.
func WithUserAgent(ua string) Option {
	return func(c *Checker) error {
		if ua != "" {
			c.config.UserAgent = ua
		}
		return nil
	}
}

// WithInsecure enables or disables TLS certificate verification skipping.
func WithInsecure(insecure bool) Option {
	return func(c *Checker) error {
		c.config.Insecure = insecure
		return nil
	}
}

// WithRateLimit sets the outbound rate limiting configuration.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Checker) error {
		c.config.RateLimit.Enabled = rps > 0
		c.config.RateLimit.RequestsPerSecond = rps
		c.config.RateLimit.Burst = burst
		return nil
	}
}

// WithOutputFile sets the JSON results output path.
func WithOutputFile(path string) Option {
	return func(c *Checker) error {
		c.config.Output.FilePath = path
		return nil
	}
}

// WithHistory enables run history persistence at the given path.
func WithHistory(path string) Option {
	return func(c *Checker) error {
		c.config.History.Enabled = path != ""
		c.config.History.Path = path
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Checker) error {
		if log != nil {
			c.log = log
		}
		return nil
	}
}

// WithConsole redirects the report output and the confirmation input.
// Used by tests and by callers embedding the checker.
func WithConsole(out io.Writer, in io.Reader) Option {
	return func(c *Checker) error {
		if out != nil {
			c.stdout = out
		}
		if in != nil {
			c.stdin = in
		}
		return nil
	}
}
