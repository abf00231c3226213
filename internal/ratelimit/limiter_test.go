package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 10)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait() error: %v", err)
		}
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	l := NewLimiter(0.001, 1)

	ctx := context.Background()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first Wait() should use the burst token: %v", err)
	}

	cancelCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(cancelCtx); err == nil {
		t.Error("Wait() should fail when context expires before a token is available")
	}
}

func TestLimiter_WaitHost(t *testing.T) {
	l := NewLimiter(100, 10)

	ctx := context.Background()
	if err := l.WaitHost(ctx, "json.heimuer.xyz"); err != nil {
		t.Fatalf("WaitHost() error: %v", err)
	}
	if err := l.WaitHost(ctx, "caiji.dyttzyapi.com"); err != nil {
		t.Fatalf("WaitHost() error: %v", err)
	}

	if stats := l.Stats(); stats.HostCount != 2 {
		t.Errorf("HostCount = %d, want 2", stats.HostCount)
	}
}

func TestLimiter_WaitURL(t *testing.T) {
	l := NewLimiter(100, 10)

	ctx := context.Background()
	if err := l.WaitURL(ctx, "https://json.heimuer.xyz/api.php/provide/vod"); err != nil {
		t.Fatalf("WaitURL() error: %v", err)
	}

	// Unparseable URLs fall back to the global limiter.
	if err := l.WaitURL(ctx, "::not a url::"); err != nil {
		t.Fatalf("WaitURL() with bad URL error: %v", err)
	}
}

func TestLimiter_HostDelay(t *testing.T) {
	l := NewLimiter(1000, 100)
	l.SetHostDelay(50 * time.Millisecond)

	ctx := context.Background()
	start := time.Now()
	l.WaitHost(ctx, "example.com")
	l.WaitHost(ctx, "example.com")
	elapsed := time.Since(start)

	if elapsed < 50*time.Millisecond {
		t.Errorf("second request to same host took %v, want >= 50ms", elapsed)
	}
}

func TestLimiter_Allow(t *testing.T) {
	l := NewLimiter(1, 1)

	if !l.Allow() {
		t.Error("first Allow() should pass with burst 1")
	}
	if l.Allow() {
		t.Error("second immediate Allow() should fail")
	}
}

func TestLimiter_NilSafe(t *testing.T) {
	var l *Limiter

	ctx := context.Background()
	if err := l.Wait(ctx); err != nil {
		t.Errorf("nil limiter Wait() error: %v", err)
	}
	if err := l.WaitURL(ctx, "http://example.com"); err != nil {
		t.Errorf("nil limiter WaitURL() error: %v", err)
	}
	if !l.Allow() {
		t.Error("nil limiter Allow() should be true")
	}
	if stats := l.Stats(); stats.HostCount != 0 {
		t.Errorf("nil limiter Stats() = %+v", stats)
	}
}

func TestLimiter_SetRate(t *testing.T) {
	l := NewLimiter(1, 1)
	l.SetRate(500, 50)

	if stats := l.Stats(); stats.DefaultRate != 500 || stats.DefaultBurst != 50 {
		t.Errorf("Stats after SetRate = %+v", stats)
	}
}
