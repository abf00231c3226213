package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmliussss2024/sitecheck/internal/errors"
)

func TestDefaultClientConfig(t *testing.T) {
	config := DefaultClientConfig()

	if config.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", config.Timeout)
	}
	if config.UserAgent == "" {
		t.Error("UserAgent should not be empty")
	}
	if config.Trust != TrustAny {
		t.Error("Trust should default to TrustAny for reachability probes")
	}
}

func TestTrustPolicyString(t *testing.T) {
	if TrustSystem.String() != "system" {
		t.Errorf("TrustSystem = %s", TrustSystem)
	}
	if TrustAny.String() != "any" {
		t.Errorf("TrustAny = %s", TrustAny)
	}
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code": 1}`))
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig())
	defer client.Close()

	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if string(resp.Body) != `{"code": 1}` {
		t.Errorf("Body = %s", resp.Body)
	}
	if !strings.Contains(resp.ContentType, "application/json") {
		t.Errorf("ContentType = %s", resp.ContentType)
	}
	if resp.Duration <= 0 {
		t.Error("Duration not recorded")
	}
}

func TestClient_Get_TLSInsecure(t *testing.T) {
	// httptest TLS servers use a self-signed certificate; TrustAny must
	// accept it, TrustSystem must refuse it.
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	insecure := NewClient(DefaultClientConfig())
	defer insecure.Close()
	if _, err := insecure.Get(context.Background(), server.URL); err != nil {
		t.Errorf("TrustAny client failed against self-signed cert: %v", err)
	}

	cfg := DefaultClientConfig()
	cfg.Trust = TrustSystem
	strict := NewClient(cfg)
	defer strict.Close()
	if _, err := strict.Get(context.Background(), server.URL); err == nil {
		t.Error("TrustSystem client should reject a self-signed cert")
	}
}

func TestClient_Get_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	cfg := DefaultClientConfig()
	cfg.Timeout = 50 * time.Millisecond
	client := NewClient(cfg)
	defer client.Close()

	_, err := client.Get(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Get() should time out")
	}
	if errors.GetErrorType(err) != errors.Timeout {
		t.Errorf("error type = %s, want timeout", errors.GetErrorType(err))
	}
}

func TestClient_Get_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(DefaultClientConfig())
	defer client.Close()

	_, err := client.Get(context.Background(), url)
	if err == nil {
		t.Fatal("Get() should fail against a closed server")
	}
	if errors.GetErrorType(err) != errors.Network {
		t.Errorf("error type = %s, want network", errors.GetErrorType(err))
	}
}

func TestClient_Get_CustomHeaders(t *testing.T) {
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Probe")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	cfg := DefaultClientConfig()
	cfg.Headers = map[string]string{"X-Probe": "sitecheck"}
	client := NewClient(cfg)
	defer client.Close()

	if _, err := client.Get(context.Background(), server.URL); err != nil {
		t.Fatal(err)
	}
	if gotHeader != "sitecheck" {
		t.Errorf("X-Probe header = %q", gotHeader)
	}
}

func TestHTMLTitle(t *testing.T) {
	title := htmlTitle([]byte(`<html><head><title>  My Page </title></head><body></body></html>`))
	if title != "My Page" {
		t.Errorf("htmlTitle = %q, want My Page", title)
	}

	if got := htmlTitle([]byte(`<html><body>no title</body></html>`)); got != "" {
		t.Errorf("htmlTitle without title = %q, want empty", got)
	}

	if got := htmlTitle([]byte(`{"this": "is json"}`)); got != "" {
		t.Errorf("htmlTitle on JSON = %q, want empty", got)
	}
}
