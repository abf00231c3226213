package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{
		Level:  InfoLevel,
		Pretty: false,
		Output: &buf,
	})

	l.Info("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["message"] != "hello" {
		t.Errorf("message = %v, want hello", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
}

func TestNew_Component(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{
		Level:     InfoLevel,
		Pretty:    false,
		Output:    &buf,
		Component: "probe",
	})

	l.Info("probing")

	if !strings.Contains(buf.String(), `"component":"probe"`) {
		t.Errorf("output missing component field: %s", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{
		Level:  WarnLevel,
		Pretty: false,
		Output: &buf,
	})

	l.Info("should be filtered")
	l.Debug("also filtered")

	if buf.Len() != 0 {
		t.Errorf("expected no output below warn level, got: %s", buf.String())
	}

	l.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Error("warn message should have been logged")
	}
}

func TestWithEndpoint(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: InfoLevel, Pretty: false, Output: &buf})

	l.WithEndpoint("heimuer").Info("checking")

	if !strings.Contains(buf.String(), `"endpoint":"heimuer"`) {
		t.Errorf("output missing endpoint field: %s", buf.String())
	}
}

func TestWithURLAndError(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: InfoLevel, Pretty: false, Output: &buf})

	l.WithURL("http://example.com/api.php").Info("probing")

	if !strings.Contains(buf.String(), "example.com") {
		t.Errorf("output missing url field: %s", buf.String())
	}
}

func TestProbeEvent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: InfoLevel, Pretty: false, Output: &buf})

	l.ProbeEvent("heimuer", "https://json.heimuer.xyz/api.php/provide/vod", true, 200, 1)

	out := buf.String()
	for _, want := range []string{`"endpoint":"heimuer"`, `"ok":true`, `"status_code":200`, `"attempts":1`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	if err != nil {
		t.Fatalf("ParseLevel(debug) error: %v", err)
	}
	if level != DebugLevel {
		t.Errorf("level = %v, want debug", level)
	}

	if _, err := ParseLevel("nonsense"); err == nil {
		t.Error("ParseLevel should fail for unknown level")
	}
}

func TestGlobal(t *testing.T) {
	orig := Global()
	defer SetGlobal(orig)

	var buf bytes.Buffer
	SetGlobal(New(Config{Level: InfoLevel, Pretty: false, Output: &buf}))

	Info("global message")

	if !strings.Contains(buf.String(), "global message") {
		t.Error("global logger did not log")
	}
}
