package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "text", Output: &buf})

	log.Info("analysis started", "file", "clip.mp4")
	if !strings.Contains(buf.String(), "analysis started") || !strings.Contains(buf.String(), "clip.mp4") {
		t.Errorf("log line missing fields: %s", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	log.Warn("extractor failed", "extractor", "ffprobe")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if entry["extractor"] != "ffprobe" {
		t.Errorf("attribute lost: %v", entry)
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "text", Output: &buf})

	log.Info("chatty")
	if buf.Len() != 0 {
		t.Error("info line emitted at warn level")
	}
	log.Error("broken")
	if buf.Len() == 0 {
		t.Error("error line suppressed")
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(Config{Format: "json", Output: &buf}), "detect")

	log.Info("rule matched")
	if !strings.Contains(buf.String(), `"component":"detect"`) {
		t.Errorf("component attribute missing: %s", buf.String())
	}
}
