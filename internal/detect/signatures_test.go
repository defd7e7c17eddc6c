package detect

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLookup(t *testing.T) {
	sig := DefaultSignatures()
	cases := []struct {
		value string
		label string
		ok    bool
	}{
		{"OpenAI Sora 2", "OpenAI Sora", true},
		{"RunwayML Gen-3 Alpha", "Runway ML", true},
		{"veo-3.0-generate", "Google Veo", true},
		{"Lavf61.1.100", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		label, ok := sig.Lookup(tc.value)
		if ok != tc.ok || label != tc.label {
			t.Errorf("Lookup(%q) = %q, %v; want %q, %v", tc.value, label, ok, tc.label, tc.ok)
		}
	}
}

func TestLookupIsDeterministic(t *testing.T) {
	sig := DefaultSignatures()
	// "sora" and "veo" both appear; the alphabetically first marker wins.
	first, _ := sig.Lookup("sora via veo pipeline")
	for i := 0; i < 20; i++ {
		if got, _ := sig.Lookup("sora via veo pipeline"); got != first {
			t.Fatalf("lookup order unstable: %q vs %q", got, first)
		}
	}
}

func TestMergeFileEntriesWin(t *testing.T) {
	extra := Signatures{
		Generators:       map[string]string{"Sora": "Renamed Sora", "acme": "Acme Gen"},
		AudioSampleRates: map[string]string{"88200": "Acme Gen"},
	}
	merged := DefaultSignatures().Merge(extra)

	if label, _ := merged.Lookup("sora"); label != "Renamed Sora" {
		t.Errorf("override lost: %q", label)
	}
	if label, _ := merged.Lookup("AcmeStudio"); label != "Acme Gen" {
		t.Errorf("new marker lost: %q", label)
	}
	if merged.AudioSampleRates["96000"] != "OpenAI Sora" {
		t.Error("built-in sample rate lost")
	}
	if merged.AudioSampleRates["88200"] != "Acme Gen" {
		t.Error("new sample rate lost")
	}
}

func TestLoadSignatures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signatures.yaml")
	content := `generators:
  acme: Acme Gen
audio_sample_rates:
  "88200": Acme Gen
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	sig, err := LoadSignatures(path)
	if err != nil {
		t.Fatal(err)
	}
	if label, ok := sig.Lookup("acme encoder"); !ok || label != "Acme Gen" {
		t.Errorf("loaded marker not applied: %q, %v", label, ok)
	}
	// Built-ins survive the merge.
	if label, _ := sig.Lookup("sora"); label != "OpenAI Sora" {
		t.Errorf("built-in lost after load: %q", label)
	}

	if _, err := LoadSignatures(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPatternMatchesAllMarkers(t *testing.T) {
	e, err := NewEngine(DefaultRules(DefaultSignatures()), DefaultSignatures())
	if err != nil {
		t.Fatalf("default rule patterns must compile: %v", err)
	}
	_ = e
}
