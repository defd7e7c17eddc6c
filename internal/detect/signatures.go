// Package detect turns an accumulated evidence set into a confidence
// scored verdict about AI generation.
//
// The generator knowledge base and the rule table are plain data:
// rules are evaluated by one small interpreter, first match wins, and
// both can be inspected or extended without touching the evaluation
// algorithm.
package detect

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Signatures is the generator knowledge base the default rule table is
// built from. Additional entries can be loaded from a YAML file, so new
// generators are a config change rather than a code change.
type Signatures struct {
	// Generators maps a marker substring, as seen in claim generator
	// strings, encoder tags, or handler names, to a normalized
	// generator label. Matching is case-insensitive.
	Generators map[string]string `yaml:"generators"`

	// AudioSampleRates maps a generator-specific audio sample rate in
	// Hz to a generator label. 96 kHz is a known Sora signature.
	AudioSampleRates map[string]string `yaml:"audio_sample_rates"`
}

// DefaultSignatures returns the built-in knowledge base.
func DefaultSignatures() Signatures {
	return Signatures{
		Generators: map[string]string{
			"sora":             "OpenAI Sora",
			"dall-e":           "OpenAI DALL-E",
			"midjourney":       "Midjourney",
			"stable diffusion": "Stability AI",
			"stabilityai":      "Stability AI",
			"firefly":          "Adobe Firefly",
			"runway":           "Runway ML",
			"pika":             "Pika Labs",
			"kling":            "Kuaishou Kling",
			"luma":             "Luma AI",
			"gemini":           "Google Gemini",
			"veo":              "Google Veo",
		},
		AudioSampleRates: map[string]string{
			"96000": "OpenAI Sora",
		},
	}
}

// LoadSignatures reads a YAML signature file and merges it over the
// built-in knowledge base. File entries win on conflict.
func LoadSignatures(path string) (Signatures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Signatures{}, fmt.Errorf("read signatures: %w", err)
	}
	var extra Signatures
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return Signatures{}, fmt.Errorf("parse signatures: %w", err)
	}
	return DefaultSignatures().Merge(extra), nil
}

// Merge returns a copy of s with other's entries layered on top.
func (s Signatures) Merge(other Signatures) Signatures {
	out := Signatures{
		Generators:       make(map[string]string, len(s.Generators)+len(other.Generators)),
		AudioSampleRates: make(map[string]string, len(s.AudioSampleRates)+len(other.AudioSampleRates)),
	}
	for k, v := range s.Generators {
		out.Generators[strings.ToLower(k)] = v
	}
	for k, v := range other.Generators {
		out.Generators[strings.ToLower(k)] = v
	}
	for k, v := range s.AudioSampleRates {
		out.AudioSampleRates[k] = v
	}
	for k, v := range other.AudioSampleRates {
		out.AudioSampleRates[k] = v
	}
	return out
}

// Lookup resolves a raw tool or generator string to a normalized
// generator label by case-insensitive substring match.
func (s Signatures) Lookup(value string) (string, bool) {
	lower := strings.ToLower(value)
	// Deterministic resolution when several markers match.
	for _, marker := range s.sortedMarkers() {
		if strings.Contains(lower, marker) {
			return s.Generators[marker], true
		}
	}
	return "", false
}

// Pattern returns a case-insensitive regular expression matching any
// known generator marker.
func (s Signatures) Pattern() string {
	markers := s.sortedMarkers()
	quoted := make([]string, len(markers))
	for i, m := range markers {
		quoted[i] = regexp.QuoteMeta(m)
	}
	return "(?i)(" + strings.Join(quoted, "|") + ")"
}

// Markers returns the known generator markers in sorted order.
func (s Signatures) Markers() []string {
	return s.sortedMarkers()
}

func (s Signatures) sortedMarkers() []string {
	markers := make([]string, 0, len(s.Generators))
	for m := range s.Generators {
		markers = append(markers, m)
	}
	sort.Strings(markers)
	return markers
}
