package detect

import (
	"encoding/json"
	"fmt"
	"sort"

	"aivid/internal/evidence"
)

// Tier is an ordered confidence classification.
type Tier int

const (
	TierNone Tier = iota
	TierLow
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	default:
		return "none"
	}
}

// MarshalJSON encodes the tier as its string form.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a tier from its string form.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "high":
		*t = TierHigh
	case "medium":
		*t = TierMedium
	case "low":
		*t = TierLow
	case "none":
		*t = TierNone
	default:
		return fmt.Errorf("unknown confidence tier %q", s)
	}
	return nil
}

// Op is a predicate operator over evidence values.
type Op string

const (
	// OpPresent is satisfied when any evidence of the kind exists.
	OpPresent Op = "present"
	// OpEquals is satisfied when any value of the kind equals Value.
	OpEquals Op = "equals"
	// OpContains is satisfied when any value of the kind contains
	// Value, case-insensitively.
	OpContains Op = "contains"
	// OpMatches is satisfied when any value of the kind matches the
	// regular expression in Value.
	OpMatches Op = "matches"
)

// Condition is one predicate over an evidence kind.
type Condition struct {
	Kind  evidence.Kind `json:"kind" yaml:"kind"`
	Op    Op            `json:"op" yaml:"op"`
	Value string        `json:"value,omitempty" yaml:"value,omitempty"`
}

// Rule maps a conjunction of conditions to a generator label and a
// confidence tier. A rule with an empty Generator resolves the label
// from the evidence at evaluation time.
type Rule struct {
	Name       string      `json:"name" yaml:"name"`
	Generator  string      `json:"generator,omitempty" yaml:"generator,omitempty"`
	Confidence Tier        `json:"confidence" yaml:"confidence"`
	When       []Condition `json:"when" yaml:"when"`
}

// DefaultRules builds the ordered rule table for a knowledge base,
// most specific and highest confidence first. First-match-wins
// evaluation means a generator-specific rule must precede the generic
// rule it specializes.
func DefaultRules(sig Signatures) []Rule {
	pattern := sig.Pattern()
	var rules []Rule

	// Generator-specific audio signatures corroborated by a manifest
	// outrank the generic manifest rule.
	rates := make([]string, 0, len(sig.AudioSampleRates))
	for rate := range sig.AudioSampleRates {
		rates = append(rates, rate)
	}
	sort.Strings(rates)
	for _, rate := range rates {
		rules = append(rules, Rule{
			Name:       "audio-signature-" + rate,
			Generator:  sig.AudioSampleRates[rate],
			Confidence: TierHigh,
			When: []Condition{
				{Kind: evidence.KindAudioSampleRate, Op: OpEquals, Value: rate},
				{Kind: evidence.KindManifestPresent, Op: OpPresent},
			},
		})
	}

	rules = append(rules,
		Rule{
			Name:       "manifest-trained-algorithmic-media",
			Confidence: TierHigh,
			When: []Condition{
				{Kind: evidence.KindManifestPresent, Op: OpPresent},
				{Kind: evidence.KindDigitalSourceType, Op: OpContains, Value: "trainedAlgorithmicMedia"},
			},
		},
		Rule{
			Name:       "claim-generator-known-tool",
			Confidence: TierHigh,
			When: []Condition{
				{Kind: evidence.KindClaimGenerator, Op: OpMatches, Value: pattern},
			},
		},
		Rule{
			Name:       "encoder-known-tool",
			Confidence: TierHigh,
			When: []Condition{
				{Kind: evidence.KindEncoderTag, Op: OpMatches, Value: pattern},
			},
		},
		Rule{
			Name:       "format-encoder-google",
			Generator:  "Google Veo",
			Confidence: TierHigh,
			When: []Condition{
				{Kind: evidence.KindFormatEncoder, Op: OpEquals, Value: "Google"},
			},
		},
		// Handler name alone, without a corroborating manifest rule
		// having fired above, is only circumstantial.
		Rule{
			Name:       "handler-known-tool",
			Confidence: TierMedium,
			When: []Condition{
				{Kind: evidence.KindHandlerName, Op: OpMatches, Value: pattern},
			},
		},
	)
	return rules
}
