package extract

import (
	"context"
	"fmt"
	"strings"

	"aivid/internal/detect"
	"aivid/internal/evidence"
)

// Heuristic derives circumstantial evidence from what earlier
// extractors recorded. It contributes generator hints and weak
// indicators, never strong signals — a generator-specific audio rate
// without a corroborating manifest is suggestive, not conclusive.
//
// Runs last by priority, and must: it reads the evidence set.
type Heuristic struct {
	sig detect.Signatures
}

// NewHeuristic returns the heuristic extractor backed by the given
// knowledge base.
func NewHeuristic(sig detect.Signatures) *Heuristic {
	return &Heuristic{sig: sig}
}

func (h *Heuristic) Name() string    { return "heuristic" }
func (h *Heuristic) Priority() int   { return 90 }
func (h *Heuristic) Available() bool { return true }

func (h *Heuristic) Extract(ctx context.Context, path string, set *evidence.Set) error {
	// Generator-specific audio sample rate. With a manifest present
	// the rule table already scores this High; alone it is a hint.
	for _, rate := range set.Values(evidence.KindAudioSampleRate) {
		if label, ok := h.sig.AudioSampleRates[rate]; ok {
			set.Add(evidence.KindGeneratorHint, label, h.Name())
			set.Add(evidence.KindWeakIndicator,
				fmt.Sprintf("%s Hz audio sample rate (%s signature)", rate, label), h.Name())
		}
	}

	for _, handler := range set.Values(evidence.KindHandlerName) {
		lower := strings.ToLower(handler)
		if strings.Contains(lower, "google") {
			set.Add(evidence.KindWeakIndicator, "Google handler: "+handler, h.Name())
		}
		if strings.Contains(lower, "mainconcept") {
			set.Add(evidence.KindWeakIndicator, "Mainconcept handler (possible Luma): "+handler, h.Name())
		}
	}

	// Software/creator tags from the tag reader that name a known
	// generator but match none of the strong rule kinds.
	for _, kind := range []evidence.Kind{evidence.KindSoftwareTag, evidence.KindCreatorTool} {
		for _, v := range set.Values(kind) {
			if label, ok := h.sig.Lookup(v); ok {
				set.Add(evidence.KindGeneratorHint, label, h.Name())
				set.Add(evidence.KindWeakIndicator, fmt.Sprintf("%s tag: %s", kind, v), h.Name())
			}
		}
	}
	return nil
}
