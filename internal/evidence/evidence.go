// Package evidence defines the shared evidence record that extractors
// populate during a single file analysis.
//
// A Set is exclusively owned by one analysis invocation: extractors
// append to it in turn, the detection engine reads it, and it is never
// mutated after the analysis completes. Appends are never removed or
// reordered, so later extractors can rely on what earlier ones wrote.
package evidence

// Kind identifies one category of observation.
type Kind string

// Evidence kinds contributed by the built-in extractors.
const (
	// Container-derived.
	KindMajorBrand      Kind = "container.major_brand"
	KindHandlerName     Kind = "container.handler_name"
	KindEncoderTag      Kind = "container.encoder_tag"
	KindManifestPresent Kind = "c2pa.manifest_present"
	KindManifestOffset  Kind = "c2pa.manifest_offset"

	// Provenance-derived, from the manifest or external provenance tool.
	KindDigitalSourceType Kind = "c2pa.digital_source_type"
	KindClaimGenerator    Kind = "c2pa.claim_generator"
	KindIssuer            Kind = "c2pa.issuer"

	// Stream/format-derived, from the external probing tool.
	KindFormatName      Kind = "format.name"
	KindFormatEncoder   Kind = "format.encoder_tag"
	KindAudioSampleRate Kind = "stream.audio_sample_rate"
	KindVideoCodec      Kind = "stream.video_codec"

	// Tag-derived, from the external tag-reading tool.
	KindSoftwareTag Kind = "tags.software"
	KindCreatorTool Kind = "tags.creator_tool"

	// Heuristic, derived from evidence recorded earlier in the run.
	KindGeneratorHint Kind = "heuristic.generator_hint"
	KindWeakIndicator Kind = "heuristic.weak_indicator"
)

// Evidence is one discrete observation contributed by an extractor.
type Evidence struct {
	Kind   Kind   `json:"kind"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Failure records an extractor that errored, timed out, or was
// otherwise unable to contribute. Failures are diagnostics, never
// fatal to the analysis.
type Failure struct {
	Extractor string `json:"extractor"`
	Reason    string `json:"reason"`
}

// Set accumulates evidence for one file analysis. The zero value is
// not usable; construct with NewSet.
//
// Set is deliberately unsynchronized: a single analysis is sequential
// by contract, and batches own one Set per file.
type Set struct {
	entries  []Evidence
	byKind   map[Kind][]int
	failures []Failure
}

// NewSet returns an empty evidence set.
func NewSet() *Set {
	return &Set{byKind: make(map[Kind][]int)}
}

// Add appends one observation. Entries are kept in append order and
// never removed.
func (s *Set) Add(kind Kind, value, source string) {
	s.byKind[kind] = append(s.byKind[kind], len(s.entries))
	s.entries = append(s.entries, Evidence{Kind: kind, Value: value, Source: source})
}

// AddFailure records a soft failure for diagnostics.
func (s *Set) AddFailure(extractor, reason string) {
	s.failures = append(s.failures, Failure{Extractor: extractor, Reason: reason})
}

// Has reports whether at least one entry of the kind exists.
func (s *Set) Has(kind Kind) bool {
	return len(s.byKind[kind]) > 0
}

// First returns the earliest-appended value of the kind.
func (s *Set) First(kind Kind) (string, bool) {
	idx := s.byKind[kind]
	if len(idx) == 0 {
		return "", false
	}
	return s.entries[idx[0]].Value, true
}

// Values returns every value of the kind in append order.
func (s *Set) Values(kind Kind) []string {
	idx := s.byKind[kind]
	if len(idx) == 0 {
		return nil
	}
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = s.entries[j].Value
	}
	return out
}

// Of returns every entry of the kind in append order.
func (s *Set) Of(kind Kind) []Evidence {
	idx := s.byKind[kind]
	if len(idx) == 0 {
		return nil
	}
	out := make([]Evidence, len(idx))
	for i, j := range idx {
		out[i] = s.entries[j]
	}
	return out
}

// All returns a copy of every entry in append order.
func (s *Set) All() []Evidence {
	out := make([]Evidence, len(s.entries))
	copy(out, s.entries)
	return out
}

// Failures returns the recorded soft failures in order.
func (s *Set) Failures() []Failure {
	out := make([]Failure, len(s.failures))
	copy(out, s.failures)
	return out
}

// Len returns the number of evidence entries.
func (s *Set) Len() int { return len(s.entries) }
