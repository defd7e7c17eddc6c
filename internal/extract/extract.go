// Package extract orchestrates the pluggable set of signal extractors
// that contribute evidence to one file's analysis.
//
// Extractors run strictly sequentially, in ascending priority order:
// container/box-derived extraction first, external-tool-backed
// extraction next, heuristic extraction that reads earlier results
// last. Concurrency is deliberately absent inside a single analysis —
// a later extractor may consult evidence an earlier one wrote.
//
// An extractor failure, non-zero tool exit, timeout, or panic is
// caught at the orchestration boundary and recorded as a soft failure;
// it never aborts the whole-file analysis.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"aivid/internal/evidence"
)

// Extractor is the capability contract every signal source implements.
type Extractor interface {
	// Name identifies the extractor in evidence and failure records.
	Name() string

	// Priority orders execution, ascending. Extractors that read
	// evidence written by others must use a higher priority.
	Priority() int

	// Available reports whether the extractor's dependencies (an
	// external binary, typically) are present on this system.
	Available() bool

	// Extract contributes evidence for the file at path into set.
	Extract(ctx context.Context, path string, set *evidence.Set) error
}

// Registry holds the configured extractor set.
type Registry struct {
	extractors []Extractor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an extractor. Registration order is irrelevant;
// priority decides execution order.
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// Available returns the available extractors sorted ascending by
// priority. The sort is stable so equal priorities keep registration
// order.
func (r *Registry) Available() []Extractor {
	var out []Extractor
	for _, e := range r.extractors {
		if e.Available() {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})
	return out
}

// All returns every registered extractor with its availability, sorted
// ascending by priority, for status output.
func (r *Registry) All() []Status {
	out := make([]Status, 0, len(r.extractors))
	for _, e := range r.extractors {
		out = append(out, Status{Name: e.Name(), Priority: e.Priority(), Available: e.Available()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// Status is one extractor's availability for status listings.
type Status struct {
	Name      string `json:"name"`
	Priority  int    `json:"priority"`
	Available bool   `json:"available"`
}

// Run executes every available extractor against the file, collecting
// evidence and soft failures into set. Cancellation stops launching
// further extractors but the failures of the skipped ones are still
// recorded, so partial diagnostics survive an interrupted batch.
func (r *Registry) Run(ctx context.Context, path string, set *evidence.Set, log *slog.Logger) {
	for _, ex := range r.Available() {
		if err := ctx.Err(); err != nil {
			set.AddFailure(ex.Name(), fmt.Sprintf("skipped: %v", err))
			continue
		}
		if err := runOne(ctx, ex, path, set); err != nil {
			set.AddFailure(ex.Name(), err.Error())
			log.Warn("extractor failed", "extractor", ex.Name(), "error", err)
			continue
		}
		log.Debug("extractor finished", "extractor", ex.Name(), "evidence", set.Len())
	}
}

// runOne isolates a single extractor call, converting panics into
// ordinary soft-failure errors.
func runOne(ctx context.Context, ex Extractor, path string, set *evidence.Set) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return ex.Extract(ctx, path, set)
}
