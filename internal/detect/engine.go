package detect

import (
	"fmt"
	"regexp"
	"strings"

	"aivid/internal/evidence"
)

// Verdict is the immutable outcome of evaluating one evidence set.
type Verdict struct {
	IsAIGenerated bool   `json:"is_ai_generated"`
	Generator     string `json:"generator,omitempty"`
	Confidence    Tier   `json:"confidence"`

	// Rule names the rule that decided the verdict, empty for the
	// weak-indicator and no-evidence fallbacks.
	Rule string `json:"rule,omitempty"`

	// Evidence references the entries that satisfied the deciding
	// rule's conditions, in condition order.
	Evidence []evidence.Evidence `json:"evidence,omitempty"`
}

// Engine evaluates the ordered rule table over an evidence set.
//
// Evaluate is a pure function of its input: no clock, no randomness,
// no state mutated between calls.
type Engine struct {
	rules    []Rule
	sig      Signatures
	patterns map[string]*regexp.Regexp
}

// NewEngine compiles a rule table. Rule order is evaluation order.
func NewEngine(rules []Rule, sig Signatures) (*Engine, error) {
	e := &Engine{
		rules:    rules,
		sig:      sig,
		patterns: make(map[string]*regexp.Regexp),
	}
	for _, r := range rules {
		for _, c := range r.When {
			if c.Op != OpMatches {
				continue
			}
			if _, ok := e.patterns[c.Value]; ok {
				continue
			}
			re, err := regexp.Compile(c.Value)
			if err != nil {
				return nil, fmt.Errorf("rule %q: compile %q: %w", r.Name, c.Value, err)
			}
			e.patterns[c.Value] = re
		}
	}
	return e, nil
}

// DefaultEngine returns an engine over the built-in rule table.
func DefaultEngine() *Engine {
	sig := DefaultSignatures()
	e, err := NewEngine(DefaultRules(sig), sig)
	if err != nil {
		// Built-in patterns are quoted literals; compilation cannot fail.
		panic(err)
	}
	return e
}

// Rules returns a copy of the rule table for inspection.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate derives a verdict from a frozen evidence set. The first
// rule whose conditions are all satisfied decides the entire verdict;
// weaker signals are never summed or averaged past it. With no rule
// matched, one or more weak indicators yield a Low-confidence positive
// and an empty set yields a None-confidence negative.
func (e *Engine) Evaluate(set *evidence.Set) Verdict {
	for _, r := range e.rules {
		contrib, ok := e.matchRule(r, set)
		if !ok {
			continue
		}
		gen := r.Generator
		if gen == "" {
			gen = e.resolveGenerator(set)
		}
		return Verdict{
			IsAIGenerated: true,
			Generator:     gen,
			Confidence:    r.Confidence,
			Rule:          r.Name,
			Evidence:      contrib,
		}
	}

	if weak := weakIndicators(set); len(weak) > 0 {
		return Verdict{IsAIGenerated: true, Confidence: TierLow, Evidence: weak}
	}
	return Verdict{Confidence: TierNone}
}

// matchRule checks every condition of a rule, returning the evidence
// entries that satisfied them.
func (e *Engine) matchRule(r Rule, set *evidence.Set) ([]evidence.Evidence, bool) {
	contrib := make([]evidence.Evidence, 0, len(r.When))
	for _, c := range r.When {
		ev, ok := e.matchCondition(c, set)
		if !ok {
			return nil, false
		}
		contrib = append(contrib, ev)
	}
	return contrib, true
}

func (e *Engine) matchCondition(c Condition, set *evidence.Set) (evidence.Evidence, bool) {
	entries := set.Of(c.Kind)
	for _, ev := range entries {
		switch c.Op {
		case OpPresent:
			return ev, true
		case OpEquals:
			if ev.Value == c.Value {
				return ev, true
			}
		case OpContains:
			if strings.Contains(strings.ToLower(ev.Value), strings.ToLower(c.Value)) {
				return ev, true
			}
		case OpMatches:
			if re := e.patterns[c.Value]; re != nil && re.MatchString(ev.Value) {
				return ev, true
			}
		}
	}
	return evidence.Evidence{}, false
}

// resolveGenerator normalizes a generator label from whichever
// tool-identifying evidence is available, strongest source first.
func (e *Engine) resolveGenerator(set *evidence.Set) string {
	kinds := []evidence.Kind{
		evidence.KindClaimGenerator,
		evidence.KindEncoderTag,
		evidence.KindFormatEncoder,
		evidence.KindSoftwareTag,
		evidence.KindHandlerName,
		evidence.KindGeneratorHint,
	}
	for _, k := range kinds {
		for _, v := range set.Values(k) {
			if label, ok := e.sig.Lookup(v); ok {
				return label
			}
		}
	}
	return ""
}

// weakIndicators collects the circumstantial observations that alone
// justify no more than a Low-confidence verdict.
func weakIndicators(set *evidence.Set) []evidence.Evidence {
	var out []evidence.Evidence
	out = append(out, set.Of(evidence.KindWeakIndicator)...)
	out = append(out, set.Of(evidence.KindGeneratorHint)...)
	return out
}
