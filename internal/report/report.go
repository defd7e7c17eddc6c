// Package report defines the analysis report interchange format and
// renders it as JSON, plain text, or Markdown.
package report

import (
	"time"

	"aivid/internal/detect"
	"aivid/internal/evidence"
)

// Version is the current report format version.
const Version = 1

// Report is the complete result of analyzing one video file.
type Report struct {
	Version    int       `json:"version"`
	File       FileInfo  `json:"file"`
	AnalyzedAt time.Time `json:"analyzed_at"`

	Container *ContainerInfo `json:"container,omitempty"`

	Evidence []evidence.Evidence `json:"evidence"`
	Failures []evidence.Failure  `json:"failures,omitempty"`

	Verdict detect.Verdict `json:"verdict"`

	// FromCache is true when the verdict came from the cache rather
	// than a fresh extractor run.
	FromCache bool `json:"from_cache,omitempty"`
}

// FileInfo identifies the analyzed file.
type FileInfo struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// ContainerInfo summarizes the parsed container structure.
type ContainerInfo struct {
	MajorBrand       string `json:"major_brand,omitempty"`
	BoxCount         int    `json:"box_count"`
	Truncated        bool   `json:"truncated,omitempty"`
	TruncationReason string `json:"truncation_reason,omitempty"`
}

// Summary returns a one-line description of the report.
func (r *Report) Summary() string {
	v := r.Verdict
	if !v.IsAIGenerated {
		return r.File.Name + ": no AI generation detected"
	}
	s := r.File.Name + ": AI-generated"
	if v.Generator != "" {
		s += " (" + v.Generator + ")"
	}
	return s + ", confidence " + v.Confidence.String()
}
