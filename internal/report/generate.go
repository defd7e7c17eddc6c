package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"
	"time"
)

// Format specifies the output format for analysis reports.
type Format string

const (
	FormatJSON     Format = "json"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// Generator renders analysis reports in various formats.
type Generator struct {
	format  Format
	verbose bool
}

// NewGenerator creates a report generator for the given format.
func NewGenerator(format Format) *Generator {
	return &Generator{format: format}
}

// WithVerbose enables per-evidence detail in text output.
func (g *Generator) WithVerbose(verbose bool) *Generator {
	g.verbose = verbose
	return g
}

// Generate writes the report in the configured format.
func (g *Generator) Generate(r *Report, w io.Writer) error {
	switch g.format {
	case FormatJSON:
		return g.generateJSON(r, w)
	case FormatText:
		return g.generateText(r, w)
	case FormatMarkdown:
		return g.generateMarkdown(r, w)
	default:
		return fmt.Errorf("unknown format: %s", g.format)
	}
}

func (g *Generator) generateJSON(r *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

func (g *Generator) generateText(r *Report, w io.Writer) error {
	fmt.Fprintf(w, "File:        %s\n", r.File.Path)
	fmt.Fprintf(w, "Size:        %d bytes\n", r.File.Size)
	if r.File.Fingerprint != "" {
		fmt.Fprintf(w, "Fingerprint: %s\n", g.truncateHash(r.File.Fingerprint))
	}
	fmt.Fprintf(w, "Analyzed:    %s\n", r.AnalyzedAt.Format(time.RFC3339))
	if r.FromCache {
		fmt.Fprintln(w, "Source:      cache")
	}
	fmt.Fprintln(w)

	if r.Container != nil {
		fmt.Fprintln(w, "--- Container ---")
		if r.Container.MajorBrand != "" {
			fmt.Fprintf(w, "Major brand: %s\n", r.Container.MajorBrand)
		}
		fmt.Fprintf(w, "Boxes:       %d\n", r.Container.BoxCount)
		if r.Container.Truncated {
			fmt.Fprintf(w, "Truncated:   yes (%s)\n", r.Container.TruncationReason)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "--- Verdict ---")
	if r.Verdict.IsAIGenerated {
		fmt.Fprintln(w, "AI-generated: yes")
		if r.Verdict.Generator != "" {
			fmt.Fprintf(w, "Generator:    %s\n", r.Verdict.Generator)
		}
	} else {
		fmt.Fprintln(w, "AI-generated: no")
	}
	fmt.Fprintf(w, "Confidence:   %s\n", r.Verdict.Confidence)
	if r.Verdict.Rule != "" {
		fmt.Fprintf(w, "Rule:         %s\n", r.Verdict.Rule)
	}
	fmt.Fprintln(w)

	if g.verbose && len(r.Evidence) > 0 {
		fmt.Fprintln(w, "--- Evidence ---")
		for _, ev := range r.Evidence {
			fmt.Fprintf(w, "  %-32s %-12s %s\n", ev.Kind, ev.Source, ev.Value)
		}
		fmt.Fprintln(w)
	}

	if len(r.Failures) > 0 {
		fmt.Fprintln(w, "--- Extractor Failures ---")
		for _, f := range r.Failures {
			fmt.Fprintf(w, "  [%s] %s\n", f.Extractor, f.Reason)
		}
		fmt.Fprintln(w)
	}

	return nil
}

func (g *Generator) generateMarkdown(r *Report, w io.Writer) error {
	tmpl := `# Analysis Report: {{.File.Name}}

## Verdict

| Property | Value |
|----------|-------|
| **AI-generated** | {{if .Verdict.IsAIGenerated}}yes{{else}}no{{end}} |
{{if .Verdict.Generator}}| **Generator** | {{.Verdict.Generator}} |
{{end}}| **Confidence** | {{.Verdict.Confidence}} |
{{if .Verdict.Rule}}| **Rule** | {{.Verdict.Rule}} |
{{end}}
## File

| Property | Value |
|----------|-------|
| Path | ` + "`{{.File.Path}}`" + ` |
| Size | {{.File.Size}} bytes |
{{if .File.Fingerprint}}| Fingerprint | ` + "`{{.File.Fingerprint}}`" + ` |
{{end}}| Analyzed | {{.AnalyzedAt}} |

{{if .Evidence}}## Evidence

| Kind | Source | Value |
|------|--------|-------|
{{range .Evidence}}| {{.Kind}} | {{.Source}} | {{.Value}} |
{{end}}{{end}}
{{if .Failures}}## Extractor Failures

{{range .Failures}}- **{{.Extractor}}**: {{.Reason}}
{{end}}{{end}}`

	t, err := template.New("report").Parse(tmpl)
	if err != nil {
		return err
	}
	return t.Execute(w, r)
}

func (g *Generator) truncateHash(hash string) string {
	if g.verbose || len(hash) <= 16 {
		return hash
	}
	return hash[:8] + "..." + hash[len(hash)-8:]
}
