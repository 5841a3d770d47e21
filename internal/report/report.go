// Package report renders vault status and verification results for the
// ignitectl CLI in text, JSON, or Markdown form, following the same
// format-selectable generator shape the teacher's verification
// reporter uses.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Status classifies one finding in a report.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusFailed  Status = "failed"
)

// Finding is one checked item: a key's expiration state, a manifest's
// digest verification, a chain integrity check, etc.
type Finding struct {
	Component string `json:"component"`
	Status    Status `json:"status"`
	Message   string `json:"message"`
}

// Report aggregates findings produced by a `status` run.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	VaultRoot   string    `json:"vault_root"`
	Findings    []Finding `json:"findings"`
}

// Passed, Warnings, Failed count findings by status.
func (r *Report) Passed() int   { return r.countStatus(StatusOK) }
func (r *Report) Warnings() int { return r.countStatus(StatusWarning) }
func (r *Report) Failed() int   { return r.countStatus(StatusFailed) }

func (r *Report) countStatus(s Status) int {
	n := 0
	for _, f := range r.Findings {
		if f.Status == s {
			n++
		}
	}
	return n
}

// Valid reports whether no finding failed; warnings do not make a report
// invalid.
func (r *Report) Valid() bool { return r.Failed() == 0 }

// Summary renders a one-line result, the closing line of the text and
// Markdown renderings.
func (r *Report) Summary() string {
	var sb strings.Builder
	if r.Valid() {
		sb.WriteString("[OK]")
	} else {
		sb.WriteString("[FAILED]")
	}
	sb.WriteString(fmt.Sprintf(" %d passed, %d warnings, %d failed", r.Passed(), r.Warnings(), r.Failed()))
	return sb.String()
}

// Format selects a Report's rendering.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Generator renders a Report in a selected Format.
type Generator struct {
	format Format
}

// NewGenerator builds a Generator for format.
func NewGenerator(format Format) *Generator {
	return &Generator{format: format}
}

// Generate writes report to w per the generator's configured format.
func (g *Generator) Generate(r *Report, w io.Writer) error {
	switch g.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatMarkdown:
		return g.generateMarkdown(r, w)
	default:
		return g.generateText(r, w)
	}
}

func statusSymbol(s Status) string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "??"
	case StatusFailed:
		return "!!"
	default:
		return "  "
	}
}

func (g *Generator) generateText(r *Report, w io.Writer) error {
	fmt.Fprintln(w, "ignite vault report")
	fmt.Fprintf(w, "vault:      %s\n", r.VaultRoot)
	fmt.Fprintf(w, "generated:  %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintln(w)
	for _, f := range r.Findings {
		fmt.Fprintf(w, "[%s] %-20s %s\n", statusSymbol(f.Status), f.Component, f.Message)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, r.Summary())
	return nil
}

func (g *Generator) generateMarkdown(r *Report, w io.Writer) error {
	fmt.Fprintln(w, "# ignite vault report")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- **Vault**: `%s`\n", r.VaultRoot)
	fmt.Fprintf(w, "- **Generated**: %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Component | Status | Message |")
	fmt.Fprintln(w, "|---|---|---|")
	for _, f := range r.Findings {
		fmt.Fprintf(w, "| %s | %s | %s |\n", f.Component, f.Status, f.Message)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", r.Summary())
	return nil
}
