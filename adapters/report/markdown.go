package report

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gopower/internal/errors"
	"gopower/ports"
)

// MarkdownWriter renders a run summary as Markdown: power per sample size,
// required sample size per threshold, and failure counts so low-confidence
// estimates stay visible.
type MarkdownWriter struct {
	// HTML additionally renders the summary through gomarkdown into a
	// standalone HTML file next to the Markdown one.
	HTML bool
}

// NewMarkdownWriter creates a Markdown report writer.
func NewMarkdownWriter(alsoHTML bool) *MarkdownWriter {
	return &MarkdownWriter{HTML: alsoHTML}
}

// Write renders the report to path (and path with .html when enabled).
func (w *MarkdownWriter) Write(report ports.Report, path string) error {
	md := Render(report)
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return errors.ReportError("failed to write markdown report", err)
	}
	if w.HTML {
		p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
		renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.CompletePage})
		out := markdown.ToHTML([]byte(md), p, renderer)
		if err := os.WriteFile(path+".html", out, 0o644); err != nil {
			return errors.ReportError("failed to write html report", err)
		}
	}
	return nil
}

// Render builds the Markdown summary.
func Render(report ports.Report) string {
	var b strings.Builder
	m := report.Manifest
	fmt.Fprintf(&b, "# Power analysis run %s\n\n", m.RunID)
	fmt.Fprintf(&b, "- Term of interest: `%s`\n", m.Term)
	fmt.Fprintf(&b, "- Significance level: %.3g\n", m.Alpha)
	fmt.Fprintf(&b, "- Seed: %d\n", m.Seed)
	fmt.Fprintf(&b, "- Replications per sample size: %d\n", m.Grid.Replications)
	if m.Aborted {
		b.WriteString("- **Run was aborted; estimates below are partial.**\n")
	}
	b.WriteString("\n## Empirical power\n\n")
	b.WriteString("| Sample size | Power | Significant | Fitted | Failed fits |\n")
	b.WriteString("|---:|---:|---:|---:|---:|\n")
	for _, p := range report.Curve.Points {
		powerCol := "NA"
		if !math.IsNaN(p.Power) {
			powerCol = fmt.Sprintf("%.3f", p.Power)
		}
		fmt.Fprintf(&b, "| %d | %s | %d | %d | %d |\n", p.SampleSize, powerCol, p.Significant, p.Fitted, p.Failed)
		if p.Fitted > 0 && p.Fitted < p.Failed {
			// More failures than fits: flag the estimate as low-confidence.
			fmt.Fprintf(&b, "| | low confidence: only %d successful fits | | | |\n", p.Fitted)
		}
	}
	b.WriteString("\n## Required sample size\n\n")
	if len(report.Required) == 0 {
		b.WriteString("No thresholds requested.\n")
	} else {
		b.WriteString("| Target power | Required n per cell |\n")
		b.WriteString("|---:|---:|\n")
		for _, r := range report.Required {
			if r.Found {
				fmt.Fprintf(&b, "| %.0f%% | %d |\n", r.Threshold*100, r.SampleSize)
			} else {
				fmt.Fprintf(&b, "| %.0f%% | not reached in [%d, %d] |\n", r.Threshold*100, m.Grid.Min(), m.Grid.Max())
			}
		}
	}
	if total := report.Curve.TotalFailed(); total > 0 {
		fmt.Fprintf(&b, "\n%d replications failed to fit and were excluded from the power denominators.\n", total)
	}
	return b.String()
}
