// Package report renders analysis results as a plain-text audit table,
// a Markdown fleet report, and HTML.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gorelia/domain/recurrence"
)

// Fleet bundles everything a rendered fleet report needs. Model and
// SystemTrends are optional; sections for them are omitted when absent.
type Fleet struct {
	Confidence   float64
	Systems      int
	Points       []recurrence.MCFPoint
	Audit        []recurrence.AuditRow
	Model        *recurrence.PowerLawModel
	SystemTrends map[string]recurrence.Trend
}

// AuditTable renders the event-by-event estimator walk as an aligned
// text table. Censored rows leave the estimate columns blank.
func AuditTable(rows []recurrence.AuditRow) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "state\ttime\tMCF_lower\tMCF\tMCF_upper\tvariance")
	for _, r := range rows {
		if !r.Defined {
			fmt.Fprintf(w, "%s\t%g\t\t\t\t\n", r.Kind, r.Time)
			continue
		}
		fmt.Fprintf(w, "%s\t%g\t%.6g\t%.6g\t%.6g\t%.6g\n", r.Kind, r.Time, r.Lower, r.MCF, r.Upper, r.Variance)
	}
	w.Flush()
	return buf.String()
}

// Markdown renders the full fleet report.
func Markdown(f Fleet) string {
	var b strings.Builder
	b.WriteString("# Fleet Recurrence Report\n\n")
	fmt.Fprintf(&b, "- Systems observed: %d\n", f.Systems)
	fmt.Fprintf(&b, "- Confidence level: %g%%\n", f.Confidence*100)
	if n := len(f.Points); n > 0 {
		last := f.Points[n-1]
		fmt.Fprintf(&b, "- Final MCF: %.4g at time %g\n", last.MCF, last.Time)
	}
	b.WriteString("\n")

	if f.Model != nil {
		b.WriteString("## Power-Law Model\n\n")
		b.WriteString("| parameter | estimate | std. error | lower | upper |\n")
		b.WriteString("|---|---|---|---|---|\n")
		fmt.Fprintf(&b, "| alpha | %.6g | %.6g | %.6g | %.6g |\n",
			f.Model.Alpha, f.Model.AlphaSE, f.Model.AlphaLower, f.Model.AlphaUpper)
		fmt.Fprintf(&b, "| beta | %.6g | %.6g | %.6g | %.6g |\n",
			f.Model.Beta, f.Model.BetaSE, f.Model.BetaLower, f.Model.BetaUpper)
		fmt.Fprintf(&b, "\nFleet trend: **%s**\n\n", f.Model.Trend)
	}

	if len(f.SystemTrends) > 0 {
		b.WriteString("## Per-System Trend\n\n")
		b.WriteString("| system | trend |\n")
		b.WriteString("|---|---|\n")
		systems := make([]string, 0, len(f.SystemTrends))
		for s := range f.SystemTrends {
			systems = append(systems, s)
		}
		sort.Strings(systems)
		for _, s := range systems {
			fmt.Fprintf(&b, "| %s | %s |\n", s, f.SystemTrends[s])
		}
		b.WriteString("\n")
	}

	if len(f.Audit) > 0 {
		b.WriteString("## MCF Audit Trail\n\n")
		b.WriteString("```\n")
		b.WriteString(AuditTable(f.Audit))
		b.WriteString("```\n")
	}

	return b.String()
}

// HTML renders the Markdown report as a complete HTML page.
func HTML(f Fleet) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Fleet Recurrence Report",
	})
	return markdown.ToHTML([]byte(Markdown(f)), p, r)
}
