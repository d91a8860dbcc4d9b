package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/eadtool/internal/compliance"
	"github.com/dgallion1/eadtool/internal/structure"
)

const (
	checkMark = "✓"
	crossMark = "✗"
)

var (
	rule      = strings.Repeat("=", 60)
	thinRule  = strings.Repeat("-", 60)
	goodColor = lipgloss.Color("42")
	badColor  = lipgloss.Color("196")
	dimColor  = lipgloss.Color("240")
	headColor = lipgloss.Color("63")
)

// Printer renders human-readable reports. Colors are only emitted when the
// destination is a terminal.
type Printer struct {
	w      io.Writer
	good   lipgloss.Style
	bad    lipgloss.Style
	dim    lipgloss.Style
	head   lipgloss.Style
	column lipgloss.Style
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:    w,
		good: r.NewStyle().Foreground(goodColor),
		bad:  r.NewStyle().Foreground(badColor),
		dim:  r.NewStyle().Foreground(dimColor),
		head: r.NewStyle().Bold(true).Foreground(headColor),
		column: r.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(headColor).
			Padding(0, 1),
	}
}

func (p *Printer) mark(ok bool) string {
	if ok {
		return p.good.Render(checkMark)
	}
	return p.bad.Render(crossMark)
}

// Validation prints the well-formedness result followed by the analysis.
func (p *Printer) Validation(source string, v compliance.Validation) {
	fmt.Fprintf(p.w, "Validating: %s\n", source)
	if !v.WellFormed {
		fmt.Fprintf(p.w, "\n%s\n", p.bad.Render(v.Message))
		return
	}
	fmt.Fprintf(p.w, "\n%s\n", v.Message)
	if v.Report != nil {
		p.Analysis(*v.Report)
	}
	fmt.Fprintf(p.w, "\n%s Validation complete\n", p.mark(true))
}

// Analysis prints a compliance report.
func (p *Printer) Analysis(r compliance.Report) {
	fmt.Fprintf(p.w, "\n%s\n\n", p.head.Render("=== EAD Structure Analysis ==="))

	if r.Error != "" {
		fmt.Fprintf(p.w, "Error analyzing file: %s\n", p.bad.Render(r.Error))
		return
	}

	fmt.Fprintf(p.w, "Root Element: %s\n", r.RootElement)
	fmt.Fprintf(p.w, "Has EAD Header: %s\n", p.mark(r.HasEADHeader))
	fmt.Fprintf(p.w, "Has Archival Description: %s\n", p.mark(r.HasArchdesc))
	fmt.Fprintf(p.w, "Description Level: %s\n", r.ArchdescLevel)
	if r.CollectionTitle != "" {
		fmt.Fprintf(p.w, "Collection Title: %s\n", r.CollectionTitle)
	}

	fmt.Fprintf(p.w, "\nSeries Count: %d\n", r.SeriesCount)
	fmt.Fprintf(p.w, "Total Components: %d\n", r.TotalComponents)

	fmt.Fprintf(p.w, "\n%s\n", p.head.Render("=== Required Elements in Collection <did> ==="))
	for _, field := range compliance.RequiredFields {
		fmt.Fprintf(p.w, "%s %s\n", p.mark(r.RequiredElements[field]), field)
	}
}

// Outline prints the full structure of one document.
func (p *Printer) Outline(name string, lines []string) {
	fmt.Fprintf(p.w, "\nStructure of %s:\n%s\n", name, rule)
	for _, line := range lines {
		fmt.Fprintln(p.w, line)
	}
}

// Comparison prints both outlines one after the other, each cut to limit lines.
func (p *Printer) Comparison(cmp structure.Comparison, limit int) {
	fmt.Fprintf(p.w, "\nComparing:\n  File 1: %s\n  File 2: %s\n", cmp.Left.Name, cmp.Right.Name)
	fmt.Fprintf(p.w, "\n%s\n", rule)

	for i, side := range []structure.Side{cmp.Left, cmp.Right} {
		if i > 0 {
			fmt.Fprintln(p.w)
		}
		fmt.Fprintf(p.w, "\n%s\n%s\n", p.head.Render(side.Name+" structure:"), thinRule)
		shown, elided := side.Head(limit)
		for _, line := range shown {
			fmt.Fprintln(p.w, line)
		}
		if elided > 0 {
			fmt.Fprintf(p.w, "\n%s\n", p.dim.Render(fmt.Sprintf("... and %d more lines", elided)))
		}
	}
}

// SideBySide prints both outlines in adjacent columns, each cut to limit lines.
func (p *Printer) SideBySide(cmp structure.Comparison, limit int) {
	columns := make([]string, 0, 2)
	for _, side := range []structure.Side{cmp.Left, cmp.Right} {
		shown, elided := side.Head(limit)
		var body strings.Builder
		body.WriteString(p.head.Render(side.Name) + "\n")
		body.WriteString(strings.Join(shown, "\n"))
		if elided > 0 {
			body.WriteString("\n" + p.dim.Render(fmt.Sprintf("... and %d more lines", elided)))
		}
		columns = append(columns, p.column.Render(body.String()))
	}
	fmt.Fprintln(p.w, lipgloss.JoinHorizontal(lipgloss.Top, columns...))
}
