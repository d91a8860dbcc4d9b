package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/eadtool/internal/compliance"
)

var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ", "\r", " ")

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// BatchMarkdown renders one table row per analyzed file.
func BatchMarkdown(entries []compliance.FileReport) []byte {
	var buf bytes.Buffer

	failed := lo.CountBy(entries, func(e compliance.FileReport) bool { return e.Report.Error != "" })
	incomplete := lo.CountBy(entries, func(e compliance.FileReport) bool {
		return e.Report.Error == "" && len(e.Report.MissingFields()) > 0
	})

	buf.WriteString("# EAD Compliance Report\n\n")
	fmt.Fprintf(&buf, "- Files analyzed: %d\n", len(entries))
	fmt.Fprintf(&buf, "- Not well-formed: %d\n", failed)
	fmt.Fprintf(&buf, "- Missing required elements: %d\n\n", incomplete)

	buf.WriteString("| File | Root | Header | Archdesc | Level | Title | Series | Components | Missing |\n")
	buf.WriteString("|---|---|---|---|---|---|---:|---:|---|\n")
	for _, e := range entries {
		r := e.Report
		if r.Error != "" {
			fmt.Fprintf(&buf, "| %s | error: %s | | | | | | | |\n", cellEscaper.Replace(e.Source), cellEscaper.Replace(r.Error))
			continue
		}
		fmt.Fprintf(&buf, "| %s | %s | %s | %s | %s | %s | %d | %d | %s |\n",
			cellEscaper.Replace(e.Source),
			cellEscaper.Replace(r.RootElement),
			yesNo(r.HasEADHeader),
			yesNo(r.HasArchdesc),
			cellEscaper.Replace(r.ArchdescLevel),
			cellEscaper.Replace(strings.TrimSpace(r.CollectionTitle)),
			r.SeriesCount,
			r.TotalComponents,
			strings.Join(r.MissingFields(), ", "),
		)
	}
	return buf.Bytes()
}

// BatchHTML renders the batch Markdown report as a standalone HTML page.
func BatchHTML(entries []compliance.FileReport) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert(BatchMarkdown(entries), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>EAD Compliance Report</title></head><body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body></html>\n")
	return page.Bytes(), nil
}
