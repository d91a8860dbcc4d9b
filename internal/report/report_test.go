package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/eadtool/internal/compliance"
	"github.com/dgallion1/eadtool/internal/structure"
)

func completeReport() compliance.Report {
	return compliance.Report{
		RootElement:     "ead",
		HasEADHeader:    true,
		HasArchdesc:     true,
		ArchdescLevel:   "collection",
		CollectionTitle: "Kaufman Papers",
		SeriesCount:     2,
		TotalComponents: 7,
		RequiredElements: map[string]bool{
			"unittitle": true, "unitid": true, "unitdate": true, "physdesc": false, "repository": true,
		},
	}
}

func sampleEntries() []compliance.FileReport {
	return []compliance.FileReport{
		{Source: "kaufman.xml", Checksum: "abc123", Report: completeReport()},
		{Source: "broken|name.xml", Report: compliance.Report{Error: "malformed xml: unexpected EOF"}},
	}
}

func TestPrinter_Analysis(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Analysis(completeReport())
	out := buf.String()

	assert.Contains(t, out, "=== EAD Structure Analysis ===")
	assert.Contains(t, out, "Root Element: ead")
	assert.Contains(t, out, "Has EAD Header: ✓")
	assert.Contains(t, out, "Description Level: collection")
	assert.Contains(t, out, "Collection Title: Kaufman Papers")
	assert.Contains(t, out, "Series Count: 2")
	assert.Contains(t, out, "Total Components: 7")
	assert.Contains(t, out, "✗ physdesc")
	assert.Contains(t, out, "✓ repository")

	// Required fields are listed in fixed order.
	assert.Less(t, strings.Index(out, "unittitle"), strings.Index(out, "repository"))
}

func TestPrinter_AnalysisWithoutTitle(t *testing.T) {
	r := completeReport()
	r.CollectionTitle = ""

	var buf bytes.Buffer
	NewPrinter(&buf).Analysis(r)
	assert.NotContains(t, buf.String(), "Collection Title")
}

func TestPrinter_AnalysisError(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Analysis(compliance.Report{Error: "boom"})
	assert.Contains(t, buf.String(), "Error analyzing file: boom")
	assert.NotContains(t, buf.String(), "Root Element")
}

func TestPrinter_Validation(t *testing.T) {
	report := completeReport()

	var buf bytes.Buffer
	NewPrinter(&buf).Validation("kaufman.xml", compliance.Validation{
		WellFormed: true, Message: "XML is well-formed", Report: &report,
	})
	out := buf.String()
	assert.Contains(t, out, "Validating: kaufman.xml")
	assert.Contains(t, out, "XML is well-formed")
	assert.Contains(t, out, "Validation complete")

	buf.Reset()
	NewPrinter(&buf).Validation("bad.xml", compliance.Validation{Message: "XML Parse Error: no element found"})
	out = buf.String()
	assert.Contains(t, out, "XML Parse Error: no element found")
	assert.NotContains(t, out, "Validation complete")
	assert.NotContains(t, out, "EAD Structure Analysis")
}

func TestPrinter_Comparison(t *testing.T) {
	cmp := structure.Comparison{
		Left:  structure.Side{Name: "a.xml", Lines: []string{"ead", "  eadheader", "  archdesc [collection]"}},
		Right: structure.Side{Name: "b.xml", Lines: []string{"ead"}},
	}

	var buf bytes.Buffer
	NewPrinter(&buf).Comparison(cmp, 2)
	out := buf.String()
	assert.Contains(t, out, "File 1: a.xml")
	assert.Contains(t, out, "File 2: b.xml")
	assert.Contains(t, out, "a.xml structure:")
	assert.Contains(t, out, "  eadheader")
	assert.NotContains(t, out, "archdesc [collection]")
	assert.Contains(t, out, "... and 1 more lines")
	assert.Equal(t, 1, strings.Count(out, "more lines"))
}

func TestPrinter_SideBySide(t *testing.T) {
	cmp := structure.Comparison{
		Left:  structure.Side{Name: "a.xml", Lines: []string{"ead", "  eadheader"}},
		Right: structure.Side{Name: "b.xml", Lines: []string{"ead", "  archdesc"}},
	}

	var buf bytes.Buffer
	NewPrinter(&buf).SideBySide(cmp, 10)
	out := buf.String()
	assert.Contains(t, out, "a.xml")
	assert.Contains(t, out, "b.xml")
	assert.Contains(t, out, "eadheader")
	assert.Contains(t, out, "archdesc")
}

func TestPrinter_Outline(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Outline("a.xml", []string{"ead", "  archdesc"})
	out := buf.String()
	assert.Contains(t, out, "Structure of a.xml:")
	assert.Contains(t, out, strings.Repeat("=", 60))
	assert.Contains(t, out, "\n  archdesc\n")
}

func TestBatchMarkdown(t *testing.T) {
	out := string(BatchMarkdown(sampleEntries()))

	assert.Contains(t, out, "- Files analyzed: 2")
	assert.Contains(t, out, "- Not well-formed: 1")
	assert.Contains(t, out, "- Missing required elements: 1")
	assert.Contains(t, out, "| kaufman.xml | ead | yes | yes | collection | Kaufman Papers | 2 | 7 | physdesc |")
	assert.Contains(t, out, `broken\|name.xml`)
}

func TestBatchHTML(t *testing.T) {
	out, err := BatchHTML(sampleEntries())
	require.NoError(t, err)

	html := string(out)
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<td>kaufman.xml</td>")
	assert.Contains(t, html, "<h1>EAD Compliance Report</h1>")
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleEntries()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "File", rows[0][0])
	assert.Equal(t, "repository", rows[0][len(rows[0])-1])

	assert.Equal(t, "kaufman.xml", rows[1][0])
	assert.Equal(t, "abc123", rows[1][1])
	assert.Equal(t, "collection", rows[1][6])
	assert.Equal(t, "7", rows[1][9])

	assert.Equal(t, "broken|name.xml", rows[2][0])
	assert.Equal(t, "malformed xml: unexpected EOF", rows[2][2])
}
