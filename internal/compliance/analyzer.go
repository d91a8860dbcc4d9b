package compliance

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dgallion1/eadtool/internal/doctree"
	"github.com/dgallion1/eadtool/internal/parser"
	"github.com/samber/lo"
)

// LevelNotSpecified is reported when archdesc carries no level attribute.
const LevelNotSpecified = "Not specified"

// maxComponentDepth is the deepest numbered component tag, c12.
const maxComponentDepth = 12

// RequiredFields are the did children every collection-level description needs,
// in report order.
var RequiredFields = []string{"unittitle", "unitid", "unitdate", "physdesc", "repository"}

// numberedComponents holds c01 through c12.
var numberedComponents = lo.SliceToMap(lo.RangeFrom(1, maxComponentDepth), func(i int) (string, bool) {
	return fmt.Sprintf("c%02d", i), true
})

// Report is the outcome of analyzing one document. When Error is set no other
// field is meaningful.
type Report struct {
	RootElement      string          `json:"root_element"`
	HasEADHeader     bool            `json:"has_eadheader"`
	HasArchdesc      bool            `json:"has_archdesc"`
	ArchdescLevel    string          `json:"archdesc_level"`
	CollectionTitle  string          `json:"collection_title,omitempty"`
	SeriesCount      int             `json:"series_count"`
	TotalComponents  int             `json:"total_components"`
	RequiredElements map[string]bool `json:"required_elements"`
	Error            string          `json:"error,omitempty"`
}

// MarshalJSON emits only the error field for failed analyses.
func (r Report) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(map[string]string{"error": r.Error})
	}
	type plain Report
	return json.Marshal(plain(r))
}

// MissingFields lists required fields absent from the collection did.
func (r Report) MissingFields() []string {
	return lo.Filter(RequiredFields, func(f string, _ int) bool {
		return !r.RequiredElements[f]
	})
}

// Analyze answers the compliance checklist for doc. Missing archdesc or did
// blocks are reported as absent fields, never as errors.
func Analyze(doc *doctree.Document) Report {
	ns := doc.Namespace
	root := doc.Root

	r := Report{
		RootElement:      ns.Strip(root),
		ArchdescLevel:    LevelNotSpecified,
		RequiredElements: lo.SliceToMap(RequiredFields, func(f string) (string, bool) { return f, false }),
	}

	r.HasEADHeader = doctree.Find(root, ns, "eadheader") != nil

	if archdesc := doctree.Find(root, ns, "archdesc"); archdesc != nil {
		r.HasArchdesc = true
		if level, ok := archdesc.Attr("level"); ok {
			r.ArchdescLevel = level
		}
		if did := doctree.Find(archdesc, ns, "did"); did != nil {
			if title := doctree.Find(did, ns, "unittitle"); title != nil {
				r.CollectionTitle = title.Text
			}
			for _, field := range RequiredFields {
				r.RequiredElements[field] = doctree.Find(did, ns, field) != nil
			}
		}
	}

	r.SeriesCount, r.TotalComponents = countComponents(root, ns)
	return r
}

// countComponents counts numbered components marked as series, and all
// components. Generic c and numbered cNN tags are summed without
// deduplication.
func countComponents(root *doctree.Node, ns doctree.Namespace) (series, total int) {
	components := doctree.FindAll(root, func(n *doctree.Node) bool {
		return n.Space == ns.URI && (n.Tag == "c" || numberedComponents[n.Tag])
	})
	for _, c := range components {
		total++
		if !numberedComponents[c.Tag] {
			continue
		}
		if level, ok := c.Attr("level"); ok && level == "series" {
			series++
		}
	}
	return series, total
}

// AnalyzeReader parses r and analyzes it. Parse failures produce a report
// holding only the error.
func AnalyzeReader(r io.Reader, filename string) Report {
	doc, err := parser.Parse(r, filename)
	if err != nil {
		return Report{Error: err.Error()}
	}
	return Analyze(doc)
}

// FileReport pairs a report with the document it describes.
type FileReport struct {
	Source   string `json:"source"`
	Checksum string `json:"sha256,omitempty"`
	Report   Report `json:"report"`
}
