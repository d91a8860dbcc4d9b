package compliance

import (
	"errors"
	"io"

	"github.com/dgallion1/eadtool/internal/parser"
)

// Validation combines the well-formedness check with the compliance report.
type Validation struct {
	WellFormed bool    `json:"well_formed"`
	Message    string  `json:"message"`
	Report     *Report `json:"report,omitempty"`
}

// Validate parses r once. A well-formed document is analyzed; otherwise only
// the parse message is returned.
func Validate(r io.Reader, filename string) Validation {
	doc, err := parser.Parse(r, filename)
	if err != nil {
		if errors.Is(err, parser.ErrMalformed) {
			return Validation{Message: "XML Parse Error: " + err.Error()}
		}
		return Validation{Message: "Error reading file: " + err.Error()}
	}
	report := Analyze(doc)
	return Validation{
		WellFormed: true,
		Message:    "XML is well-formed",
		Report:     &report,
	}
}
