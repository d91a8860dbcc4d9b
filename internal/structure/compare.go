package structure

import (
	"io"
	"strings"
)

// DefaultCompareLines is how many outline lines a comparison shows per file.
const DefaultCompareLines = 50

// Input is a named document to outline.
type Input struct {
	Name string
	R    io.Reader
}

// Side is the outline of one compared document.
type Side struct {
	Name  string   `json:"name"`
	Lines []string `json:"lines"`
}

// Head returns at most limit lines and the number of lines left out.
func (s Side) Head(limit int) (shown []string, elided int) {
	if limit < 0 || len(s.Lines) <= limit {
		return s.Lines, 0
	}
	return s.Lines[:limit], len(s.Lines) - limit
}

// Failed reports whether the outline is a single parse error line. Element
// names cannot contain spaces, so no outline entry looks like one.
func (s Side) Failed() bool {
	return len(s.Lines) == 1 && strings.HasPrefix(s.Lines[0], errorPrefix)
}

// Comparison holds the independently extracted outlines of two documents.
type Comparison struct {
	Left  Side `json:"left"`
	Right Side `json:"right"`
}

// Compare outlines both inputs. Either side may consist of a single error
// line when its document does not parse.
func Compare(left, right Input, maxDepth int) Comparison {
	return Comparison{
		Left:  Side{Name: left.Name, Lines: Lines(Extract(left.R, left.Name, maxDepth))},
		Right: Side{Name: right.Name, Lines: Lines(Extract(right.R, right.Name, maxDepth))},
	}
}
