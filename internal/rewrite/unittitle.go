package rewrite

import (
	"bytes"
	"strings"
)

// DefaultUnittitle is inserted after box containers that lack a title.
const DefaultUnittitle = "[Language files]"

const (
	boxContainer   = `<container type="box">`
	containerClose = `</container>`
	unittitleOpen  = "<unittitle>"
)

// UnittitleStats summarizes an AddUnittitles run.
type UnittitleStats struct {
	Containers int `json:"containers"`
	Existing   int `json:"existing_unittitles"`
	Added      int `json:"added"`
	Total      int `json:"total_unittitles"`
}

// AddUnittitles inserts a <unittitle> line after every single-line box
// container whose next line does not already start with one. The inserted
// line reuses the container's indentation width.
func AddUnittitles(input []byte, title string) ([]byte, UnittitleStats) {
	if title == "" {
		title = DefaultUnittitle
	}
	lines := strings.SplitAfter(string(input), "\n")
	eol := lineEnding(input)

	var out strings.Builder
	out.Grow(len(input))
	for i, line := range lines {
		out.WriteString(line)
		if !strings.Contains(line, boxContainer) || !strings.Contains(line, containerClose) {
			continue
		}
		if i+1 < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i+1]), unittitleOpen) {
			continue
		}
		if !strings.HasSuffix(line, "\n") {
			out.WriteString(eol)
		}
		out.WriteString(strings.Repeat(" ", leadingWhitespace(line)))
		out.WriteString(unittitleOpen + title + "</unittitle>" + eol)
	}

	result := []byte(out.String())
	stats := UnittitleStats{
		Containers: bytes.Count(input, []byte(boxContainer)),
		Existing:   bytes.Count(input, []byte(unittitleOpen)),
		Total:      bytes.Count(result, []byte(unittitleOpen)),
	}
	stats.Added = stats.Total - stats.Existing
	return result, stats
}

func leadingWhitespace(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t\r\n\v\f"))
}

// lineEnding reports the terminator of the first line, so inserted lines
// match the rest of the file.
func lineEnding(input []byte) string {
	if i := bytes.IndexByte(input, '\n'); i > 0 && input[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
