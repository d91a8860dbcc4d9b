package structure

import (
	"fmt"
	"io"

	"github.com/dgallion1/eadtool/internal/doctree"
	"github.com/dgallion1/eadtool/internal/parser"
)

// Section returns the serialized subtree of the first descendant named
// section, and whether one was found.
func Section(doc *doctree.Document, section string) (string, bool) {
	n := doctree.Find(doc.Root, doc.Namespace, section)
	if n == nil {
		return "", false
	}
	return doctree.Serialize(n), true
}

// ExtractSection parses r and returns the named section as XML. Missing
// sections and parse failures are described in the returned string.
func ExtractSection(r io.Reader, source, section string) string {
	doc, err := parser.Parse(r, source)
	if err != nil {
		return errorPrefix + err.Error()
	}
	out, ok := Section(doc, section)
	if !ok {
		return NotFoundMessage(source, section)
	}
	return out
}

// NotFoundMessage describes a section missing from source.
func NotFoundMessage(source, section string) string {
	return fmt.Sprintf("Section '%s' not found in %s", section, source)
}
