package structure

import (
	"io"
	"iter"
	"slices"
	"strings"

	"github.com/dgallion1/eadtool/internal/doctree"
	"github.com/dgallion1/eadtool/internal/parser"
)

// DefaultMaxDepth is the deepest level shown in an outline. The root is depth 0.
const DefaultMaxDepth = 5

const errorPrefix = "Error: "

// PathEntry labels n with its tag and the distinguishing level and type
// attributes, e.g. "c01[level=series, type=box]".
func PathEntry(n *doctree.Node, ns doctree.Namespace) string {
	tag := ns.Strip(n)

	var attrs []string
	if v, ok := n.Attr("level"); ok {
		attrs = append(attrs, "level="+v)
	}
	if v, ok := n.Attr("type"); ok {
		attrs = append(attrs, "type="+v)
	}
	if len(attrs) == 0 {
		return tag
	}
	return tag + "[" + strings.Join(attrs, ", ") + "]"
}

// Outline yields one indented PathEntry per node, depth-first in document
// order. Nodes deeper than maxDepth are skipped along with their subtrees.
func Outline(doc *doctree.Document, maxDepth int) iter.Seq[string] {
	return func(yield func(string) bool) {
		var visit func(n *doctree.Node, depth int) bool
		visit = func(n *doctree.Node, depth int) bool {
			if depth > maxDepth {
				return true
			}
			if !yield(strings.Repeat("  ", depth) + PathEntry(n, doc.Namespace)) {
				return false
			}
			for _, c := range n.Children {
				if !visit(c, depth+1) {
					return false
				}
			}
			return true
		}
		visit(doc.Root, 0)
	}
}

// Extract parses r and returns its outline. A document that does not parse
// yields a single "Error: ..." line.
func Extract(r io.Reader, filename string, maxDepth int) iter.Seq[string] {
	doc, err := parser.Parse(r, filename)
	if err != nil {
		msg := errorPrefix + err.Error()
		return func(yield func(string) bool) {
			yield(msg)
		}
	}
	return Outline(doc, maxDepth)
}

// Lines collects an outline into a slice.
func Lines(seq iter.Seq[string]) []string {
	return slices.Collect(seq)
}
