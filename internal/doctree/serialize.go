package doctree

import (
	"fmt"
	"strings"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\n", "&#10;", "\r", "&#13;", "\t", "&#09;",
	)
)

// Serialize renders the subtree rooted at n as XML. The element's own tail is
// not included. A default namespace declaration is emitted on n and on any
// descendant whose namespace differs from its parent's.
func Serialize(n *Node) string {
	var sb strings.Builder
	s := &serializer{w: &sb, prefixes: map[string]string{}}
	s.element(n, "", true)
	return sb.String()
}

type serializer struct {
	w        *strings.Builder
	prefixes map[string]string // attribute namespace URI -> prefix
}

func (s *serializer) element(n *Node, parentSpace string, top bool) {
	s.w.WriteString("<" + n.Tag)
	if n.Space != parentSpace || (top && n.Space != "") {
		fmt.Fprintf(s.w, ` xmlns="%s"`, attrEscaper.Replace(n.Space))
	}
	declared := map[string]bool{}
	for _, a := range n.Attrs {
		name, decl := s.attrName(a.Key)
		if decl != "" && !declared[decl] {
			declared[decl] = true
			s.w.WriteString(decl)
		}
		fmt.Fprintf(s.w, ` %s="%s"`, name, attrEscaper.Replace(a.Value))
	}

	if n.Text == "" && len(n.Children) == 0 {
		s.w.WriteString(" />")
		return
	}

	s.w.WriteString(">")
	s.w.WriteString(textEscaper.Replace(n.Text))
	for _, c := range n.Children {
		s.element(c, n.Space, false)
		s.w.WriteString(textEscaper.Replace(c.Tail))
	}
	s.w.WriteString("</" + n.Tag + ">")
}

// attrName maps a "{uri}local" key to a prefixed name, returning the namespace
// declaration to emit alongside it.
func (s *serializer) attrName(key string) (name, decl string) {
	if !strings.HasPrefix(key, "{") {
		return key, ""
	}
	end := strings.IndexByte(key, '}')
	if end < 0 {
		return key, ""
	}
	uri, local := key[1:end], key[end+1:]
	if uri == xmlNamespace {
		return "xml:" + local, ""
	}
	prefix, ok := s.prefixes[uri]
	if !ok {
		prefix = fmt.Sprintf("ns%d", len(s.prefixes))
		s.prefixes[uri] = prefix
	}
	return prefix + ":" + local, fmt.Sprintf(` xmlns:%s="%s"`, prefix, attrEscaper.Replace(uri))
}
