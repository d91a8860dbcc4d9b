package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/eadtool/internal/doctree"
	"golang.org/x/net/html/charset"
)

// ErrMalformed marks input that is not well-formed XML.
var ErrMalformed = errors.New("malformed xml")

const xmlNamespaceURI = "http://www.w3.org/XML/1998/namespace"

// XMLParser builds a tree from an XML document, keeping element order,
// attribute order and mixed content.
type XMLParser struct{}

// frame is one open element. name keeps the prefix as written; ns holds the
// namespace declarations made on the element itself.
type frame struct {
	node *doctree.Node
	name xml.Name
	ns   map[string]string
}

// Parse reads the whole document. Comments, processing instructions and the
// DOCTYPE are dropped; general entities declared in an internal DTD subset
// are expanded.
func (p *XMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	var badCharset bool
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(label string, in io.Reader) (io.Reader, error) {
		cr, err := charset.NewReaderLabel(label, in)
		badCharset = err != nil
		return cr, err
	}

	var (
		root  *doctree.Node
		stack []frame
	)
	malformed := func(format string, args ...any) error {
		line, col := dec.InputPos()
		return fmt.Errorf("%w: %s: line %d, column %d", ErrMalformed, fmt.Sprintf(format, args...), line, col)
	}

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			var syntaxErr *xml.SyntaxError
			if badCharset || errors.As(err, &syntaxErr) {
				return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
			}
			return nil, fmt.Errorf("read %s: %w", filename, err)
		}

		switch t := tok.(type) {
		case xml.Directive:
			declareEntities(dec, t)

		case xml.StartElement:
			if len(stack) == 0 && root != nil {
				return nil, malformed("junk after document element")
			}
			f, err := openElement(t, stack)
			if err != nil {
				return nil, malformed("%s", err)
			}
			if len(stack) == 0 {
				root = f.node
			} else {
				parent := stack[len(stack)-1].node
				parent.Children = append(parent.Children, f.node)
			}
			stack = append(stack, f)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, malformed("unexpected end element </%s>", qualified(t.Name))
			}
			if open := stack[len(stack)-1].name; open != t.Name {
				return nil, malformed("element <%s> closed by </%s>", qualified(open), qualified(t.Name))
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return nil, malformed("text outside document element")
				}
				continue
			}
			top := stack[len(stack)-1].node
			if n := len(top.Children); n > 0 {
				top.Children[n-1].Tail += string(t)
			} else {
				top.Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no element found", ErrMalformed)
	}
	if len(stack) > 0 {
		return nil, malformed("unclosed element <%s>", qualified(stack[len(stack)-1].name))
	}

	return &doctree.Document{
		Root:      root,
		Namespace: doctree.NamespaceOf(root),
	}, nil
}

// openElement resolves the element and attribute prefixes against the
// declarations in scope and rejects repeated attributes.
func openElement(t xml.StartElement, stack []frame) (frame, error) {
	f := frame{name: t.Name}

	seen := make(map[xml.Name]bool, len(t.Attr))
	for _, a := range t.Attr {
		if seen[a.Name] {
			return f, fmt.Errorf("duplicate attribute %s", qualified(a.Name))
		}
		seen[a.Name] = true

		switch {
		case isDefaultDecl(a.Name):
			f.declare("", a.Value)
		case a.Name.Space == "xmlns":
			if a.Value == "" {
				return f, fmt.Errorf("cannot undeclare prefix %s", a.Name.Local)
			}
			f.declare(a.Name.Local, a.Value)
		}
	}

	resolve := func(prefix string) (string, bool) {
		if prefix == "xml" {
			return xmlNamespaceURI, true
		}
		if uri, ok := f.ns[prefix]; ok {
			return uri, true
		}
		for i := len(stack) - 1; i >= 0; i-- {
			if uri, ok := stack[i].ns[prefix]; ok {
				return uri, true
			}
		}
		return "", prefix == ""
	}

	space, ok := resolve(t.Name.Space)
	if !ok {
		return f, fmt.Errorf("unbound prefix %s", t.Name.Space)
	}
	node := &doctree.Node{Space: space, Tag: t.Name.Local}

	keys := make(map[string]bool, len(t.Attr))
	for _, a := range t.Attr {
		if a.Name.Space == "xmlns" || isDefaultDecl(a.Name) {
			continue
		}
		key := a.Name.Local
		if a.Name.Space != "" {
			uri, ok := resolve(a.Name.Space)
			if !ok {
				return f, fmt.Errorf("unbound prefix %s", a.Name.Space)
			}
			key = "{" + uri + "}" + a.Name.Local
		}
		if keys[key] {
			return f, fmt.Errorf("duplicate attribute %s", qualified(a.Name))
		}
		keys[key] = true
		node.Attrs = append(node.Attrs, doctree.Attr{Key: key, Value: a.Value})
	}

	f.node = node
	return f, nil
}

func (f *frame) declare(prefix, uri string) {
	if f.ns == nil {
		f.ns = make(map[string]string, 2)
	}
	f.ns[prefix] = uri
}

func isDefaultDecl(n xml.Name) bool {
	return n.Space == "" && n.Local == "xmlns"
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

var (
	entityDecl = regexp.MustCompile(`<!ENTITY\s+([^\s%][^\s]*)\s+(?:"([^"]*)"|'([^']*)')\s*>`)
	charRef    = regexp.MustCompile(`&#(x[0-9a-fA-F]+|[0-9]+);`)
)

// declareEntities registers the internal general entities of a DOCTYPE
// so references to them decode as text. The first declaration wins.
func declareEntities(dec *xml.Decoder, d xml.Directive) {
	if !strings.HasPrefix(strings.TrimSpace(string(d)), "DOCTYPE") {
		return
	}
	for _, m := range entityDecl.FindAllStringSubmatch(string(d), -1) {
		if dec.Entity == nil {
			dec.Entity = make(map[string]string)
		}
		if _, ok := dec.Entity[m[1]]; ok {
			continue
		}
		dec.Entity[m[1]] = expandCharRefs(m[2] + m[3])
	}
}

func expandCharRefs(s string) string {
	return charRef.ReplaceAllStringFunc(s, func(ref string) string {
		num := ref[2 : len(ref)-1]
		base := 10
		if num[0] == 'x' {
			num, base = num[1:], 16
		}
		r, err := strconv.ParseInt(num, base, 32)
		if err != nil {
			return ref
		}
		return string(rune(r))
	})
}

// Parse is shorthand for parsing r with an XMLParser.
func Parse(r io.Reader, filename string) (*doctree.Document, error) {
	return (&XMLParser{}).Parse(r, filename)
}
