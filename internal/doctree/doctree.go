package doctree

// Document is the root of a parsed EAD file.
type Document struct {
	Root      *Node     // Document element
	Namespace Namespace // Resolved once from the root tag
}

// Attr is a single attribute, kept in document order.
type Attr struct {
	Key   string // Local name, or "{uri}local" for namespaced attributes
	Value string
}

// Node is one element of the document tree.
type Node struct {
	Space    string  // Namespace URI ("" when unqualified)
	Tag      string  // Local name
	Attrs    []Attr  // Attributes in document order
	Text     string  // Character data before the first child
	Tail     string  // Character data after the end tag, before the next sibling
	Children []*Node // Child elements in document order
}

// Attr returns the value of the attribute named key.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Namespace is the document-wide namespace context. EAD files use a single
// default namespace, so it is detected from the root and reused for every lookup.
type Namespace struct {
	URI string
}

// NamespaceOf returns the namespace declared on root.
func NamespaceOf(root *Node) Namespace {
	if root == nil {
		return Namespace{}
	}
	return Namespace{URI: root.Space}
}

// Matches reports whether n is the element local in this namespace.
func (ns Namespace) Matches(n *Node, local string) bool {
	return n.Space == ns.URI && n.Tag == local
}

// Strip returns the tag of n without the document namespace. Elements from
// other namespaces keep their "{uri}" qualifier.
func (ns Namespace) Strip(n *Node) string {
	if n.Space == ns.URI || n.Space == "" {
		return n.Tag
	}
	return "{" + n.Space + "}" + n.Tag
}

// Walk visits the subtree rooted at n in document order. fn receives each node
// and its depth relative to n; returning false skips that node's children.
func Walk(n *Node, fn func(n *Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Find returns the first descendant of n (n itself excluded) named local.
func Find(n *Node, ns Namespace, local string) *Node {
	for _, c := range n.Children {
		if ns.Matches(c, local) {
			return c
		}
		if found := Find(c, ns, local); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant of n (n itself excluded) for which match
// returns true, in document order.
func FindAll(n *Node, match func(*Node) bool) []*Node {
	var out []*Node
	for _, c := range n.Children {
		Walk(c, func(d *Node, _ int) bool {
			if match(d) {
				out = append(out, d)
			}
			return true
		})
	}
	return out
}
