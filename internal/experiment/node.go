// Package experiment models BehaviorSpace experiment definitions as a
// generic XML node tree and converts them to and from NetLogo files.
package experiment

import "strings"

// Kind discriminates node variants.
type Kind int

const (
	KindElement Kind = iota
	KindText
	KindComment
)

// Element and attribute names used by BehaviorSpace.
const (
	TagExperiments        = "experiments"
	TagExperiment         = "experiment"
	TagEnumeratedValueSet = "enumeratedValueSet"
	TagSteppedValueSet    = "steppedValueSet"
	TagValue              = "value"

	AttrName        = "name"
	AttrRepetitions = "repetitions"
	AttrVariable    = "variable"
	AttrValue       = "value"
	AttrFirst       = "first"
	AttrStep        = "step"
	AttrLast        = "last"
)

// Attr is a single attribute. Attribute order is preserved on output.
type Attr struct {
	Name  string
	Value string
}

// Node is an element, text, or comment node.
type Node struct {
	Kind     Kind
	Name     string
	Attrs    []Attr
	Children []*Node
	Text     string
}

// NewElement creates an element node with the given attributes as
// name/value pairs.
func NewElement(name string, attrs ...string) *Node {
	n := &Node{Kind: KindElement, Name: name}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.SetAttr(attrs[i], attrs[i+1])
	}
	return n
}

// NewText creates a character data node.
func NewText(text string) *Node {
	return &Node{Kind: KindText, Text: text}
}

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute or fallback when absent.
func (n *Node) AttrOr(name, fallback string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return fallback
}

// SetAttr sets an attribute, replacing an existing value in place.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// AppendChild adds child as the last child of n.
func (n *Node) AppendChild(child *Node) {
	n.Children = append(n.Children, child)
}

// RemoveChild detaches child from n. It reports whether child was found.
func (n *Node) RemoveChild(child *Node) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i:i], n.Children[i+1:]...)
			return true
		}
	}
	return false
}

// ChildElements returns the direct element children named name.
func (n *Node) ChildElements(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == KindElement && c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Descendants returns all elements below n named name, in document order.
func (n *Node) Descendants(name string) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, c := range cur.Children {
			if c.Kind != KindElement {
				continue
			}
			if c.Name == name {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// Clone returns a deep copy of n sharing no state with the original.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Kind: n.Kind, Name: n.Name, Text: n.Text}
	if n.Attrs != nil {
		out.Attrs = make([]Attr, len(n.Attrs))
		copy(out.Attrs, n.Attrs)
	}
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// TextContent concatenates all character data below n.
func (n *Node) TextContent() string {
	var b strings.Builder
	var walk func(*Node)
	walk = func(cur *Node) {
		if cur.Kind == KindText {
			b.WriteString(cur.Text)
		}
		for _, c := range cur.Children {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Name returns the experiment name attribute.
func Name(exp *Node) string {
	return exp.AttrOr(AttrName, "")
}
