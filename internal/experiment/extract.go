package experiment

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const (
	openTag  = "<" + TagExperiments + ">"
	closeTag = "</" + TagExperiments + ">"
)

// Extract finds every <experiments> section embedded in a NetLogo model
// file and returns the experiment elements they contain, in file order.
// The rest of the model file is not XML and is ignored.
func Extract(text string) ([]*Node, error) {
	sections := strings.Split(text, openTag)
	var out []*Node
	for i, section := range sections[1:] {
		body, _, _ := strings.Cut(section, closeTag)
		root, err := Parse(strings.NewReader(openTag + body + closeTag))
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				perr.Section = i + 1
			}
			return nil, err
		}
		out = append(out, root.Descendants(TagExperiment)...)
	}
	return out, nil
}

// Parse reads one XML document into a node tree and returns its root
// element. Processing instructions and directives are dropped.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	var (
		root  *Node
		stack []*Node
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, col := dec.InputPos()
			return nil, &ParseError{Line: line, Column: col, Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Node{Kind: KindElement, Name: t.Name.Local}
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					line, col := dec.InputPos()
					return nil, &ParseError{Line: line, Column: col, Err: errors.New("multiple root elements")}
				}
				root = el
			} else {
				stack[len(stack)-1].AppendChild(el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].AppendChild(NewText(string(t)))
			}
		case xml.Comment:
			if len(stack) > 0 {
				stack[len(stack)-1].AppendChild(&Node{Kind: KindComment, Text: string(t)})
			}
		}
	}

	if root == nil {
		return nil, &ParseError{Err: errors.New("no root element")}
	}
	return root, nil
}
