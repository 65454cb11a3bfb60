package experiment

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SetupFileHeader opens every generated setup file. NetLogo's headless
// runner validates setup files against behaviorspace.dtd.
const SetupFileHeader = `<?xml version="1.0" encoding="us-ascii"?>
<!DOCTYPE experiments SYSTEM "behaviorspace.dtd">
<experiments>
`

// SetupFileFooter closes every generated setup file.
const SetupFileFooter = "</experiments>\n"

const indentUnit = "  "

// WriteSetupFile writes exp wrapped in the BehaviorSpace setup file envelope.
func WriteSetupFile(w io.Writer, exp *Node) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(SetupFileHeader)
	writeNode(bw, exp, 1)
	bw.WriteString(SetupFileFooter)
	return bw.Flush()
}

// Render returns a node serialized at the given indentation depth.
func Render(n *Node, depth int) string {
	var b strings.Builder
	bw := bufio.NewWriter(&b)
	writeNode(bw, n, depth)
	_ = bw.Flush()
	return b.String()
}

// writeNode pretty-prints element-only content one child per line.
// Elements carrying character data are written inline so that NetLogo code
// in <setup>, <go> and <metric> keeps its exact text. Whitespace-only text
// between elements is not reproduced.
func writeNode(w *bufio.Writer, n *Node, depth int) {
	indent := strings.Repeat(indentUnit, depth)
	switch n.Kind {
	case KindText:
		return
	case KindComment:
		w.WriteString(indent + "<!--" + n.Text + "-->\n")
		return
	}

	w.WriteString(indent)
	writeStartTag(w, n)
	if len(n.Children) == 0 || isBlank(n) {
		w.WriteString("/>\n")
		return
	}
	w.WriteString(">")

	if hasCharData(n) {
		for _, c := range n.Children {
			writeInline(w, c)
		}
	} else {
		w.WriteString("\n")
		for _, c := range n.Children {
			writeNode(w, c, depth+1)
		}
		w.WriteString(indent)
	}
	w.WriteString("</" + n.Name + ">\n")
}

func writeInline(w *bufio.Writer, n *Node) {
	switch n.Kind {
	case KindText:
		w.WriteString(escape(n.Text, false))
	case KindComment:
		w.WriteString("<!--" + n.Text + "-->")
	default:
		writeStartTag(w, n)
		if len(n.Children) == 0 {
			w.WriteString("/>")
			return
		}
		w.WriteString(">")
		for _, c := range n.Children {
			writeInline(w, c)
		}
		w.WriteString("</" + n.Name + ">")
	}
}

func writeStartTag(w *bufio.Writer, n *Node) {
	w.WriteString("<" + n.Name)
	for _, a := range n.Attrs {
		w.WriteString(" " + a.Name + `="` + escape(a.Value, true) + `"`)
	}
}

func hasCharData(n *Node) bool {
	for _, c := range n.Children {
		if c.Kind == KindText && strings.TrimSpace(c.Text) != "" {
			return true
		}
	}
	return false
}

func isBlank(n *Node) bool {
	for _, c := range n.Children {
		if c.Kind != KindText || strings.TrimSpace(c.Text) != "" {
			return false
		}
	}
	return true
}

// escape encodes markup characters and every non-ASCII rune, since setup
// files declare us-ascii.
func escape(s string, attr bool) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == '&':
			b.WriteString("&amp;")
		case r == '<':
			b.WriteString("&lt;")
		case r == '>':
			b.WriteString("&gt;")
		case attr && r == '"':
			b.WriteString("&quot;")
		case attr && (r == '\n' || r == '\r' || r == '\t'):
			b.WriteString("&#" + strconv.Itoa(int(r)) + ";")
		case r >= utf8.RuneSelf:
			b.WriteString("&#" + strconv.Itoa(int(r)) + ";")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
