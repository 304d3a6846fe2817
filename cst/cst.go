// Package cst provides the concrete syntax trees produced by grammar parsers.
package cst

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TokenKind is the kind of leaf nodes created for matched literals.
const TokenKind = "Token"

// Span is a byte range [Start, End) in the input.
type Span struct {
	Start int
	End   int
}

// Node represents a node in the concrete syntax tree.
// Leaf nodes carry their Text and have nil Children; interior nodes have
// Children. Literals matched inside a rule are leaves of kind TokenKind,
// lexical rules produce leaves of their own kind.
type Node struct {
	Kind     string  // Rule name or TokenKind
	Text     string  // Matched text (terminals only)
	Children []*Node // Child nodes (nil for terminals)
	Span     Span    // Input span covering this node
}

// IsTerminal returns true if this is a leaf node.
func (n *Node) IsTerminal() bool {
	return n.Children == nil
}

// Source returns the input text covered by the node.
func (n *Node) Source(input []byte) string {
	if n.Span.End > len(input) || n.Span.Start > n.Span.End {
		return ""
	}
	return string(input[n.Span.Start:n.Span.End])
}

// String renders the subtree as an s-expression: literal tokens are quoted
// text, other leaves are (Kind "text") and interior nodes list their
// children.
func (n *Node) String() string {
	var b strings.Builder
	n.writeTo(&b)
	return b.String()
}

func (n *Node) writeTo(b *strings.Builder) {
	switch {
	case n.Kind == TokenKind:
		b.WriteString(strconv.Quote(n.Text))
	case n.IsTerminal():
		fmt.Fprintf(b, "(%s %s)", n.Kind, strconv.Quote(n.Text))
	default:
		b.WriteString("(")
		b.WriteString(n.Kind)
		for _, c := range n.Children {
			b.WriteString(" ")
			c.writeTo(b)
		}
		b.WriteString(")")
	}
}

// AddChild appends a child node and widens the span to cover it.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	if len(n.Children) == 0 || child.Span.Start < n.Span.Start {
		n.Span.Start = child.Span.Start
	}
	if child.Span.End > n.Span.End {
		n.Span.End = child.Span.End
	}
	n.Children = append(n.Children, child)
}

// Walk calls fn for n and its descendants in depth-first order. Returning
// false from fn skips the children of that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the first node of the given kind in depth-first order.
func (n *Node) Find(kind string) *Node {
	var found *Node
	n.Walk(func(m *Node) bool {
		if found != nil {
			return false
		}
		if m.Kind == kind {
			found = m
			return false
		}
		return true
	})
	return found
}

// PathAt returns the nodes whose span contains offset, outermost first.
// A node ending at offset counts when none of its siblings starts there.
func (n *Node) PathAt(offset int) []*Node {
	if n == nil || offset < n.Span.Start || offset > n.Span.End {
		return nil
	}
	path := []*Node{n}
	for cur := n; ; {
		var next *Node
		for _, c := range cur.Children {
			if c.Span.Start <= offset && offset < c.Span.End {
				next = c
				break
			}
			if c.Span.End == offset && next == nil {
				next = c
			}
		}
		if next == nil {
			return path
		}
		path = append(path, next)
		cur = next
	}
}

// NewTerminal creates a leaf node for text matched at span.
func NewTerminal(text string, span Span) *Node {
	return &Node{
		Kind: TokenKind,
		Text: text,
		Span: span,
	}
}

// NewNonTerminal creates an empty interior node starting at pos.
func NewNonTerminal(kind string, pos int) *Node {
	return &Node{
		Kind:     kind,
		Children: make([]*Node, 0),
		Span:     Span{Start: pos, End: pos},
	}
}


// Position is a human readable location in an input.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Locate converts a byte offset into a line and column, both 1-based.
// Columns count runes.
func Locate(input []byte, filename string, offset int) Position {
	if offset > len(input) {
		offset = len(input)
	}
	line, col := 1, 1
	for i := 0; i < offset; {
		r, size := utf8.DecodeRune(input[i:])
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		i += size
	}
	return Position{Filename: filename, Offset: offset, Line: line, Column: col}
}

// Offset converts a 1-based line and column back into a byte offset. It is
// the inverse of Locate and clamps to the end of the line or input.
func Offset(input []byte, line, column int) int {
	i := 0
	for l := 1; l < line; l++ {
		nl := bytes.IndexByte(input[i:], '\n')
		if nl < 0 {
			return len(input)
		}
		i += nl + 1
	}
	for c := 1; c < column && i < len(input) && input[i] != '\n'; c++ {
		_, size := utf8.DecodeRune(input[i:])
		i += size
	}
	return i
}
