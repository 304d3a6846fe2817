package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/ibex/cst"
)

// LineEncoder writes one tab-separated line per node: depth, kind, start
// offset, end offset and, for leaves, the quoted text.
type LineEncoder struct {
	w    io.Writer
	node *cst.Node
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(node *cst.Node) error {
	e.node = node
	return write(e.w, e)
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	var visit func(n *cst.Node, depth int)
	visit = func(n *cst.Node, depth int) {
		if n.IsTerminal() {
			fmt.Fprintf(&sb, "%d\t%s\t%d\t%d\t%q\n", depth, n.Kind, n.Span.Start, n.Span.End, n.Text)
		} else {
			fmt.Fprintf(&sb, "%d\t%s\t%d\t%d\n", depth, n.Kind, n.Span.Start, n.Span.End)
		}
		for _, child := range n.Children {
			visit(child, depth+1)
		}
	}
	if e.node != nil {
		visit(e.node, 0)
	}
	return []byte(sb.String()), nil
}
