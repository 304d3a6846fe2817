package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/ibex/cst"
)

// TreeEncoder draws the tree with one node per line, indented by depth and
// annotated with line:column ranges.
type TreeEncoder struct {
	w     io.Writer
	input []byte
	node  *cst.Node
}

func NewTreeEncoder(w io.Writer, input []byte) *TreeEncoder {
	return &TreeEncoder{w: w, input: input}
}

func (e *TreeEncoder) Encode(node *cst.Node) error {
	e.node = node
	return write(e.w, e)
}

func (e *TreeEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	if e.node != nil {
		e.writeNode(&sb, e.node, "", "")
	}
	return []byte(sb.String()), nil
}

func (e *TreeEncoder) writeNode(sb *strings.Builder, n *cst.Node, prefix, childPrefix string) {
	start := cst.Locate(e.input, "", n.Span.Start)
	end := cst.Locate(e.input, "", n.Span.End)
	sb.WriteString(prefix)
	if n.IsTerminal() {
		fmt.Fprintf(sb, "%s %q", n.Kind, n.Text)
	} else {
		sb.WriteString(n.Kind)
	}
	fmt.Fprintf(sb, " [%s-%s]\n", start, end)

	for i, child := range n.Children {
		if i == len(n.Children)-1 {
			e.writeNode(sb, child, childPrefix+"└── ", childPrefix+"    ")
		} else {
			e.writeNode(sb, child, childPrefix+"├── ", childPrefix+"│   ")
		}
	}
}
