package format

import (
	"io"

	"github.com/dhamidi/ibex/cst"
)

// SExpr renders node as a single-line s-expression.
func SExpr(node *cst.Node) string {
	if node == nil {
		return "()"
	}
	return node.String()
}

type SExprEncoder struct {
	w    io.Writer
	node *cst.Node
}

func NewSExprEncoder(w io.Writer) *SExprEncoder {
	return &SExprEncoder{w: w}
}

func (e *SExprEncoder) Encode(node *cst.Node) error {
	e.node = node
	return write(e.w, e)
}

func (e *SExprEncoder) MarshalText() ([]byte, error) {
	return []byte(SExpr(e.node) + "\n"), nil
}
