// Package format renders concrete syntax trees.
package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/dhamidi/ibex/cst"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(node *cst.Node) error
}

// New returns the encoder called name: json, tree, lines or sexpr. input is
// the parsed text, used to turn offsets into line and column numbers.
func New(name string, w io.Writer, input []byte) (Encoder, error) {
	switch name {
	case "json":
		return NewJSONEncoder(w, input), nil
	case "tree":
		return NewTreeEncoder(w, input), nil
	case "lines":
		return NewLineEncoder(w), nil
	case "sexpr":
		return NewSExprEncoder(w), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want json, tree, lines or sexpr)", name)
	}
}

func write(w io.Writer, m encoding.TextMarshaler) error {
	text, err := m.MarshalText()
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}
