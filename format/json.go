package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/ibex/cst"
)

type JSONEncoder struct {
	w     io.Writer
	input []byte
	node  *cst.Node
}

func NewJSONEncoder(w io.Writer, input []byte) *JSONEncoder {
	return &JSONEncoder{w: w, input: input}
}

func (e *JSONEncoder) Encode(node *cst.Node) error {
	e.node = node
	return write(e.w, e)
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	text, err := json.MarshalIndent(e.nodeToJSON(e.node), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(text, '\n'), nil
}

type jsonNode struct {
	Kind     string      `json:"kind"`
	Span     jsonSpan    `json:"span"`
	Text     string      `json:"text,omitempty"`
	Children []*jsonNode `json:"children,omitempty"`
}

type jsonSpan struct {
	Start jsonPosition `json:"start"`
	End   jsonPosition `json:"end"`
}

type jsonPosition struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (e *JSONEncoder) position(offset int) jsonPosition {
	pos := cst.Locate(e.input, "", offset)
	return jsonPosition{Offset: offset, Line: pos.Line, Column: pos.Column}
}

func (e *JSONEncoder) nodeToJSON(n *cst.Node) *jsonNode {
	if n == nil {
		return nil
	}
	jn := &jsonNode{
		Kind: n.Kind,
		Span: jsonSpan{Start: e.position(n.Span.Start), End: e.position(n.Span.End)},
	}
	if n.IsTerminal() {
		jn.Text = n.Text
	}

	if len(n.Children) > 0 {
		jn.Children = make([]*jsonNode, len(n.Children))
		for i, child := range n.Children {
			jn.Children[i] = e.nodeToJSON(child)
		}
	}

	return jn
}
