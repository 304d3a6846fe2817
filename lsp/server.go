// Package lsp serves parse diagnostics for documents written in a grammar
// over the Language Server Protocol.
package lsp

import (
	"strings"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/ibex/cst"
	"github.com/dhamidi/ibex/peg"
)

const lsName = "ibex"

var log = commonlog.GetLogger("ibex.lsp")

type Server struct {
	docs    *Documents
	handler protocol.Handler
	server  *server.Server
	version string
}

// NewServer returns a server that parses every document with grammar,
// starting at the rule called start.
func NewServer(grammar *peg.Compiled, start, version string) *Server {
	ls := &Server{
		docs:    NewDocuments(grammar, start),
		version: version,
	}

	ls.handler = protocol.Handler{
		Initialize:            ls.initialize,
		Initialized:           ls.initialized,
		Shutdown:              ls.shutdown,
		SetTrace:              ls.setTrace,
		TextDocumentDidOpen:   ls.textDocumentDidOpen,
		TextDocumentDidChange: ls.textDocumentDidChange,
		TextDocumentDidClose:  ls.textDocumentDidClose,
		TextDocumentDidSave:   ls.textDocumentDidSave,
		TextDocumentHover:     ls.textDocumentHover,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *Server) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Infof("initialized, parsing from rule %s", ls.docs.start)
	return nil
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := ls.docs.Update(params.TextDocument.URI, params.TextDocument.Version, []byte(params.TextDocument.Text))
	ls.publish(ctx, doc)
	return nil
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	change := params.ContentChanges[len(params.ContentChanges)-1]
	textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		return nil
	}
	doc := ls.docs.Update(params.TextDocument.URI, params.TextDocument.Version, []byte(textChange.Text))
	ls.publish(ctx, doc)
	return nil
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	ls.docs.Remove(params.TextDocument.URI)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (ls *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text == nil {
		return nil
	}
	var version int32
	if prev := ls.docs.Get(params.TextDocument.URI); prev != nil {
		version = prev.Version
	}
	doc := ls.docs.Update(params.TextDocument.URI, version, []byte(*params.Text))
	ls.publish(ctx, doc)
	return nil
}

func (ls *Server) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc := ls.docs.Get(params.TextDocument.URI)
	if doc == nil || doc.Tree == nil {
		return nil, nil
	}

	offset := cst.Offset(doc.Content, int(params.Position.Line)+1, int(params.Position.Character)+1)
	path := doc.Tree.PathAt(offset)
	if len(path) == 0 {
		return nil, nil
	}

	var kinds []string
	for _, n := range path {
		if n.Kind != cst.TokenKind {
			kinds = append(kinds, n.Kind)
		}
	}
	inner := path[len(path)-1]
	r := toRange(doc.Content, inner.Span.Start, inner.Span.End)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindPlainText,
			Value: strings.Join(kinds, " > "),
		},
		Range: &r,
	}, nil
}

func (ls *Server) publish(ctx *glsp.Context, doc *Document) {
	version := protocol.UInteger(doc.Version)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         doc.URI,
		Version:     &version,
		Diagnostics: diagnostics(doc),
	})
}

// diagnostics reports the selected failure of a document. A document that
// parsed has none.
func diagnostics(doc *Document) []protocol.Diagnostic {
	if doc.ParseErr == nil {
		return []protocol.Diagnostic{}
	}

	start, end, message := 0, 0, doc.ParseErr.Error()
	if pe := doc.Failure(); pe != nil {
		start, end, message = pe.Pos, pe.End, pe.Message
	}

	severity := protocol.DiagnosticSeverityError
	source := lsName
	return []protocol.Diagnostic{{
		Range:    toRange(doc.Content, start, end),
		Severity: &severity,
		Source:   &source,
		Message:  message,
	}}
}

func toRange(content []byte, start, end int) protocol.Range {
	return protocol.Range{
		Start: toPosition(content, start),
		End:   toPosition(content, end),
	}
}

func toPosition(content []byte, offset int) protocol.Position {
	pos := cst.Locate(content, "", offset)
	return protocol.Position{
		Line:      protocol.UInteger(pos.Line - 1),
		Character: protocol.UInteger(pos.Column - 1),
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
