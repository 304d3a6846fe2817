package lsp

import (
	"errors"
	"sync"

	"github.com/dhamidi/ibex/cst"
	"github.com/dhamidi/ibex/packrat"
	"github.com/dhamidi/ibex/peg"
)

// Document is an open text document and the result of its last parse.
type Document struct {
	URI      string
	Version  int32
	Content  []byte
	Tree     *cst.Node
	ParseErr error
}

// Failure returns the parse failure of the document, or nil when the
// document parsed or failed for a reason other than a syntax error.
func (d *Document) Failure() *packrat.ParseError {
	var pe *packrat.ParseError
	if errors.As(d.ParseErr, &pe) {
		return pe
	}
	return nil
}

// Documents parses open documents with one grammar and keeps the latest
// result for each of them.
type Documents struct {
	mu      sync.RWMutex
	grammar *peg.Compiled
	start   string
	docs    map[string]*Document
}

func NewDocuments(grammar *peg.Compiled, start string) *Documents {
	return &Documents{
		grammar: grammar,
		start:   start,
		docs:    make(map[string]*Document),
	}
}

// Update stores new content for uri and parses it.
func (d *Documents) Update(uri string, version int32, content []byte) *Document {
	doc := &Document{
		URI:     uri,
		Version: version,
		Content: content,
	}
	doc.Tree, doc.ParseErr = d.grammar.Parse(content, d.start)

	d.mu.Lock()
	d.docs[uri] = doc
	d.mu.Unlock()

	if doc.ParseErr != nil {
		log.Debugf("%s: %v", uri, doc.ParseErr)
	}
	return doc
}

func (d *Documents) Get(uri string) *Document {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.docs[uri]
}

func (d *Documents) Remove(uri string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.docs, uri)
}

func (d *Documents) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.docs)
}
