// Package ebnf turns grammars written in the EBNF dialect of
// golang.org/x/exp/ebnf into parsing expression grammars.
//
// Alternatives become ordered choices, so the first alternative that
// matches wins. Productions whose name does not start with an upper-case
// letter are lexical and produce a single leaf.
package ebnf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/tliron/commonlog"
	xebnf "golang.org/x/exp/ebnf"

	"github.com/dhamidi/ibex/peg"
)

var log = commonlog.GetLogger("ibex.ebnf")

// Load reads an EBNF grammar from a file.
func Load(filename string) (xebnf.Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	return Parse(filename, f)
}

// Parse reads an EBNF grammar from r. filename is only used in error
// positions.
func Parse(filename string, r io.Reader) (xebnf.Grammar, error) {
	grammar, err := xebnf.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}
	return grammar, nil
}

// Verify checks that every production reachable from start is defined and
// every defined production is reachable.
func Verify(g xebnf.Grammar, start string) error {
	return xebnf.Verify(g, start)
}

// Errors flattens the error lists returned by golang.org/x/exp/ebnf into
// their individual errors, looking through wrapped errors.
func Errors(err error) []error {
	for e := err; e != nil; e = errors.Unwrap(e) {
		v := reflect.ValueOf(e)
		if v.Kind() != reflect.Slice {
			continue
		}
		errs := make([]error, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			if item, ok := v.Index(i).Interface().(error); ok {
				errs = append(errs, item)
			}
		}
		return errs
	}
	if err == nil {
		return nil
	}
	return []error{err}
}

// IsLexical reports whether the production called name is lexical.
func IsLexical(name string) bool {
	ch, _ := utf8.DecodeRuneInString(name)
	return !unicode.IsUpper(ch)
}

type Option func(*translator)

// WithSkip names the production skipped between tokens.
func WithSkip(name string) Option {
	return func(t *translator) {
		t.skip = name
	}
}

type translator struct {
	skip string
}

// Translate converts g into a parsing expression grammar. Rules are
// defined in source order.
func Translate(g xebnf.Grammar, opts ...Option) (*peg.Grammar, error) {
	var t translator
	for _, opt := range opts {
		opt(&t)
	}

	prods := make([]*xebnf.Production, 0, len(g))
	for _, p := range g {
		prods = append(prods, p)
	}
	sort.Slice(prods, func(i, j int) bool {
		return prods[i].Pos().Offset < prods[j].Pos().Offset
	})

	out := peg.New()
	for _, p := range prods {
		name := p.Name.String
		e, err := t.expr(p.Expr)
		if err != nil {
			return nil, fmt.Errorf("%s: production %s: %w", p.Pos(), name, err)
		}
		define := out.Define
		if IsLexical(name) {
			define = out.DefineLexical
		}
		if err := define(name, e); err != nil {
			return nil, err
		}
	}
	if t.skip != "" {
		if !out.Has(t.skip) {
			return nil, fmt.Errorf("skip production %s is not defined", t.skip)
		}
		out.SetSkip(t.skip)
	}

	log.Debugf("translated %d productions", len(prods))
	return out, nil
}

func (t *translator) expr(expr xebnf.Expression) (peg.Expr, error) {
	switch e := expr.(type) {
	case nil:
		return peg.Seq(), nil

	case xebnf.Alternative:
		alts, err := t.list(e)
		if err != nil {
			return nil, err
		}
		return peg.Choice(alts...), nil

	case xebnf.Sequence:
		items, err := t.list(e)
		if err != nil {
			return nil, err
		}
		return peg.Seq(items...), nil

	case *xebnf.Name:
		return peg.Ref(e.String), nil

	case *xebnf.Token:
		return peg.Lit(e.String), nil

	case *xebnf.Range:
		if len(e.Begin.String) != 1 || len(e.End.String) != 1 {
			return nil, fmt.Errorf("range %q … %q: bounds must be single bytes", e.Begin.String, e.End.String)
		}
		return peg.Range(e.Begin.String[0], e.End.String[0]), nil

	case *xebnf.Group:
		return t.expr(e.Body)

	case *xebnf.Option:
		body, err := t.expr(e.Body)
		if err != nil {
			return nil, err
		}
		return peg.Opt(body), nil

	case *xebnf.Repetition:
		body, err := t.expr(e.Body)
		if err != nil {
			return nil, err
		}
		return peg.Star(body), nil

	case *xebnf.Bad:
		return nil, fmt.Errorf("%s", e.Error)

	default:
		return nil, fmt.Errorf("unsupported expression %T", expr)
	}
}

func (t *translator) list(exprs []xebnf.Expression) ([]peg.Expr, error) {
	out := make([]peg.Expr, 0, len(exprs))
	for _, x := range exprs {
		e, err := t.expr(x)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Compile loads a grammar file and compiles it in one step.
func Compile(filename string, opts ...Option) (*peg.Compiled, error) {
	g, err := Load(filename)
	if err != nil {
		return nil, err
	}
	pg, err := Translate(g, opts...)
	if err != nil {
		return nil, err
	}
	return pg.Compile()
}
