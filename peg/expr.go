package peg

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a parsing expression.
type Expr interface {
	fmt.Stringer

	// nullable reports whether the expression can succeed without
	// consuming input, given the nullability of named rules.
	nullable(rules map[string]bool) bool
	// leftRefs calls fn for every rule the expression may apply before
	// consuming input.
	leftRefs(rules map[string]bool, fn func(name string))
	compile(c *compiler) matcher
}

type (
	litExpr struct {
		text string
	}
	rangeExpr struct {
		lo, hi byte
	}
	anyExpr   struct{}
	classExpr struct {
		desc string
		pred func(byte) bool
	}
	refExpr struct {
		name string
	}
	seqExpr struct {
		items []Expr
	}
	choiceExpr struct {
		alts []Expr
	}
	starExpr struct {
		body Expr
	}
	plusExpr struct {
		body Expr
	}
	optExpr struct {
		body Expr
	}
	notExpr struct {
		body Expr
	}
	andExpr struct {
		body Expr
	}
	tokenExpr struct {
		body Expr
	}
	hideExpr struct {
		body Expr
	}
)

// Lit matches text exactly.
func Lit(text string) Expr { return &litExpr{text: text} }

// Range matches one byte in [lo, hi].
func Range(lo, hi byte) Expr { return &rangeExpr{lo: lo, hi: hi} }

// Any matches any single byte.
func Any() Expr { return anyExpr{} }

// Class matches one byte accepted by pred; desc names the class in
// diagnostics.
func Class(desc string, pred func(byte) bool) Expr { return &classExpr{desc: desc, pred: pred} }

// Ref applies the rule called name.
func Ref(name string) Expr { return &refExpr{name: name} }

// Seq matches items one after another. An empty sequence matches the empty
// string.
func Seq(items ...Expr) Expr {
	if len(items) == 1 {
		return items[0]
	}
	return &seqExpr{items: items}
}

// Choice tries alts in order and commits to the first that matches.
func Choice(alts ...Expr) Expr {
	if len(alts) == 1 {
		return alts[0]
	}
	return &choiceExpr{alts: alts}
}

// Star matches body zero or more times.
func Star(body Expr) Expr { return &starExpr{body: body} }

// Plus matches body one or more times.
func Plus(body Expr) Expr { return &plusExpr{body: body} }

// Opt matches body or nothing.
func Opt(body Expr) Expr { return &optExpr{body: body} }

// Not succeeds without consuming input if body does not match here.
func Not(body Expr) Expr { return &notExpr{body: body} }

// And succeeds without consuming input if body matches here.
func And(body Expr) Expr { return &andExpr{body: body} }

// Token matches body and yields a single leaf with the matched text.
func Token(body Expr) Expr { return &tokenExpr{body: body} }

// Hide matches body and drops the nodes it produces.
func Hide(body Expr) Expr { return &hideExpr{body: body} }

func (e *litExpr) String() string   { return strconv.Quote(e.text) }
func (e *rangeExpr) String() string { return fmt.Sprintf("%q … %q", string(e.lo), string(e.hi)) }
func (anyExpr) String() string      { return "." }
func (e *classExpr) String() string { return "<" + e.desc + ">" }
func (e *refExpr) String() string   { return e.name }
func (e *seqExpr) String() string   { return "(" + join(e.items, " ") + ")" }
func (e *choiceExpr) String() string {
	return "(" + join(e.alts, " / ") + ")"
}
func (e *starExpr) String() string  { return e.body.String() + "*" }
func (e *plusExpr) String() string  { return e.body.String() + "+" }
func (e *optExpr) String() string   { return e.body.String() + "?" }
func (e *notExpr) String() string   { return "!" + e.body.String() }
func (e *andExpr) String() string   { return "&" + e.body.String() }
func (e *tokenExpr) String() string { return "<" + e.body.String() + ">" }
func (e *hideExpr) String() string  { return "~" + e.body.String() }

func join(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}

func (e *litExpr) nullable(map[string]bool) bool   { return e.text == "" }
func (e *rangeExpr) nullable(map[string]bool) bool { return false }
func (anyExpr) nullable(map[string]bool) bool      { return false }
func (e *classExpr) nullable(map[string]bool) bool { return false }
func (e *refExpr) nullable(rules map[string]bool) bool {
	return rules[e.name]
}
func (e *seqExpr) nullable(rules map[string]bool) bool {
	for _, item := range e.items {
		if !item.nullable(rules) {
			return false
		}
	}
	return true
}
func (e *choiceExpr) nullable(rules map[string]bool) bool {
	for _, alt := range e.alts {
		if alt.nullable(rules) {
			return true
		}
	}
	return false
}
func (e *starExpr) nullable(map[string]bool) bool        { return true }
func (e *plusExpr) nullable(rules map[string]bool) bool  { return e.body.nullable(rules) }
func (e *optExpr) nullable(map[string]bool) bool         { return true }
func (e *notExpr) nullable(map[string]bool) bool         { return true }
func (e *andExpr) nullable(map[string]bool) bool         { return true }
func (e *tokenExpr) nullable(rules map[string]bool) bool { return e.body.nullable(rules) }
func (e *hideExpr) nullable(rules map[string]bool) bool  { return e.body.nullable(rules) }

func (e *litExpr) leftRefs(map[string]bool, func(string))   {}
func (e *rangeExpr) leftRefs(map[string]bool, func(string)) {}
func (anyExpr) leftRefs(map[string]bool, func(string))      {}
func (e *classExpr) leftRefs(map[string]bool, func(string)) {}
func (e *refExpr) leftRefs(_ map[string]bool, fn func(string)) {
	fn(e.name)
}
func (e *seqExpr) leftRefs(rules map[string]bool, fn func(string)) {
	for _, item := range e.items {
		item.leftRefs(rules, fn)
		if !item.nullable(rules) {
			return
		}
	}
}
func (e *choiceExpr) leftRefs(rules map[string]bool, fn func(string)) {
	for _, alt := range e.alts {
		alt.leftRefs(rules, fn)
	}
}
func (e *starExpr) leftRefs(rules map[string]bool, fn func(string))  { e.body.leftRefs(rules, fn) }
func (e *plusExpr) leftRefs(rules map[string]bool, fn func(string))  { e.body.leftRefs(rules, fn) }
func (e *optExpr) leftRefs(rules map[string]bool, fn func(string))   { e.body.leftRefs(rules, fn) }
func (e *notExpr) leftRefs(rules map[string]bool, fn func(string))   { e.body.leftRefs(rules, fn) }
func (e *andExpr) leftRefs(rules map[string]bool, fn func(string))   { e.body.leftRefs(rules, fn) }
func (e *tokenExpr) leftRefs(rules map[string]bool, fn func(string)) { e.body.leftRefs(rules, fn) }
func (e *hideExpr) leftRefs(rules map[string]bool, fn func(string))  { e.body.leftRefs(rules, fn) }

// refs calls fn for every rule referenced anywhere in e.
func refs(e Expr, fn func(name string)) {
	switch x := e.(type) {
	case *refExpr:
		fn(x.name)
	case *seqExpr:
		for _, item := range x.items {
			refs(item, fn)
		}
	case *choiceExpr:
		for _, alt := range x.alts {
			refs(alt, fn)
		}
	case *starExpr:
		refs(x.body, fn)
	case *plusExpr:
		refs(x.body, fn)
	case *optExpr:
		refs(x.body, fn)
	case *notExpr:
		refs(x.body, fn)
	case *andExpr:
		refs(x.body, fn)
	case *tokenExpr:
		refs(x.body, fn)
	case *hideExpr:
		refs(x.body, fn)
	}
}
