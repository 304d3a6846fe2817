// Package peg compiles parsing expression grammars into packrat rules that
// build concrete syntax trees.
//
// Choice is ordered: the first alternative that matches wins. Rules may be
// left recursive, directly or through other rules.
//
// Rules come in three flavours. Syntactic rules produce an interior node
// named after the rule. Lexical rules produce a single leaf holding the
// matched text. Rules whose name starts with an underscore are hidden:
// their children are spliced into the parent. When a skip rule is set,
// it is applied before every terminal and every lexical rule referenced
// from a syntactic rule.
package peg

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/dhamidi/ibex/packrat"
)

var log = commonlog.GetLogger("ibex.peg")

type ruleDef struct {
	name    string
	expr    Expr
	lexical bool
}

func (d *ruleDef) hidden() bool {
	return strings.HasPrefix(d.name, "_")
}

// Grammar is a set of named rules under construction.
type Grammar struct {
	rules map[string]*ruleDef
	order []string
	skip  string
}

// New returns an empty grammar.
func New() *Grammar {
	return &Grammar{rules: make(map[string]*ruleDef)}
}

// Define adds a syntactic rule.
func (g *Grammar) Define(name string, e Expr) error {
	return g.define(name, e, false)
}

// DefineLexical adds a lexical rule.
func (g *Grammar) DefineLexical(name string, e Expr) error {
	return g.define(name, e, true)
}

func (g *Grammar) define(name string, e Expr, lexical bool) error {
	if name == "" {
		return fmt.Errorf("rule without a name")
	}
	if e == nil {
		return fmt.Errorf("rule %s: no expression", name)
	}
	if _, ok := g.rules[name]; ok {
		return fmt.Errorf("rule %s defined twice", name)
	}
	g.rules[name] = &ruleDef{name: name, expr: e, lexical: lexical}
	g.order = append(g.order, name)
	return nil
}

// SetSkip names the rule used to skip whitespace and comments between
// tokens. An empty name turns skipping off.
func (g *Grammar) SetSkip(name string) {
	g.skip = name
}

// Rules returns the rule names in definition order.
func (g *Grammar) Rules() []string {
	return append([]string(nil), g.order...)
}

// Has reports whether a rule called name is defined.
func (g *Grammar) Has(name string) bool {
	_, ok := g.rules[name]
	return ok
}

// Expr returns the expression of the rule called name.
func (g *Grammar) Expr(name string) (Expr, bool) {
	d, ok := g.rules[name]
	if !ok {
		return nil, false
	}
	return d.expr, true
}

// IsLexical reports whether name is a lexical rule.
func (g *Grammar) IsLexical(name string) bool {
	d, ok := g.rules[name]
	return ok && d.lexical
}

// Undefined returns referenced rule names that have no definition, sorted.
func (g *Grammar) Undefined() []string {
	missing := make(map[string]bool)
	for _, name := range g.order {
		refs(g.rules[name].expr, func(ref string) {
			if _, ok := g.rules[ref]; !ok {
				missing[ref] = true
			}
		})
	}
	if g.skip != "" && !g.Has(g.skip) {
		missing[g.skip] = true
	}
	names := maps.Keys(missing)
	slices.Sort(names)
	return names
}

// Nullable returns the rules that can match the empty string, sorted.
func (g *Grammar) Nullable() []string {
	nullable := g.nullable()
	var names []string
	for name, ok := range nullable {
		if ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func (g *Grammar) nullable() map[string]bool {
	nullable := make(map[string]bool, len(g.rules))
	for changed := true; changed; {
		changed = false
		for _, name := range g.order {
			if !nullable[name] && g.rules[name].expr.nullable(nullable) {
				nullable[name] = true
				changed = true
			}
		}
	}
	return nullable
}

// LeftRecursive returns the rules that can apply themselves before
// consuming any input, sorted.
func (g *Grammar) LeftRecursive() []string {
	nullable := g.nullable()
	edges := make(map[string][]string, len(g.rules))
	for _, name := range g.order {
		g.rules[name].expr.leftRefs(nullable, func(ref string) {
			edges[name] = append(edges[name], ref)
		})
	}

	var names []string
	for _, name := range g.order {
		seen := make(map[string]bool)
		stack := append([]string(nil), edges[name]...)
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if n == name {
				names = append(names, name)
				break
			}
			if seen[n] {
				continue
			}
			seen[n] = true
			stack = append(stack, edges[n]...)
		}
	}
	slices.Sort(names)
	return names
}

// Compile checks the grammar and turns every rule into a packrat rule.
func (g *Grammar) Compile() (*Compiled, error) {
	if missing := g.Undefined(); len(missing) > 0 {
		return nil, fmt.Errorf("undefined rules: %s", strings.Join(missing, ", "))
	}

	c := &compiler{
		grammar: g,
		rules:   packrat.NewRuleSet(),
	}
	if g.skip != "" {
		c.skip = c.rules.Declare(g.skip)
	}
	for _, name := range g.order {
		d := g.rules[name]
		if _, err := c.rules.Define(name, c.ruleBody(d)); err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
	}

	if lr := g.LeftRecursive(); len(lr) > 0 {
		log.Debugf("left-recursive rules: %s", strings.Join(lr, ", "))
	}
	log.Debugf("compiled %d rules", c.rules.Len())

	return &Compiled{grammar: g, rules: c.rules, skip: c.skip}, nil
}

// String renders the grammar in PEG notation.
func (g *Grammar) String() string {
	var b strings.Builder
	for _, name := range g.order {
		d := g.rules[name]
		op := "<-"
		if d.lexical {
			op = "<~"
		}
		fmt.Fprintf(&b, "%s %s %s\n", name, op, d.expr)
	}
	return b.String()
}
