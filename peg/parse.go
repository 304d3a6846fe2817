package peg

import (
	"fmt"

	"github.com/dhamidi/ibex/cst"
	"github.com/dhamidi/ibex/packrat"
)

type Option func(*parseConfig)

type parseConfig struct {
	partial  bool
	observer packrat.Observer
}

// WithPartial accepts a match of the start rule that does not reach the end
// of the input.
func WithPartial() Option {
	return func(c *parseConfig) {
		c.partial = true
	}
}

// WithObserver reports engine events of the parse to o.
func WithObserver(o packrat.Observer) Option {
	return func(c *parseConfig) {
		c.observer = o
	}
}

// Compiled is a grammar ready for parsing. It is immutable and may be used
// by several goroutines at once.
type Compiled struct {
	grammar *Grammar
	rules   *packrat.RuleSet
	skip    *packrat.Rule
}

// Grammar returns the grammar c was compiled from.
func (c *Compiled) Grammar() *Grammar {
	return c.grammar
}

// RuleSet returns the packrat rules of the grammar.
func (c *Compiled) RuleSet() *packrat.RuleSet {
	return c.rules
}

// Parse parses input starting with the rule called start. Failures are
// reported as *packrat.ParseError.
func (c *Compiled) Parse(input []byte, start string, opts ...Option) (*cst.Node, error) {
	rule, ok := c.rules.Lookup(start)
	if !ok || rule.Body == nil {
		return nil, fmt.Errorf("rule %q not found in grammar", start)
	}

	var cfg parseConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	popts := []packrat.Option{packrat.WithRuleSet(c.rules)}
	if !cfg.partial {
		popts = append(popts, packrat.WithFullMatch())
	}
	if cfg.observer != nil {
		popts = append(popts, packrat.WithObserver(cfg.observer))
	}
	if c.skip != nil {
		popts = append(popts, packrat.WithTrailing(c.skip))
	}

	v, err := packrat.Parse(input, rule, popts...)
	if err != nil {
		return nil, err
	}
	if n, ok := v.(*cst.Node); ok {
		return n, nil
	}
	root := cst.NewNonTerminal(start, 0)
	for _, child := range asNodes(v) {
		root.AddChild(child)
	}
	return root, nil
}
