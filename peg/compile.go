package peg

import (
	"errors"
	"fmt"

	"github.com/dhamidi/ibex/cst"
	"github.com/dhamidi/ibex/packrat"
)

// matcher is a compiled expression. It returns the nodes it produced, or
// packrat.ErrNoMatch with the cursor where it started.
type matcher func(s *packrat.Scanner) ([]*cst.Node, error)

type compiler struct {
	grammar *Grammar
	rules   *packrat.RuleSet
	skip    *packrat.Rule
	lexical bool
}

func (c *compiler) ruleBody(d *ruleDef) packrat.Action {
	c.lexical = d.lexical || d.name == c.grammar.skip
	m := d.expr.compile(c)
	name := d.name
	switch {
	case d.hidden():
		return func(s *packrat.Scanner) (any, error) {
			nodes, err := m(s)
			if err != nil {
				return nil, err
			}
			return nodes, nil
		}
	case d.lexical:
		return func(s *packrat.Scanner) (any, error) {
			begin := s.Pos()
			if _, err := m(s); err != nil {
				return nil, err
			}
			return &cst.Node{
				Kind: name,
				Text: s.Text(begin),
				Span: cst.Span{Start: begin, End: s.Pos()},
			}, nil
		}
	default:
		return func(s *packrat.Scanner) (any, error) {
			begin := s.Pos()
			nodes, err := m(s)
			if err != nil {
				return nil, err
			}
			n := cst.NewNonTerminal(name, begin)
			for _, child := range nodes {
				n.AddChild(child)
			}
			if len(nodes) == 0 {
				n.Span.End = s.Pos()
			}
			return n, nil
		}
	}
}

// skipping reports whether terminals in the rule being compiled are
// preceded by the skip rule.
func (c *compiler) skipping() bool {
	return c.skip != nil && !c.lexical
}

// withSkip applies the skip rule before m, undoing it if m fails.
func (c *compiler) withSkip(m matcher) matcher {
	if !c.skipping() {
		return m
	}
	skip := c.skip
	return func(s *packrat.Scanner) ([]*cst.Node, error) {
		s.Save()
		if _, err := s.Apply(skip); err != nil && !errors.Is(err, packrat.ErrNoMatch) {
			s.Restore()
			return nil, err
		}
		nodes, err := m(s)
		if err != nil {
			s.Restore()
			return nil, err
		}
		return packrat.Accept(s, nodes), nil
	}
}

// leaf turns a terminal match into a token node. Lexical rules discard
// their children, so no node is built for them.
func (c *compiler) leaf(match func(s *packrat.Scanner) error) matcher {
	if c.lexical {
		return func(s *packrat.Scanner) ([]*cst.Node, error) {
			return nil, match(s)
		}
	}
	return c.withSkip(func(s *packrat.Scanner) ([]*cst.Node, error) {
		begin := s.Pos()
		if err := match(s); err != nil {
			return nil, err
		}
		return []*cst.Node{cst.NewTerminal(s.Text(begin), cst.Span{Start: begin, End: s.Pos()})}, nil
	})
}

func (e *litExpr) compile(c *compiler) matcher {
	text := e.text
	return c.leaf(func(s *packrat.Scanner) error {
		_, err := s.MatchString(text)
		return err
	})
}

func (e *rangeExpr) compile(c *compiler) matcher {
	lo, hi := e.lo, e.hi
	return c.leaf(func(s *packrat.Scanner) error {
		_, err := s.MatchRange(lo, hi)
		return err
	})
}

func (anyExpr) compile(c *compiler) matcher {
	return c.leaf(func(s *packrat.Scanner) error {
		_, err := s.MatchAny()
		return err
	})
}

func (e *classExpr) compile(c *compiler) matcher {
	desc, pred := e.desc, e.pred
	return c.leaf(func(s *packrat.Scanner) error {
		_, err := s.MatchFunc(desc, pred)
		return err
	})
}

func (e *refExpr) compile(c *compiler) matcher {
	rule := c.rules.Declare(e.name)
	m := func(s *packrat.Scanner) ([]*cst.Node, error) {
		v, err := s.Apply(rule)
		if err != nil {
			return nil, err
		}
		return asNodes(v), nil
	}
	if c.grammar.IsLexical(e.name) {
		return c.withSkip(m)
	}
	return m
}

func asNodes(v any) []*cst.Node {
	switch x := v.(type) {
	case *cst.Node:
		return []*cst.Node{x}
	case []*cst.Node:
		return x
	case nil:
		return nil
	default:
		panic(fmt.Sprintf("peg: rule produced %T", v))
	}
}

func (e *seqExpr) compile(c *compiler) matcher {
	items := make([]matcher, len(e.items))
	for i, item := range e.items {
		items[i] = item.compile(c)
	}
	return func(s *packrat.Scanner) ([]*cst.Node, error) {
		s.Save()
		var nodes []*cst.Node
		for _, item := range items {
			n, err := item(s)
			if err != nil {
				s.Restore()
				return nil, err
			}
			nodes = append(nodes, n...)
		}
		return packrat.Accept(s, nodes), nil
	}
}

func (e *choiceExpr) compile(c *compiler) matcher {
	alts := make([]matcher, len(e.alts))
	for i, alt := range e.alts {
		alts[i] = alt.compile(c)
	}
	return func(s *packrat.Scanner) ([]*cst.Node, error) {
		for _, alt := range alts {
			s.Save()
			nodes, err := alt(s)
			if err == nil {
				return packrat.Accept(s, nodes), nil
			}
			s.Restore()
			if !errors.Is(err, packrat.ErrNoMatch) {
				return nil, err
			}
		}
		return nil, packrat.ErrNoMatch
	}
}

// repeat matches body until it fails or stops consuming input.
func repeat(s *packrat.Scanner, body matcher, nodes []*cst.Node) ([]*cst.Node, error) {
	for {
		begin := s.Pos()
		s.Save()
		n, err := body(s)
		if err != nil {
			s.Restore()
			if errors.Is(err, packrat.ErrNoMatch) {
				return nodes, nil
			}
			return nil, err
		}
		s.Pop()
		nodes = append(nodes, n...)
		if s.Pos() == begin {
			return nodes, nil
		}
	}
}

func (e *starExpr) compile(c *compiler) matcher {
	body := e.body.compile(c)
	return func(s *packrat.Scanner) ([]*cst.Node, error) {
		return repeat(s, body, nil)
	}
}

func (e *plusExpr) compile(c *compiler) matcher {
	body := e.body.compile(c)
	return func(s *packrat.Scanner) ([]*cst.Node, error) {
		first, err := body(s)
		if err != nil {
			return nil, err
		}
		return repeat(s, body, first)
	}
}

func (e *optExpr) compile(c *compiler) matcher {
	body := e.body.compile(c)
	return func(s *packrat.Scanner) ([]*cst.Node, error) {
		s.Save()
		nodes, err := body(s)
		if err != nil {
			s.Restore()
			if errors.Is(err, packrat.ErrNoMatch) {
				return nil, nil
			}
			return nil, err
		}
		return packrat.Accept(s, nodes), nil
	}
}

func (e *notExpr) compile(c *compiler) matcher {
	body := e.body.compile(c)
	return func(s *packrat.Scanner) ([]*cst.Node, error) {
		s.SaveForLookahead()
		_, err := body(s)
		s.Restore()
		switch {
		case err == nil:
			return nil, s.Fail()
		case errors.Is(err, packrat.ErrNoMatch):
			return nil, nil
		default:
			return nil, err
		}
	}
}

func (e *andExpr) compile(c *compiler) matcher {
	body := e.body.compile(c)
	return func(s *packrat.Scanner) ([]*cst.Node, error) {
		s.SaveForLookahead()
		_, err := body(s)
		s.Restore()
		if err != nil {
			return nil, err
		}
		return nil, nil
	}
}

func (e *tokenExpr) compile(c *compiler) matcher {
	lexical := c.lexical
	c.lexical = true
	body := e.body.compile(c)
	c.lexical = lexical
	return c.leaf(func(s *packrat.Scanner) error {
		_, err := body(s)
		return err
	})
}

func (e *hideExpr) compile(c *compiler) matcher {
	body := e.body.compile(c)
	return func(s *packrat.Scanner) ([]*cst.Node, error) {
		if _, err := body(s); err != nil {
			return nil, err
		}
		return nil, nil
	}
}
