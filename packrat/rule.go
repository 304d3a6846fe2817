package packrat

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoMatch is the local failure signal returned by matchers and rule
// bodies. It never escapes Apply: the engine turns it into a memoized
// failure for the rule that produced it.
var ErrNoMatch = errors.New("no match")

// Action is the body of a rule. It reads input through the scanner and
// returns the rule's value, ErrNoMatch on failure, or any other error to
// abort the parse.
type Action func(s *Scanner) (any, error)

// RuleID identifies a rule inside a RuleSet. Memoization is keyed by id.
type RuleID int

// Rule is a named grammar nonterminal.
type Rule struct {
	ID   RuleID
	Name string
	Body Action
}

func (r *Rule) String() string {
	return r.Name
}

// Result is the outcome of applying a rule.
type Result struct {
	Value any
	OK    bool
}

// Failure is the result of a rule that did not match.
var Failure = Result{}

// Success wraps a matched value.
func Success(v any) Result {
	return Result{Value: v, OK: true}
}

func (r Result) unwrap() (any, error) {
	if !r.OK {
		return nil, ErrNoMatch
	}
	return r.Value, nil
}

// RuleSet interns rule names. Every name maps to exactly one Rule, so all
// references to a nonterminal share a memo key no matter where they are
// created. A RuleSet may be shared by scanners running in parallel.
type RuleSet struct {
	mu     sync.RWMutex
	byName map[string]*Rule
	rules  []*Rule
}

// NewRuleSet returns an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{byName: make(map[string]*Rule)}
}

// Declare returns the rule called name, creating it without a body if it
// does not exist yet. Bodies are attached later with Define, which allows
// mutually recursive rules to refer to each other.
func (rs *RuleSet) Declare(name string) *Rule {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.declare(name)
}

func (rs *RuleSet) declare(name string) *Rule {
	if r, ok := rs.byName[name]; ok {
		return r
	}
	r := &Rule{ID: RuleID(len(rs.rules)), Name: name}
	rs.byName[name] = r
	rs.rules = append(rs.rules, r)
	return r
}

// Define attaches body to the rule called name. Defining the same name
// twice is an error: two different nonterminals must never share a memo
// key.
func (rs *RuleSet) Define(name string, body Action) (*Rule, error) {
	if body == nil {
		return nil, fmt.Errorf("rule %q: nil body", name)
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	r := rs.declare(name)
	if r.Body != nil {
		return nil, fmt.Errorf("rule %q defined twice", name)
	}
	r.Body = body
	return r, nil
}

// MustDefine is like Define but panics on error.
func (rs *RuleSet) MustDefine(name string, body Action) *Rule {
	r, err := rs.Define(name, body)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the rule called name.
func (rs *RuleSet) Lookup(name string) (*Rule, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	r, ok := rs.byName[name]
	return r, ok
}

// Undefined returns the names of declared rules that have no body.
func (rs *RuleSet) Undefined() []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	var names []string
	for _, r := range rs.rules {
		if r.Body == nil {
			names = append(names, r.Name)
		}
	}
	return names
}

// Len returns the number of interned rules.
func (rs *RuleSet) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.rules)
}

// intern resolves name for Call. A body given at the call site is only used
// when the rule has none yet.
func (rs *RuleSet) intern(name string, body Action) *Rule {
	rs.mu.RLock()
	r, ok := rs.byName[name]
	done := ok && r.Body != nil
	rs.mu.RUnlock()
	if done {
		return r
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	r = rs.declare(name)
	if r.Body == nil {
		r.Body = body
	}
	return r
}
