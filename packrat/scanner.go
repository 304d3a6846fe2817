// Package packrat implements a memoizing recursive-descent matching engine
// with support for direct and indirect left recursion.
//
// Parsers are built from rules whose bodies call back into a Scanner: Apply
// for every nonterminal and one of the Match methods for every terminal.
// Each (rule, position) pair is evaluated once and cached, and left
// recursive rules are resolved by growing a seed, following Warth, Douglass
// and Millstein, "Packrat Parsers Can Support Left Recursion" (PEPM 2008).
//
// A Scanner holds all state of one parse and must not be shared between
// goroutines. Scanners over different inputs are independent.
package packrat

import (
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("ibex.packrat")

const (
	noFrame = -1
	noHead  = -1
)

type Option func(*Scanner)

// WithRuleSet makes Call resolve rule names in rules instead of a private
// rule set.
func WithRuleSet(rules *RuleSet) Option {
	return func(s *Scanner) {
		s.rules = rules
	}
}

// WithObserver reports engine events to o.
func WithObserver(o Observer) Option {
	return func(s *Scanner) {
		s.observer = o
	}
}

// WithFullMatch makes Parse fail unless the start rule consumes the whole
// input.
func WithFullMatch() Option {
	return func(s *Scanner) {
		s.fullMatch = true
	}
}

// WithTrailing makes Run apply r after a successful start rule, for
// example to consume trailing whitespace. A failing r is ignored.
func WithTrailing(r *Rule) Option {
	return func(s *Scanner) {
		s.trailing = r
	}
}

// WithLogger replaces the package logger.
func WithLogger(l commonlog.Logger) Option {
	return func(s *Scanner) {
		s.log = l
	}
}

type savePoint struct {
	pos       int
	lookahead bool
}

// Scanner is the match context handed to rule bodies.
type Scanner struct {
	input []byte
	pos   int

	saved   []savePoint
	probing int

	rules     *RuleSet
	memo      []map[RuleID]*memoEntry
	heads     []int
	headArena []*head
	frames    []lrFrame

	errs []*ParseError

	observer  Observer
	fullMatch bool
	trailing  *Rule
	ran       bool
	log       commonlog.Logger
}

// New returns a scanner positioned at the start of input.
func New(input []byte, opts ...Option) *Scanner {
	s := &Scanner{
		input:    input,
		memo:     make([]map[RuleID]*memoEntry, len(input)+1),
		heads:    make([]int, len(input)+1),
		observer: nopObserver{},
		log:      log,
	}
	for i := range s.heads {
		s.heads[i] = noHead
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rules == nil {
		s.rules = NewRuleSet()
	}
	return s
}

// Input returns the input being parsed.
func (s *Scanner) Input() []byte {
	return s.input
}

// Pos returns the current position.
func (s *Scanner) Pos() int {
	return s.pos
}

// Len returns the input length.
func (s *Scanner) Len() int {
	return len(s.input)
}

// AtEnd reports whether the cursor is at the end of input.
func (s *Scanner) AtEnd() bool {
	return s.pos >= len(s.input)
}

// Peek returns the byte at the cursor without consuming it.
func (s *Scanner) Peek() (byte, bool) {
	if s.pos >= len(s.input) {
		return 0, false
	}
	return s.input[s.pos], true
}

// Rest returns the unconsumed input.
func (s *Scanner) Rest() []byte {
	return s.input[s.pos:]
}

// Text returns the input between from and the cursor.
func (s *Scanner) Text(from int) string {
	return string(s.input[from:s.pos])
}

// Save pushes the current position.
func (s *Scanner) Save() {
	s.saved = append(s.saved, savePoint{pos: s.pos})
}

// SaveForLookahead pushes the current position for a zero-width probe.
// Failures are not recorded as diagnostics until the entry is popped.
func (s *Scanner) SaveForLookahead() {
	s.saved = append(s.saved, savePoint{pos: s.pos, lookahead: true})
	s.probing++
}

// Restore pops the most recent save point and moves the cursor back to it.
func (s *Scanner) Restore() {
	s.pos = s.drop().pos
}

// Pop discards the most recent save point and keeps the cursor where it is.
func (s *Scanner) Pop() {
	s.drop()
}

func (s *Scanner) drop() savePoint {
	n := len(s.saved) - 1
	if n < 0 {
		panic("packrat: pop of empty backtracking stack")
	}
	sp := s.saved[n]
	s.saved = s.saved[:n]
	if sp.lookahead {
		s.probing--
	}
	return sp
}

// Depth returns the number of save points on the backtracking stack.
func (s *Scanner) Depth() int {
	return len(s.saved)
}

// Accept pops the most recent save point and returns v unchanged.
func Accept[T any](s *Scanner, v T) T {
	s.Pop()
	return v
}
