package packrat

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"
	"golang.org/x/exp/maps"
)

// memoEntry is the cached outcome of a rule at one position. While the rule
// is still being evaluated, frame indexes its lrFrame.
type memoEntry struct {
	result Result
	end    int
	frame  int
}

// lrFrame is an in-flight rule application. The frame below it on the
// stack is its caller.
type lrFrame struct {
	rule  *Rule
	seed  Result
	head  int
	start int
}

// head groups the rules of one left-recursive cycle.
type head struct {
	rule     RuleID
	involved map[RuleID]bool
	eval     map[RuleID]bool
}

// Apply applies r at the current position. On success the cursor is left
// after the match; on failure it is left where it was and ErrNoMatch is
// returned.
func (s *Scanner) Apply(r *Rule) (any, error) {
	if r == nil || r.Body == nil {
		panic(fmt.Sprintf("packrat: apply of undefined rule %v", r))
	}
	begin := s.pos
	m, cached, err := s.recall(r, begin)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return s.evaluate(r, begin)
	}

	s.pos = m.end
	if m.frame != noFrame {
		s.setupLR(m.frame)
		return s.frames[m.frame].seed.unwrap()
	}
	if cached {
		s.observer.MemoHit(r, begin)
	}
	return m.result.unwrap()
}

// Call applies the rule called name, interning it in the scanner's rule set
// with body if it is not known yet.
func (s *Scanner) Call(name string, body Action) (any, error) {
	return s.Apply(s.rules.intern(name, body))
}

func (s *Scanner) memoAt(pos int) map[RuleID]*memoEntry {
	m := s.memo[pos]
	if m == nil {
		m = make(map[RuleID]*memoEntry)
		s.memo[pos] = m
	}
	return m
}

// eval runs the body of r once. A failed body leaves the cursor at begin.
func (s *Scanner) eval(r *Rule) (Result, error) {
	begin := s.pos
	s.observer.RuleEvaluated(r, begin)
	v, err := r.Body(s)
	if err != nil {
		s.pos = begin
		if errors.Is(err, ErrNoMatch) {
			return Failure, nil
		}
		return Failure, err
	}
	return Success(v), nil
}

func (s *Scanner) evaluate(r *Rule, begin int) (any, error) {
	fi := len(s.frames)
	s.frames = append(s.frames, lrFrame{rule: r, seed: Failure, head: noHead, start: begin})
	m := &memoEntry{result: Failure, end: begin, frame: fi}
	s.memoAt(begin)[r.ID] = m

	res, err := s.eval(r)
	frame := s.frames[fi]
	s.frames = s.frames[:fi]
	if err != nil {
		delete(s.memo[begin], r.ID)
		return nil, err
	}

	m.end = s.pos
	m.frame = noFrame
	m.result = res
	if frame.head == noHead {
		return res.unwrap()
	}
	return s.lrAnswer(r, begin, m, frame.head)
}

// recall looks up the memo entry for r at begin. While a seed is growing at
// begin, rules outside the recursive cycle fail without being evaluated and
// every involved rule is evaluated once per growth iteration. cached is false
// when the entry was produced by recall itself.
func (s *Scanner) recall(r *Rule, begin int) (m *memoEntry, cached bool, err error) {
	m = s.memo[begin][r.ID]
	hi := s.heads[begin]
	if hi == noHead {
		return m, true, nil
	}
	h := s.headArena[hi]
	if m == nil && r.ID != h.rule && !h.involved[r.ID] {
		return &memoEntry{result: Failure, end: begin, frame: noFrame}, false, nil
	}
	if !h.eval[r.ID] {
		return m, true, nil
	}
	delete(h.eval, r.ID)
	res, err := s.eval(r)
	if err != nil {
		return nil, false, err
	}
	if m == nil {
		m = &memoEntry{frame: noFrame}
		s.memoAt(begin)[r.ID] = m
	}
	m.result = res
	m.end = s.pos
	s.pos = begin
	return m, false, nil
}

// setupLR marks every frame above fi as part of the left-recursive cycle
// headed by the rule of frame fi.
func (s *Scanner) setupLR(fi int) {
	f := &s.frames[fi]
	if f.head == noHead {
		f.head = len(s.headArena)
		s.headArena = append(s.headArena, &head{
			rule:     f.rule.ID,
			involved: make(map[RuleID]bool),
			eval:     make(map[RuleID]bool),
		})
		s.observer.LeftRecursion(f.rule, f.start)
		if s.log.AllowLevel(commonlog.Debug) {
			s.log.Debugf("left recursion in %s at %d", f.rule.Name, f.start)
		}
	}
	h := s.headArena[f.head]
	for i := len(s.frames) - 1; i > fi && s.frames[i].head != f.head; i-- {
		s.frames[i].head = f.head
		h.involved[s.frames[i].rule.ID] = true
	}
}

// lrAnswer settles a frame that was re-entered while it was evaluated.
// Only the head of the cycle grows its seed; involved rules keep theirs.
func (s *Scanner) lrAnswer(r *Rule, begin int, m *memoEntry, hi int) (any, error) {
	h := s.headArena[hi]
	if h.rule != r.ID || !m.result.OK {
		return m.result.unwrap()
	}
	s.observer.SeedGrown(r, begin, m.end)
	return s.growLR(r, begin, m, h, hi)
}

// growLR re-evaluates the head rule at begin until its match stops getting
// longer. Every accepted iteration ends strictly further, so the loop runs
// at most len(input)-begin+1 times.
func (s *Scanner) growLR(r *Rule, begin int, m *memoEntry, h *head, hi int) (any, error) {
	prev := s.heads[begin]
	s.heads[begin] = hi
	defer func() {
		s.heads[begin] = prev
	}()

	for {
		s.pos = begin
		h.eval = maps.Clone(h.involved)
		res, err := s.eval(r)
		if err != nil {
			return nil, err
		}
		if !res.OK || s.pos <= m.end {
			break
		}
		m.result = res
		m.end = s.pos
		s.observer.SeedGrown(r, begin, m.end)
		if s.log.AllowLevel(commonlog.Debug) {
			s.log.Debugf("grew %s at %d to %d", r.Name, begin, m.end)
		}
	}
	s.pos = m.end
	return m.result.unwrap()
}
