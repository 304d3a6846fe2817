package packrat

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// The helpers below produce rule bodies the way a parser generator would:
// every alternative is wrapped in Save/Restore and every success pops its
// save point.

func ref(r **Rule) Action {
	return func(s *Scanner) (any, error) {
		return s.Apply(*r)
	}
}

func char(b byte) Action {
	return func(s *Scanner) (any, error) {
		v, err := s.MatchByte(b)
		if err != nil {
			return nil, err
		}
		return string(v), nil
	}
}

func str(lit string) Action {
	return func(s *Scanner) (any, error) {
		return s.MatchString(lit)
	}
}

func seq(items ...Action) Action {
	return func(s *Scanner) (any, error) {
		s.Save()
		var parts []string
		for _, item := range items {
			v, err := item(s)
			if err != nil {
				s.Restore()
				return nil, err
			}
			parts = append(parts, fmt.Sprint(v))
		}
		return Accept(s, "("+strings.Join(parts, " ")+")"), nil
	}
}

func choice(alts ...Action) Action {
	return func(s *Scanner) (any, error) {
		for _, alt := range alts {
			s.Save()
			v, err := alt(s)
			if err == nil {
				return Accept(s, v), nil
			}
			s.Restore()
			if !errors.Is(err, ErrNoMatch) {
				return nil, err
			}
		}
		return nil, ErrNoMatch
	}
}

func not(body Action) Action {
	return func(s *Scanner) (any, error) {
		s.SaveForLookahead()
		_, err := body(s)
		s.Restore()
		if err == nil {
			return nil, s.Fail()
		}
		if !errors.Is(err, ErrNoMatch) {
			return nil, err
		}
		return nil, nil
	}
}

func and(body Action) Action {
	return func(s *Scanner) (any, error) {
		s.SaveForLookahead()
		_, err := body(s)
		s.Restore()
		return nil, err
	}
}

func TestApply_LeftAssociativeSum(t *testing.T) {
	rs := NewRuleSet()
	var E, N *Rule
	E = rs.MustDefine("E", func(s *Scanner) (any, error) {
		s.Save()
		if l, err := s.Apply(E); err == nil {
			if _, err := s.MatchByte('+'); err == nil {
				if r, err := s.Apply(N); err == nil {
					return Accept(s, fmt.Sprintf("(%v+%v)", l, r)), nil
				}
			}
		}
		s.Restore()
		return s.Apply(N)
	})
	N = rs.MustDefine("N", func(s *Scanner) (any, error) {
		b, err := s.MatchRange('1', '3')
		if err != nil {
			return nil, err
		}
		return string(b), nil
	})

	counter := NewCounter()
	s := New([]byte("1+2+3"), WithObserver(counter))
	v, err := s.Apply(E)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if v != "((1+2)+3)" {
		t.Errorf("got %v, want ((1+2)+3)", v)
	}
	if s.Pos() != 5 {
		t.Errorf("consumed %d bytes, want 5", s.Pos())
	}
	if counter.Recursions["E"] != 1 {
		t.Errorf("left recursion detected %d times, want 1", counter.Recursions["E"])
	}
	if s.Depth() != 0 {
		t.Errorf("backtracking stack depth %d after parse", s.Depth())
	}
}

func TestApply_IndirectLeftRecursion(t *testing.T) {
	tests := []struct {
		start string
		input string
		want  string
		end   int
	}{
		{"B", "ab", "(a b)", 2},
		{"A", "ab", "a", 1},
		{"A", "aba", "((a b) a)", 3},
		{"A", "a", "a", 1},
		{"B", "b", "b", 1},
		{"B", "bab", "((b a) b)", 3},
	}

	for _, tt := range tests {
		t.Run(tt.start+"/"+tt.input, func(t *testing.T) {
			rs := NewRuleSet()
			var A, B *Rule
			A = rs.MustDefine("A", choice(seq(ref(&B), char('a')), char('a')))
			B = rs.MustDefine("B", choice(seq(ref(&A), char('b')), char('b')))

			start, _ := rs.Lookup(tt.start)
			s := New([]byte(tt.input))
			v, err := s.Apply(start)
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			if s.Pos() != tt.end {
				t.Errorf("consumed %d bytes, want %d", s.Pos(), tt.end)
			}
			if v != tt.want {
				t.Errorf("got %v, want %v", v, tt.want)
			}
			if s.Depth() != 0 {
				t.Errorf("backtracking stack depth %d after parse", s.Depth())
			}
		})
	}
}

func TestApply_SeedGrowsMonotonically(t *testing.T) {
	rs := NewRuleSet()
	var A *Rule
	A = rs.MustDefine("A", choice(seq(ref(&A), char('x')), char('x')))

	counter := NewCounter()
	s := New([]byte("xxx"), WithObserver(counter))
	if _, err := s.Apply(A); err != nil {
		t.Fatalf("apply: %v", err)
	}

	seeds := counter.Seeds["A"]
	if len(seeds) != 3 {
		t.Fatalf("got %d seeds %v, want 3", len(seeds), seeds)
	}
	for i := 1; i < len(seeds); i++ {
		if seeds[i] <= seeds[i-1] {
			t.Errorf("seed %d ends at %d, not after %d", i, seeds[i], seeds[i-1])
		}
	}
	if seeds[2] != 3 {
		t.Errorf("last seed ends at %d, want 3", seeds[2])
	}
	// One evaluation produces the first seed, two grow it and the last one
	// makes no progress.
	if got := counter.Evaluations["A"]; got != 4 {
		t.Errorf("A evaluated %d times, want 4", got)
	}
}

func TestApply_GrowthSkipsRulesOutsideTheCycle(t *testing.T) {
	rs := NewRuleSet()
	var A, Z *Rule
	A = rs.MustDefine("A", choice(
		seq(and(seq(ref(&A), char('!'))), ref(&Z)),
		seq(ref(&A), char('x')),
		char('x'),
	))
	Z = rs.MustDefine("Z", char('x'))

	counter := NewCounter()
	s := New([]byte("x!"), WithObserver(counter))
	v, err := s.Apply(A)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if v != "x" || s.Pos() != 1 {
		t.Errorf("got %v up to %d, want x up to 1", v, s.Pos())
	}
	if n := counter.Evaluations["Z"]; n != 0 {
		t.Errorf("Z evaluated %d times while A was growing, want 0", n)
	}
	if n := counter.Hits["Z"]; n != 0 {
		t.Errorf("Z reported %d memo hits, want 0", n)
	}
}

func TestApply_ReevaluatedInvolvedRuleIsNotAMemoHit(t *testing.T) {
	rs := NewRuleSet()
	var A, B *Rule
	A = rs.MustDefine("A", choice(seq(ref(&B), char('a')), char('a')))
	B = rs.MustDefine("B", choice(seq(ref(&A), char('b')), char('b')))

	counter := NewCounter()
	s := New([]byte("aba"), WithObserver(counter))
	if _, err := s.Apply(A); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if n := counter.Evaluations["B"]; n != 3 {
		t.Errorf("B evaluated %d times, want 3", n)
	}
	if n := counter.Hits["B"]; n != 0 {
		t.Errorf("B reported %d memo hits, want 0", n)
	}
}

func TestApply_MemoizesRuleAtPosition(t *testing.T) {
	rs := NewRuleSet()
	calls := 0
	var X *Rule
	X = rs.MustDefine("X", func(s *Scanner) (any, error) {
		calls++
		return s.MatchByte('a')
	})
	S := rs.MustDefine("S", choice(seq(ref(&X), char('b')), seq(ref(&X), char('c')), seq(ref(&X), char('d'))))

	counter := NewCounter()
	s := New([]byte("ad"), WithObserver(counter))
	if _, err := s.Apply(S); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if calls != 1 {
		t.Errorf("X body ran %d times, want 1", calls)
	}
	if counter.Hits["X"] != 2 {
		t.Errorf("X answered from memo %d times, want 2", counter.Hits["X"])
	}
}

func TestApply_OrderedChoiceIsNotLongestMatch(t *testing.T) {
	rs := NewRuleSet()
	S := rs.MustDefine("S", choice(char('a'), str("ab")))

	s := New([]byte("ab"))
	v, err := s.Apply(S)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if v != "a" || s.Pos() != 1 {
		t.Errorf("got %v ending at %d, want a ending at 1", v, s.Pos())
	}

	if _, err := Parse([]byte("ab"), S, WithFullMatch()); err == nil {
		t.Error("full match of 'a' / \"ab\" on ab should fail")
	}
}

func TestApply_NegativeLookahead(t *testing.T) {
	rs := NewRuleSet()
	S := rs.MustDefine("S", seq(not(char('b')), char('a')))

	s := New([]byte("ab"))
	if _, err := s.Apply(S); err != nil {
		t.Fatalf("apply on ab: %v", err)
	}
	if s.Pos() != 1 {
		t.Errorf("consumed %d bytes, want 1", s.Pos())
	}

	s = New([]byte("ba"))
	if _, err := s.Apply(S); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("apply on ba: got %v, want ErrNoMatch", err)
	}
	if s.Pos() != 0 {
		t.Errorf("cursor at %d after failure, want 0", s.Pos())
	}
	if errs := s.Errors(); len(errs) != 0 {
		t.Errorf("lookahead recorded diagnostics: %v", errs)
	}
	if e := s.FlushErrors(); e.Pos != 0 || e.End != 2 || e.Message != "Parse error" {
		t.Errorf("got %+v, want whole-input parse error", e)
	}
}

func TestApply_LookaheadSuppressesOnlyWhileActive(t *testing.T) {
	rs := NewRuleSet()
	S := rs.MustDefine("S", seq(not(char('b')), char('a')))

	s := New([]byte("ca"))
	if _, err := s.Apply(S); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("got %v, want ErrNoMatch", err)
	}
	errs := s.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(errs))
	}
	if want := `expected S, found "c"`; errs[0].Message != want {
		t.Errorf("got %q, want %q", errs[0].Message, want)
	}
}

func TestApply_StackBalanced(t *testing.T) {
	rs := NewRuleSet()
	var E, T *Rule
	E = rs.MustDefine("E", choice(seq(ref(&E), char('+'), ref(&T)), ref(&T)))
	T = rs.MustDefine("T", choice(seq(char('('), ref(&E), char(')')), char('n')))

	for _, input := range []string{"n", "n+n", "(n+n)+n", "", "+", "(n+", "n+(n+(n", "))"} {
		s := New([]byte(input))
		s.Apply(E)
		if s.Depth() != 0 {
			t.Errorf("%q: backtracking stack depth %d after parse", input, s.Depth())
		}
	}
}

func TestFlushErrors_FurthestFailure(t *testing.T) {
	rs := NewRuleSet()
	A := rs.MustDefine("A", seq(char('a'), char('b'), char('X')))
	B := rs.MustDefine("B", seq(char('a'), char('b'), char('c'), char('d'), char('e'), char('Y')))
	S := rs.MustDefine("S", choice(ref(&A), ref(&B)))

	_, err := Parse([]byte("abcdeZ"), S)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want *ParseError", err)
	}
	if pe.Pos != 5 {
		t.Errorf("reported failure at %d, want 5", pe.Pos)
	}
	if want := `expected "Y", found "Z"`; pe.Message != want {
		t.Errorf("got %q, want %q", pe.Message, want)
	}
}

func TestFlushErrors_LongLiteralDoesNotHideDeeperFailure(t *testing.T) {
	rs := NewRuleSet()
	A := rs.MustDefine("A", seq(char('a'), char('b'), char('c'), char('d'), char('e'), char('Y')))
	B := rs.MustDefine("B", seq(char('a'), char('b'), str("cdefgh")))
	S := rs.MustDefine("S", choice(ref(&A), ref(&B)))

	_, err := Parse([]byte("abcdeZ"), S)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want *ParseError", err)
	}
	if pe.Pos != 5 || pe.End != 6 {
		t.Errorf("reported failure at [%d, %d), want [5, 6)", pe.Pos, pe.End)
	}
	if want := `expected "Y", found "Z"`; pe.Message != want {
		t.Errorf("got %q, want %q", pe.Message, want)
	}
}

func TestFlushErrors_NamesRuleStartingAtFailure(t *testing.T) {
	rs := NewRuleSet()
	var N *Rule
	N = rs.MustDefine("N", choice(char('1'), char('2')))
	S := rs.MustDefine("S", seq(char('('), ref(&N), char(')')))

	_, err := Parse([]byte("(x)"), S)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want *ParseError", err)
	}
	if want := `expected N, found "x"`; pe.Pos != 1 || pe.Message != want {
		t.Errorf("got %d %q, want 1 %q", pe.Pos, pe.Message, want)
	}
}

func TestRecordError_PrunesContainedSpans(t *testing.T) {
	s := New([]byte("abcdef"))
	s.recordError(&ParseError{Pos: 2, End: 3, Message: "inner"})
	s.recordError(&ParseError{Pos: 4, End: 5, Message: "far"})
	s.recordError(&ParseError{Pos: 1, End: 4, Message: "outer"})

	errs := s.Errors()
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2", len(errs))
	}
	if errs[0].Message != "far" || errs[1].Message != "outer" {
		t.Errorf("got %q, %q; want far, outer", errs[0].Message, errs[1].Message)
	}
}

func TestParse_FullMatch(t *testing.T) {
	rs := NewRuleSet()
	S := rs.MustDefine("S", str("ab"))

	if v, err := Parse([]byte("ab"), S, WithFullMatch()); err != nil || v != "ab" {
		t.Errorf("got %v, %v; want ab", v, err)
	}
	_, err := Parse([]byte("abc"), S, WithFullMatch())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want *ParseError", err)
	}
	if pe.Pos != 2 {
		t.Errorf("leftover reported at %d, want 2", pe.Pos)
	}
}

func TestParse_AbortErrorPropagates(t *testing.T) {
	errBoom := errors.New("boom")
	rs := NewRuleSet()
	var Inner *Rule
	Inner = rs.MustDefine("Inner", func(s *Scanner) (any, error) {
		return nil, errBoom
	})
	S := rs.MustDefine("S", choice(ref(&Inner), char('a')))

	_, err := Parse([]byte("a"), S)
	if !errors.Is(err, errBoom) {
		t.Errorf("got %v, want boom", err)
	}
}

func TestCall_SharesMemoByName(t *testing.T) {
	calls := 0
	digit := func(s *Scanner) (any, error) {
		calls++
		return s.MatchRange('0', '9')
	}
	other := func(s *Scanner) (any, error) {
		t.Error("second body for the same rule name was run")
		return nil, ErrNoMatch
	}

	s := New([]byte("7"))
	s.Save()
	if _, err := s.Call("Digit", digit); err != nil {
		t.Fatalf("call: %v", err)
	}
	s.Restore()
	if _, err := s.Call("Digit", other); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if calls != 1 {
		t.Errorf("digit body ran %d times, want 1", calls)
	}
}

func TestRuleSet_RejectsDuplicateNames(t *testing.T) {
	rs := NewRuleSet()
	if _, err := rs.Define("A", char('a')); err != nil {
		t.Fatalf("define: %v", err)
	}
	if _, err := rs.Define("A", char('b')); err == nil {
		t.Error("second definition of A should fail")
	}
	a1 := rs.Declare("A")
	a2, _ := rs.Lookup("A")
	if a1 != a2 {
		t.Error("Declare and Lookup returned different rules for A")
	}
	rs.Declare("Missing")
	if got := rs.Undefined(); len(got) != 1 || got[0] != "Missing" {
		t.Errorf("got undefined %v, want [Missing]", got)
	}
}
