package packrat

import (
	"fmt"
	"strconv"
)

// ParseError is a diagnostic for a failed match spanning [Pos, End).
type ParseError struct {
	Pos     int
	End     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Message)
}

func (e *ParseError) contains(other *ParseError) bool {
	return e.Pos <= other.Pos && other.End <= e.End
}

// Errors returns the retained diagnostics, furthest first.
func (s *Scanner) Errors() []*ParseError {
	return append([]*ParseError(nil), s.errs...)
}

// FlushErrors returns the diagnostic for a failed parse: the furthest
// recorded failure, or a parse error spanning the whole input if nothing
// was recorded.
func (s *Scanner) FlushErrors() *ParseError {
	if len(s.errs) > 0 {
		return s.errs[0]
	}
	return &ParseError{Pos: 0, End: len(s.input), Message: "Parse error"}
}

// recordError adds a diagnostic unless a lookahead probe is active. Errors
// whose span lies inside the new one are dropped.
func (s *Scanner) recordError(e *ParseError) {
	if s.probing > 0 {
		return
	}
	kept := s.errs[:0]
	at := -1
	for _, old := range s.errs {
		if e.contains(old) {
			continue
		}
		if at < 0 && old.Pos < e.Pos {
			at = len(kept)
		}
		kept = append(kept, old)
	}
	if at < 0 {
		at = len(kept)
	}
	kept = append(kept, nil)
	copy(kept[at+1:], kept[at:])
	kept[at] = e
	s.errs = kept
}

// expected records a failure to match want at the cursor. The diagnostic
// covers the byte at the cursor only, whatever the width of want, so that it
// never hides a deeper failure.
func (s *Scanner) expected(want string) {
	if s.probing > 0 {
		return
	}
	end := s.pos
	if end < len(s.input) {
		end++
	}
	if name, ok := s.ruleAt(s.pos); ok {
		want = name
	}
	s.recordError(&ParseError{
		Pos:     s.pos,
		End:     end,
		Message: fmt.Sprintf("expected %s, found %s", want, s.found()),
	})
}

// ruleAt returns the innermost in-flight rule that started at pos.
func (s *Scanner) ruleAt(pos int) (string, bool) {
	for i := len(s.frames) - 1; i >= 0 && s.frames[i].start >= pos; i-- {
		if s.frames[i].start == pos {
			return s.frames[i].rule.Name, true
		}
	}
	return "", false
}

func (s *Scanner) found() string {
	if s.pos >= len(s.input) {
		return "end of input"
	}
	return strconv.Quote(string(s.input[s.pos : s.pos+1]))
}
