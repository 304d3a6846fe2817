package packrat

import (
	"fmt"
	"strconv"
)

// MatchByte consumes b.
func (s *Scanner) MatchByte(b byte) (byte, error) {
	if s.pos < len(s.input) && s.input[s.pos] == b {
		s.pos++
		return b, nil
	}
	s.expected(strconv.Quote(string([]byte{b})))
	return 0, ErrNoMatch
}

// MatchRange consumes one byte in [lo, hi].
func (s *Scanner) MatchRange(lo, hi byte) (byte, error) {
	if s.pos < len(s.input) {
		if b := s.input[s.pos]; lo <= b && b <= hi {
			s.pos++
			return b, nil
		}
	}
	s.expected(fmt.Sprintf("%q…%q", string([]byte{lo}), string([]byte{hi})))
	return 0, ErrNoMatch
}

// MatchAny consumes one byte.
func (s *Scanner) MatchAny() (byte, error) {
	if s.pos < len(s.input) {
		b := s.input[s.pos]
		s.pos++
		return b, nil
	}
	s.expected("any character")
	return 0, ErrNoMatch
}

// MatchString consumes lit.
func (s *Scanner) MatchString(lit string) (string, error) {
	end := s.pos + len(lit)
	if end <= len(s.input) && string(s.input[s.pos:end]) == lit {
		s.pos = end
		return lit, nil
	}
	s.expected(strconv.Quote(lit))
	return "", ErrNoMatch
}

// MatchFunc consumes one byte accepted by pred. desc names the byte class
// in diagnostics.
func (s *Scanner) MatchFunc(desc string, pred func(byte) bool) (byte, error) {
	if s.pos < len(s.input) {
		if b := s.input[s.pos]; pred(b) {
			s.pos++
			return b, nil
		}
	}
	s.expected(desc)
	return 0, ErrNoMatch
}

// Fail returns the local failure signal without recording a diagnostic.
func (s *Scanner) Fail() error {
	return ErrNoMatch
}

// Failf records a diagnostic at the cursor and returns the local failure
// signal. Semantic predicates use it to explain a rejection.
func (s *Scanner) Failf(format string, args ...any) error {
	end := s.pos
	if end < len(s.input) {
		end++
	}
	s.recordError(&ParseError{Pos: s.pos, End: end, Message: fmt.Sprintf(format, args...)})
	return ErrNoMatch
}
