package packrat

import (
	"errors"
	"fmt"
)

// Parse applies start to input and returns its value. A failed parse
// returns the selected *ParseError. With WithFullMatch, input left over
// after a successful match is an error too.
func Parse(input []byte, start *Rule, opts ...Option) (any, error) {
	s := New(input, opts...)
	return s.Run(start)
}

// Run applies start at the beginning of the input and checks the result
// the way Parse does. A scanner can only be run once.
func (s *Scanner) Run(start *Rule) (any, error) {
	if s.ran {
		panic("packrat: scanner reused")
	}
	s.ran = true
	v, err := s.Apply(start)
	if err != nil && !errors.Is(err, ErrNoMatch) {
		return nil, err
	}
	if depth := len(s.saved); depth != 0 {
		panic(fmt.Sprintf("packrat: %d save points left after %s", depth, start.Name))
	}
	if err != nil {
		return nil, s.FlushErrors()
	}
	if s.trailing != nil {
		s.Save()
		if _, err := s.Apply(s.trailing); err != nil {
			s.Restore()
			if !errors.Is(err, ErrNoMatch) {
				return nil, err
			}
		} else {
			s.Pop()
		}
	}
	if s.fullMatch && s.pos < len(s.input) {
		if len(s.errs) > 0 && s.errs[0].Pos >= s.pos {
			return nil, s.errs[0]
		}
		return nil, &ParseError{
			Pos:     s.pos,
			End:     len(s.input),
			Message: fmt.Sprintf("unexpected %s after %s", s.found(), start.Name),
		}
	}
	return v, nil
}
