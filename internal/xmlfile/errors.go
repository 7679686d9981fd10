package xmlfile

import (
	"errors"
	"fmt"
)

var (
	// ErrIO matches any *IOError via errors.Is.
	ErrIO = errors.New("xmlfile: i/o failure")

	// ErrParse matches any *ParseError via errors.Is.
	ErrParse = errors.New("xmlfile: malformed document")
)

// IOError reports that the sink or source failed.
type IOError struct {
	Op  string // "write" or "read"
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("xmlfile: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is reports whether target is ErrIO.
func (e *IOError) Is(target error) bool { return target == ErrIO }

// ParseError reports a malformed token stream. Line is 1-based, or 0 when
// the position is unknown.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("xmlfile: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("xmlfile: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }
