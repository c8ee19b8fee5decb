package draft

import (
	"errors"
	"fmt"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrIndex                = errors.New("index out of range")
)

// ValidationError is a user-facing, recoverable rejection. The draft is unchanged.
type ValidationError struct {
	Section  int // -1 when not tied to a section
	Question int // -1 when not tied to a question
	Msg      string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Section < 0:
		return e.Msg
	case e.Question < 0:
		return fmt.Sprintf("section %d: %s", e.Section+1, e.Msg)
	default:
		return fmt.Sprintf("section %d, question %d: %s", e.Section+1, e.Question+1, e.Msg)
	}
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(msg string) *ValidationError {
	return &ValidationError{Section: -1, Question: -1, Msg: msg}
}

func invalidAt(s, q int, msg string) *ValidationError {
	return &ValidationError{Section: s, Question: q, Msg: msg}
}

// GuardError is returned when a mutation would remove the last matching
// question while restrictions are active. Re-run it confirmed to proceed.
type GuardError struct {
	Op       string
	Section  int
	Question int
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("%s: this is the only question matching students while the survey is restricted; "+
		"a default \"%s\" question will be added if you continue", e.Op, DefaultMatchingText)
}

func (e *GuardError) Unwrap() error { return ErrConfirmationRequired }

type IndexError struct {
	Section  int
	Question int // -1 when the section index itself is out of range
}

func (e *IndexError) Error() string {
	if e.Question < 0 {
		return fmt.Sprintf("section %d: %s", e.Section, ErrIndex)
	}
	return fmt.Sprintf("section %d question %d: %s", e.Section, e.Question, ErrIndex)
}

func (e *IndexError) Unwrap() error { return ErrIndex }
