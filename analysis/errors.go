package analysis

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures
type Kind int

const (
	// InvalidInput covers empty or unreadable buffers, bad sample rates and
	// rates whose Nyquist frequency cannot hold the configured band
	InvalidInput Kind = iota + 1
	// DesignError means no stable bandpass could be designed
	DesignError
	// ComputationError covers numerical failures, including signals too
	// short for a single spectrogram segment
	ComputationError
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case DesignError:
		return "DesignError"
	case ComputationError:
		return "ComputationError"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is matching on the kind alone
var (
	ErrInvalidInput     = &Error{Kind: InvalidInput}
	ErrDesignError      = &Error{Kind: DesignError}
	ErrComputationError = &Error{Kind: ComputationError}
)

// Error is the single error type returned by the pipeline
type Error struct {
	Kind Kind
	Op   string // Stage that failed, e.g. "design", "spectrogram"
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrInvalidInput) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of a pipeline error, or 0 for anything else
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
