package lti

import "errors"

// Domain errors for transfer-function operations.
var (
	// ErrInvalidSystem indicates a denominator that is empty or identically zero.
	ErrInvalidSystem = errors.New("lti: invalid system (denominator is zero)")

	// ErrNonCausal indicates a numerator degree above the denominator degree.
	ErrNonCausal = errors.New("lti: non-causal system (numerator degree exceeds denominator degree)")

	// ErrInvalidSampleTime indicates a sample period that is not positive.
	ErrInvalidSampleTime = errors.New("lti: sample time must be positive")

	// ErrSingularEvaluation indicates evaluation at (or numerically on) a pole.
	ErrSingularEvaluation = errors.New("lti: evaluation at a pole")

	// ErrNumericalFailure indicates that root finding or a linear solve did not converge.
	ErrNumericalFailure = errors.New("lti: numerical failure")
)

// Error wraps a domain error with the operation that produced it.
type Error struct {
	Op      string
	Detail  string
	Wrapped error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Wrapped.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

func opError(op string, err error, detail string) error {
	return &Error{Op: op, Detail: detail, Wrapped: err}
}
