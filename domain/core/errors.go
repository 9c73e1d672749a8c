package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrInvalidInput covers malformed histories, negative or non-finite
	// times, and out-of-range confidence levels.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerateInput means the risk set was exhausted before the pooled
	// event stream was: a failure is recorded after every system has
	// already left observation.
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrInsufficientData means too few distinct failure times exist to fit
	// a two-parameter model.
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// ErrFitDidNotConverge means the nonlinear solver exceeded its
	// iteration bound without meeting the residual tolerance.
	ErrFitDidNotConverge = errors.New("fit did not converge")
)

// Error constructors with context
func NewInvalidInputError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidInput, field, reason)
}

func NewDegenerateInputError(time float64) error {
	return fmt.Errorf("%w: failure at t=%g with empty risk set", ErrDegenerateInput, time)
}

func NewInsufficientDataError(have, need int) error {
	return fmt.Errorf("%w: have %d distinct failure times, need at least %d", ErrInsufficientData, have, need)
}

func NewConvergenceError(iterations int, rss float64) error {
	return fmt.Errorf("%w: %d iterations, residual sum of squares %g", ErrFitDidNotConverge, iterations, rss)
}

// Error checking helpers
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsDegenerateInput(err error) bool {
	return errors.Is(err, ErrDegenerateInput)
}

func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsConvergenceError(err error) bool {
	return errors.Is(err, ErrFitDidNotConverge)
}
