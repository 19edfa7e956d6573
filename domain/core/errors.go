package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors, fatal before any simulation work starts
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrTermNotFound     = errors.New("model term not found")

	// Per-replication errors, recoverable inside the grid
	ErrFitDidNotConverge = errors.New("model fit did not converge")
	ErrFitTimeout        = fmt.Errorf("%w: fit timed out", ErrFitDidNotConverge)

	// Power curve errors
	ErrOutOfRange          = errors.New("sample size out of interpolation range")
	ErrThresholdNotReached = errors.New("no sample size reaches the power threshold")
	ErrNoOutcomes          = errors.New("no successful replications")
)

// Error constructors with context
func NewInvalidParameterError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidParameter, field, reason)
}

func NewTermNotFoundError(selector string, available []string) error {
	return fmt.Errorf("%w: selector %q matched none of %v", ErrTermNotFound, selector, available)
}

func NewConvergenceError(cause error) error {
	return fmt.Errorf("%w: %v", ErrFitDidNotConverge, cause)
}

func NewOutOfRangeError(n, min, max int) error {
	return fmt.Errorf("%w: n=%d outside [%d, %d]", ErrOutOfRange, n, min, max)
}

// Error checking helpers
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidParameter) || errors.Is(err, ErrTermNotFound)
}

func IsRecoverable(err error) bool {
	return errors.Is(err, ErrFitDidNotConverge)
}
