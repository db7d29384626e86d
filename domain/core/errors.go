package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Invocation-aborting errors. Any of these discards the whole request.
	ErrStaleSource = errors.New("catdist: data source invalidated during computation")
	ErrSizeLimit   = errors.New("catdist: input exceeds configured size limit")
	ErrTimeout     = errors.New("catdist: computation exceeded time budget")

	// Input errors
	ErrInvalidSettings  = errors.New("catdist: invalid chart settings")
	ErrInvalidDomain    = errors.New("catdist: invalid axis domain")
	ErrInsufficientData = errors.New("catdist: insufficient data for analysis")
)

// SizeLimitError reports which ceiling was crossed and by how much.
type SizeLimitError struct {
	What  string
	Count int
	Limit int
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("too many %s: %d exceeds limit %d", e.What, e.Count, e.Limit)
}

func (e *SizeLimitError) Unwrap() error {
	return ErrSizeLimit
}

// Error constructors with context
func NewSizeLimitError(what string, count, limit int) error {
	return &SizeLimitError{What: what, Count: count, Limit: limit}
}

func NewStaleSourceError(stage string) error {
	return fmt.Errorf("%w (while computing %s)", ErrStaleSource, stage)
}

func NewTimeoutError(stage string, cause error) error {
	return fmt.Errorf("%w (while computing %s): %v", ErrTimeout, stage, cause)
}

// Error checking helpers
func IsStaleSource(err error) bool {
	return errors.Is(err, ErrStaleSource)
}

func IsSizeLimit(err error) bool {
	return errors.Is(err, ErrSizeLimit)
}

func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsAbort reports whether err must discard the entire pipeline invocation.
func IsAbort(err error) bool {
	return IsStaleSource(err) || IsSizeLimit(err) || IsTimeout(err)
}
