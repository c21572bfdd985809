package resolver

import (
	"errors"
	"fmt"
)

// Input errors
var (
	ErrEmptyTerm  = errors.New("search term is empty after normalization")
	ErrInvalidURI = errors.New("concept URI must be an absolute http(s) URL")
)

// StoreError represents a failure of the label store during resolution.
// The whole resolution fails; later tiers are not tried.
type StoreError struct {
	Op    string // tier or operation that failed
	Term  string
	Cause error
}

func (e *StoreError) Error() string {
	if e.Term != "" {
		return fmt.Sprintf("label store %s failed for %q: %v", e.Op, e.Term, e.Cause)
	}
	return fmt.Sprintf("label store %s failed: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Retryable reports that store outages may be retried
func (e *StoreError) Retryable() bool {
	return true
}
