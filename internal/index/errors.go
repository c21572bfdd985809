package index

import (
	"errors"
	"fmt"
)

// ErrEmptyIndex is returned when a build fetched no requirement links at all
var ErrEmptyIndex = errors.New("knowledge graph returned no requirement links")

// BuildError represents a failed index build. The index stays retryable.
type BuildError struct {
	Cause error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("failed to build requirement index: %v", e.Cause)
}

func (e *BuildError) Unwrap() error {
	return e.Cause
}

// Retryable reports that a later EnsureReady may succeed
func (e *BuildError) Retryable() bool {
	return true
}
