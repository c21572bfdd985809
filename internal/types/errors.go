package types

import "errors"

// retryable is implemented by infrastructure errors that a caller may retry.
type retryable interface {
	Retryable() bool
}

// IsRetryable reports whether any error in err's chain declares itself retryable.
func IsRetryable(err error) bool {
	for err != nil {
		if r, ok := err.(retryable); ok && r.Retryable() {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
