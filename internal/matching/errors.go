package matching

import (
	"errors"
	"fmt"
)

// InputError is an invalid profile or option set, rejected before any I/O
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid input in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid input: %s", e.Message)
}

// IsInputError reports whether err is an InputError
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
