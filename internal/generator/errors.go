package generator

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched (errors.Is) by every ValidationError.
var ErrInvalidInput = errors.New("invalid generator input")

// ValidationError reports a rejected generator argument.
type ValidationError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("generator: %s=%d: %s", e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidInput) succeed.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(field string, value int, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}
