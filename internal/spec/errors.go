package spec

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError describes a single problem with a specification field.
type FieldError struct {
	// Field is the document path of the offending value (e.g. routes[1].path).
	Field string
	// Message explains the problem.
	Message string
}

func (f FieldError) String() string {
	if f.Field == "" {
		return f.Message
	}
	return f.Field + ": " + f.Message
}

// ValidationError reports every problem found in a specification document.
type ValidationError struct {
	// Source is the document path, when known.
	Source string
	// Problems lists the individual field errors in document order.
	Problems []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Problems) == 0 {
		return "invalid service specification"
	}
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.String())
	}
	prefix := "invalid service specification"
	if e.Source != "" {
		prefix = fmt.Sprintf("invalid service specification %s", e.Source)
	}
	return prefix + ": " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Problems = append(e.Problems, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) errOrNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}
