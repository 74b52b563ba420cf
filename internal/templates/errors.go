package templates

import (
	"errors"
	"fmt"
	"strings"
)

// UnknownTemplateError is returned when a template identifier is not registered.
type UnknownTemplateError struct {
	// Name is the identifier that was requested.
	Name string
	// Available lists the registered identifiers.
	Available []string
}

func (e *UnknownTemplateError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown template %q: no templates registered", e.Name)
	}
	return fmt.Sprintf("unknown template %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// CollisionError is returned when the output root already contains the project directory.
type CollisionError struct {
	// Path is the conflicting project directory.
	Path string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("project directory already exists: %s", e.Path)
}

// IsUnknownTemplate reports whether err is or wraps an UnknownTemplateError.
func IsUnknownTemplate(err error) bool {
	var target *UnknownTemplateError
	return errors.As(err, &target)
}

// IsCollision reports whether err is or wraps a CollisionError.
func IsCollision(err error) bool {
	var target *CollisionError
	return errors.As(err, &target)
}
