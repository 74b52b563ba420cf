package spec

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = newStructValidator()

// newStructValidator reports fields by their document (yaml) names rather than Go names.
func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks s against every specification rule and returns a *ValidationError listing all problems.
func Validate(s *Service) error {
	verr := &ValidationError{}
	if s == nil {
		verr.add("", "specification is empty")
		return verr
	}

	if err := structValidator.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate specification: %w", err)
		}
		for _, fe := range fieldErrs {
			field := fieldPath(fe)
			if field == "slug" {
				if s.Name == "" {
					continue
				}
				verr.add("service_name", "must contain at least one ASCII letter or digit")
				continue
			}
			verr.add(field, "%s", describe(fe))
		}
	}

	if s.Slug != "" && !IsDNSLabel(s.Slug) {
		verr.add("service_name", "derived name %q is not a valid DNS-1123 label", s.Slug)
	}
	if strings.ContainsAny(s.ContainerImage, " \t\r\n") {
		verr.add("container_image", "must not contain whitespace")
	}

	seen := make(map[string]int, len(s.Routes))
	for i, r := range s.Routes {
		prefix := fmt.Sprintf("routes[%d]", i)
		if !isPlainPath(r.Path) {
			verr.add(prefix+".path", "must be printable ASCII without whitespace, a query or a fragment")
		}
		if r.Method != "" && r.Path != "" {
			if prev, ok := seen[r.Key()]; ok {
				verr.add(prefix, "duplicates routes[%d] (%s)", prev, r.Key())
			} else {
				seen[r.Key()] = i
			}
		}
		if _, err := json.Marshal(r.Response); err != nil {
			verr.add(prefix+".response", "must be JSON-serializable: %v", err)
		}
	}

	return verr.errOrNil()
}

// fieldPath strips the root struct name from the validator namespace (Service.routes[0].path -> routes[0].path).
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "startswith":
		return fmt.Sprintf("must start with %q", fe.Param())
	case "semver":
		return "must be a semantic version (e.g. 1.2.3)"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// isPlainPath reports whether path holds only printable ASCII and no query or fragment.
func isPlainPath(path string) bool {
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c <= ' ' || c >= 0x7f || c == '?' || c == '#' {
			return false
		}
	}
	return true
}
