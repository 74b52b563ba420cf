// Package spec holds the service specification model: loading, normalization and validation.
package spec

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultVersion is used when a document omits version.
	DefaultVersion = "0.1.0"
	// DefaultPort is the container port the generated service listens on.
	DefaultPort = 8000
	// DefaultRegistry prefixes the derived container image when none is given.
	DefaultRegistry = "registry.example.com"

	maxLabelLength = 63
)

// Methods lists the HTTP verbs a route may use.
var Methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// Service is a normalized, validated service specification.
// Values returned by Parse and Load are treated as immutable by every pipeline stage.
type Service struct {
	// Name is the service name as written in the document.
	Name string `yaml:"service_name" json:"service_name" validate:"required"`
	// Slug is the DNS-1123 label derived from Name. It names the project directory and Kubernetes resources.
	Slug string `yaml:"slug" json:"slug" validate:"required,max=63"`
	// Description is a free-form summary.
	Description string `yaml:"description" json:"description" validate:"required"`
	// Version is a semantic version string.
	Version string `yaml:"version" json:"version" validate:"required,semver"`
	// ContainerImage is the registry-qualified image reference used by the manifests.
	ContainerImage string `yaml:"container_image" json:"container_image" validate:"required"`
	// Port is the container port.
	Port int `yaml:"port" json:"port" validate:"min=1,max=65535"`
	// Replicas is the deployment replica count.
	Replicas int `yaml:"replicas" json:"replicas" validate:"min=1"`
	// Routes are served in the order given.
	Routes []Route `yaml:"routes" json:"routes" validate:"required,min=1,dive"`
}

// Route describes one HTTP endpoint of the generated service.
type Route struct {
	// Name is the human-readable route name.
	Name string `yaml:"name" json:"name" validate:"required"`
	// Identifier is Name normalized to a snake_case identifier.
	Identifier string `yaml:"identifier" json:"identifier" validate:"required"`
	// Method is an upper-case HTTP verb.
	Method string `yaml:"method" json:"method" validate:"required,oneof=GET POST PUT PATCH DELETE"`
	// Path is the request path; it must start with a slash.
	Path string `yaml:"path" json:"path" validate:"required,startswith=/"`
	// Status is the HTTP status code returned.
	Status int `yaml:"status" json:"status" validate:"min=100,max=599"`
	// Response is the JSON-serializable body returned.
	Response any `yaml:"response" json:"response"`
}

// Key returns the method+path pair that must be unique within a specification.
func (r Route) Key() string {
	return r.Method + " " + r.Path
}

// ProjectDir returns the directory name a template materializes the service into.
func (s *Service) ProjectDir() string {
	return s.Slug + "-service"
}

var (
	slugPattern  = regexp.MustCompile(`[^a-z0-9]+`)
	labelPattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)
)

// Slugify lower-cases value and collapses every run of characters outside [a-z0-9] into a dash.
// The result is trimmed of dashes and truncated to a DNS-1123 label length. It may be empty.
func Slugify(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	v = slugPattern.ReplaceAllString(v, "-")
	v = strings.Trim(v, "-")
	if len(v) > maxLabelLength {
		v = strings.TrimRight(v[:maxLabelLength], "-")
	}
	return v
}

// IsDNSLabel reports whether value is a valid DNS-1123 label.
func IsDNSLabel(value string) bool {
	return len(value) <= maxLabelLength && labelPattern.MatchString(value)
}

// identifierFor turns a route name into a snake_case identifier, falling back to route_<n>.
func identifierFor(name string, index int) string {
	id := strings.ReplaceAll(Slugify(name), "-", "_")
	if id == "" {
		return fmt.Sprintf("route_%d", index+1)
	}
	return id
}
