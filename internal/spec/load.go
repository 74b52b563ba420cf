package spec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the document syntax.
type Format string

const (
	// FormatYAML decodes YAML documents.
	FormatYAML Format = "yaml"
	// FormatJSON decodes JSON documents.
	FormatJSON Format = "json"
)

// Document is the raw, unnormalized shape of a specification file.
type Document struct {
	ServiceName    string          `yaml:"service_name" json:"service_name"`
	Description    string          `yaml:"description" json:"description"`
	Version        string          `yaml:"version" json:"version"`
	ContainerImage string          `yaml:"container_image" json:"container_image"`
	Port           *int            `yaml:"port" json:"port"`
	Replicas       *int            `yaml:"replicas" json:"replicas"`
	Routes         []RouteDocument `yaml:"routes" json:"routes"`
}

// RouteDocument is the raw shape of a route entry.
type RouteDocument struct {
	Name     string `yaml:"name" json:"name"`
	Method   string `yaml:"method" json:"method"`
	Path     string `yaml:"path" json:"path"`
	Status   *int   `yaml:"status" json:"status"`
	Response any    `yaml:"response" json:"response"`
}

// FormatForPath picks the document format from a file extension. Anything but .json is read as YAML.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Load reads, normalizes and validates the specification at path.
func Load(path string) (*Service, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read specification %q: %w", path, err)
	}
	svc, err := Parse(raw, FormatForPath(path))
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) && verr.Source == "" {
			verr.Source = path
		}
		return nil, err
	}
	return svc, nil
}

// Parse decodes raw in the given format, then normalizes and validates it.
// Unknown fields are rejected.
func Parse(raw []byte, format Format) (*Service, error) {
	doc, err := decode(raw, format)
	if err != nil {
		return nil, &ValidationError{Problems: []FieldError{{Message: err.Error()}}}
	}
	return Normalize(doc)
}

func decode(raw []byte, format Format) (Document, error) {
	var doc Document
	if len(bytes.TrimSpace(raw)) == 0 {
		return doc, errors.New("document is empty")
	}

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return doc, fmt.Errorf("decode JSON document: %w", err)
		}
	case FormatYAML, "":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return doc, errors.New("document is empty")
			}
			return doc, fmt.Errorf("decode YAML document: %w", err)
		}
	default:
		return doc, fmt.Errorf("unsupported document format %q", format)
	}
	return doc, nil
}

// Normalize applies defaults to doc and validates the result.
func Normalize(doc Document) (*Service, error) {
	name := strings.TrimSpace(doc.ServiceName)
	svc := &Service{
		Name:           name,
		Slug:           Slugify(name),
		Description:    strings.TrimSpace(doc.Description),
		Version:        strings.TrimSpace(doc.Version),
		ContainerImage: strings.TrimSpace(doc.ContainerImage),
		Port:           DefaultPort,
		Replicas:       1,
	}
	if svc.Description == "" && name != "" {
		svc.Description = name + " service"
	}
	if svc.Version == "" {
		svc.Version = DefaultVersion
	}
	if svc.ContainerImage == "" && svc.Slug != "" {
		svc.ContainerImage = fmt.Sprintf("%s/%s:%s", DefaultRegistry, svc.Slug, svc.Version)
	}
	if doc.Port != nil {
		svc.Port = *doc.Port
	}
	if doc.Replicas != nil {
		svc.Replicas = *doc.Replicas
	}

	for i, rd := range doc.Routes {
		routeName := strings.TrimSpace(rd.Name)
		if routeName == "" {
			routeName = fmt.Sprintf("route_%d", i+1)
		}
		method := strings.ToUpper(strings.TrimSpace(rd.Method))
		if method == "" {
			method = "GET"
		}
		status := 200
		if rd.Status != nil {
			status = *rd.Status
		}
		response := normalizeValue(rd.Response)
		if response == nil {
			response = map[string]any{"message": "Response from " + routeName}
		}
		svc.Routes = append(svc.Routes, Route{
			Name:       routeName,
			Identifier: identifierFor(routeName, i),
			Method:     method,
			Path:       strings.TrimSpace(rd.Path),
			Status:     status,
			Response:   response,
		})
	}

	if err := Validate(svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// normalizeValue converts json.Number leaves to int64 or float64 so responses look the same
// whichever document format they came from.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
