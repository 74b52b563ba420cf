// Package manifest decodes Kubernetes manifest files and exposes the fields the pipeline checks.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a single decoded Kubernetes object.
type Document map[string]any

// Kind returns the object kind or an empty string.
func (d Document) Kind() string {
	kind, _ := d["kind"].(string)
	return kind
}

// Name returns metadata.name or an empty string.
func (d Document) Name() string {
	meta := getMap(d, "metadata")
	name, _ := meta["name"].(string)
	return name
}

// Labels returns metadata.labels as strings.
func (d Document) Labels() map[string]string {
	out := make(map[string]string)
	for k, v := range getMap(getMap(d, "metadata"), "labels") {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// Images returns the images of all containers and init containers in a workload's pod template.
func (d Document) Images() []string {
	podSpec := getMap(getMap(getMap(d, "spec"), "template"), "spec")
	var images []string
	for _, key := range []string{"initContainers", "containers"} {
		for _, c := range normalizeMapSlice(podSpec[key]) {
			if img, _ := c["image"].(string); img != "" {
				images = append(images, img)
			}
		}
	}
	return images
}

// Decode parses a multi-document YAML stream, skipping empty documents.
func Decode(raw []byte) ([]Document, error) {
	var docs []Document
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	for {
		var doc map[string]any
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if len(doc) == 0 {
			continue
		}
		docs = append(docs, Document(doc))
	}
	return docs, nil
}

// LoadFile reads and decodes the manifest at path.
func LoadFile(path string) ([]Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %q: %w", path, err)
	}
	docs, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode manifest %q: %w", path, err)
	}
	return docs, nil
}

// Expectation describes what a generated manifest set must contain.
type Expectation struct {
	// Name is the resource name every object must carry.
	Name string
	// Image is the container image the Deployment must run.
	Image string
	// Kinds lists the kinds that must be present, in order.
	Kinds []string
}

// Verify checks that docs contain exactly the expected kinds, all named exp.Name,
// and that every workload runs exp.Image.
func Verify(docs []Document, exp Expectation) error {
	var problems []string
	if len(docs) != len(exp.Kinds) {
		problems = append(problems, fmt.Sprintf("expected %d objects, found %d", len(exp.Kinds), len(docs)))
	}
	for i, doc := range docs {
		if i < len(exp.Kinds) && !strings.EqualFold(doc.Kind(), exp.Kinds[i]) {
			problems = append(problems, fmt.Sprintf("object %d: expected kind %s, found %q", i, exp.Kinds[i], doc.Kind()))
		}
		if doc.Name() != exp.Name {
			problems = append(problems, fmt.Sprintf("%s: expected name %q, found %q", doc.Kind(), exp.Name, doc.Name()))
		}
		if !isWorkload(doc.Kind()) {
			continue
		}
		images := doc.Images()
		if len(images) == 0 {
			problems = append(problems, fmt.Sprintf("%s %q: no containers", doc.Kind(), doc.Name()))
		}
		for _, img := range images {
			if img != exp.Image {
				problems = append(problems, fmt.Sprintf("%s %q: expected image %q, found %q", doc.Kind(), doc.Name(), exp.Image, img))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("manifest check failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

func isWorkload(kind string) bool {
	switch kind {
	case "Deployment", "StatefulSet", "DaemonSet", "ReplicaSet", "Job":
		return true
	}
	return false
}

// getMap returns the nested map stored under key, or nil.
func getMap(parent map[string]any, key string) map[string]any {
	if parent == nil {
		return nil
	}
	if m, ok := parent[key].(map[string]any); ok {
		return m
	}
	return nil
}

// normalizeMapSlice coerces an interface value into a slice of map documents.
func normalizeMapSlice(value any) []map[string]any {
	if value == nil {
		return nil
	}
	var result []map[string]any
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				result = append(result, m)
			}
		}
	case []map[string]any:
		result = append(result, v...)
	}
	return result
}
