// Package templates defines the contract project generators satisfy, the registry that maps
// template identifiers to generators, and the built-in generators.
package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/codex-k8s/autodevctl/internal/spec"
)

// Layout paths shared by every template, relative to the project root.
const (
	// TestsDir holds the generated test suite.
	TestsDir = "tests"
	// ManifestsDir holds the Kubernetes manifests.
	ManifestsDir = "k8s"
	// DeploymentManifest is the Deployment manifest.
	DeploymentManifest = "k8s/deployment.yaml"
	// ServiceManifest is the Service manifest.
	ServiceManifest = "k8s/service.yaml"
	// PlanFile is written instead of applying manifests when no cluster tool is available.
	PlanFile = "k8s/deployment-plan.txt"
	// MetadataFile records the layout of a generated project.
	MetadataFile = "project-metadata.json"
)

// Template materializes a project for a service specification.
//
// Generate must validate svc before writing anything, must fail with *CollisionError when
// outputRoot already holds the service's project directory, and must leave nothing behind on
// failure. It only writes to the filesystem.
type Template interface {
	Generate(ctx context.Context, svc *spec.Service, outputRoot string) (*Project, error)
}

// Info describes a registered template.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// Project is a generated project directory and its layout contract.
// Test runners and deployers read it; they never modify it.
type Project struct {
	// Root is the absolute project directory.
	Root string `json:"-"`
	// Template is the identifier of the template that produced the project.
	Template string `json:"template"`
	// TestsDir is the test suite directory, relative to Root.
	TestsDir string `json:"tests_dir"`
	// Manifests are manifest paths relative to Root, in apply order.
	Manifests []string `json:"manifests"`
	// TestCommand is the argv that runs the test suite from Root.
	TestCommand []string `json:"test_command"`
	// Service is the specification the project was generated from.
	Service *spec.Service `json:"service"`
}

// Path joins a contract-relative path onto the project root.
func (p *Project) Path(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// Open reads the layout contract of a previously generated project.
func Open(root string) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}
	raw, err := os.ReadFile(filepath.Join(abs, MetadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s is not a generated project: %s missing", abs, MetadataFile)
		}
		return nil, fmt.Errorf("read project metadata: %w", err)
	}
	var p Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode project metadata: %w", err)
	}
	if len(p.Manifests) == 0 {
		return nil, fmt.Errorf("project metadata in %s lists no manifests", abs)
	}
	p.Root = abs
	return &p, nil
}
