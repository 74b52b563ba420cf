package templates

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/codex-k8s/autodevctl/internal/manifest"
	"github.com/codex-k8s/autodevctl/internal/spec"
)

// PythonServiceName is the identifier of the built-in Python template.
const PythonServiceName = "simple-python-service"

// PythonTestCommand runs the generated unittest suite from the project root.
var PythonTestCommand = []string{"python3", "-m", "unittest", "discover", "-s", TestsDir, "-t", "."}

//go:embed python/*.tmpl
var pythonFS embed.FS

// pythonFiles maps project paths to the embedded sources that render them.
var pythonFiles = []struct {
	path string
	tmpl string
}{
	{path: "app/__init__.py", tmpl: "app_init.py.tmpl"},
	{path: "app/routes.py", tmpl: "routes.py.tmpl"},
	{path: "app/server.py", tmpl: "server.py.tmpl"},
	{path: TestsDir + "/__init__.py", tmpl: "tests_init.py.tmpl"},
	{path: TestsDir + "/test_routes.py", tmpl: "test_routes.py.tmpl"},
	{path: "Dockerfile", tmpl: "Dockerfile.tmpl"},
	{path: "README.md", tmpl: "README.md.tmpl"},
	{path: DeploymentManifest, tmpl: "deployment.yaml.tmpl"},
	{path: ServiceManifest, tmpl: "service.yaml.tmpl"},
}

// PythonService generates a dependency-free Python HTTP service with a unittest suite,
// a Dockerfile and Kubernetes manifests.
type PythonService struct {
	// Writer overrides how files are written; nil uses the filesystem.
	Writer FileWriter

	tmpl *template.Template
}

// NewPythonService parses the embedded sources of the Python template.
func NewPythonService() *PythonService {
	tmpl := template.Must(template.New(PythonServiceName).Funcs(funcMap()).ParseFS(pythonFS, "python/*.tmpl"))
	return &PythonService{tmpl: tmpl}
}

// Info describes the template for registries and listings.
func (t *PythonService) Info() Info {
	return Info{
		Name:        PythonServiceName,
		Description: "Python HTTP service on the standard library, with unittest suite, Dockerfile and Kubernetes manifests",
		Version:     "1.0.0",
	}
}

type pythonData struct {
	Service  *spec.Service
	Template Info
	Project  *Project
}

// Generate implements Template.
func (t *PythonService) Generate(ctx context.Context, svc *spec.Service, outputRoot string) (*Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := spec.Validate(svc); err != nil {
		return nil, err
	}
	if strings.TrimSpace(outputRoot) == "" {
		return nil, errors.New("output root is empty")
	}

	project := &Project{
		Template:    PythonServiceName,
		TestsDir:    TestsDir,
		Manifests:   []string{DeploymentManifest, ServiceManifest},
		TestCommand: append([]string(nil), PythonTestCommand...),
		Service:     svc,
	}
	files, err := t.render(project)
	if err != nil {
		return nil, err
	}

	m := Materializer{
		Writer: t.Writer,
		Verify: func(staging string) error {
			return verifyManifests(staging, project)
		},
	}
	root, err := m.Materialize(outputRoot, svc.ProjectDir(), files)
	if err != nil {
		return nil, err
	}
	project.Root = root
	return project, nil
}

func (t *PythonService) render(project *Project) ([]File, error) {
	data := pythonData{Service: project.Service, Template: t.Info(), Project: project}
	files := make([]File, 0, len(pythonFiles)+1)
	for _, pf := range pythonFiles {
		var buf bytes.Buffer
		if err := t.tmpl.ExecuteTemplate(&buf, pf.tmpl, data); err != nil {
			return nil, fmt.Errorf("render %s: %w", pf.path, err)
		}
		files = append(files, File{Path: pf.path, Data: buf.Bytes()})
	}

	meta, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", MetadataFile, err)
	}
	files = append(files, File{Path: MetadataFile, Data: append(meta, '\n')})
	return files, nil
}

// verifyManifests checks that the rendered manifests describe the service they were generated for.
func verifyManifests(root string, project *Project) error {
	var docs []manifest.Document
	for _, rel := range project.Manifests {
		part, err := manifest.LoadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		docs = append(docs, part...)
	}
	err := manifest.Verify(docs, manifest.Expectation{
		Name:  project.Service.Slug,
		Image: project.Service.ContainerImage,
		Kinds: []string{"Deployment", "Service"},
	})
	if err != nil {
		return fmt.Errorf("generated manifests are inconsistent: %w", err)
	}
	return nil
}
