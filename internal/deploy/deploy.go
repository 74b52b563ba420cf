// Package deploy applies a generated project's manifests to a cluster, or writes a deployment
// plan when no cluster tool is available.
package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/codex-k8s/autodevctl/internal/kube"
	"github.com/codex-k8s/autodevctl/internal/logging"
	"github.com/codex-k8s/autodevctl/internal/templates"
)

// Kind is the deployment action that was taken.
type Kind string

const (
	// KindApplied means every manifest was applied with the cluster tool.
	KindApplied Kind = "applied"
	// KindPlanWritten means the cluster tool was unavailable and a plan file was written instead.
	KindPlanWritten Kind = "plan-written"
)

// Decision records what the deployer did.
type Decision struct {
	Kind Kind
	// Applied lists the manifests applied, relative to the project root, in order.
	Applied []string
	// Summary is the cluster tool output for Applied decisions.
	Summary string
	// PlanPath is the absolute plan file path for PlanWritten decisions.
	PlanPath string
}

// Probe reports whether the cluster tool can be used.
type Probe interface {
	Available(ctx context.Context) bool
}

// Applier applies one manifest file.
type Applier interface {
	ApplyFile(ctx context.Context, path, namespace string) (string, error)
}

// DeployError is returned when applying a manifest fails. Manifests applied before the failure
// stay applied.
type DeployError struct {
	// Manifest is the failing manifest, relative to the project root.
	Manifest string
	// Applied lists manifests that were applied before the failure.
	Applied []string
	// Output is the cluster tool output for the failing manifest.
	Output string
	Err    error
}

func (e *DeployError) Error() string {
	msg := fmt.Sprintf("apply %s: %v", e.Manifest, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *DeployError) Unwrap() error { return e.Err }

// IsDeployError reports whether err is or wraps a DeployError.
func IsDeployError(err error) bool {
	var target *DeployError
	return errors.As(err, &target)
}

// Deployer decides between applying manifests and writing a plan, once per call.
type Deployer struct {
	Probe     Probe
	Applier   Applier
	Namespace string
	Logger    *slog.Logger
}

// New returns a Deployer that probes for and applies with client.
func New(client *kube.Client, namespace string, logger *slog.Logger) *Deployer {
	return &Deployer{Probe: client, Applier: client, Namespace: namespace, Logger: logger}
}

// Deploy applies project's manifests in contract order when the cluster tool is available and
// writes the deployment plan otherwise. The probe runs exactly once.
func (d *Deployer) Deploy(ctx context.Context, project *templates.Project) (Decision, error) {
	logger := d.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if project == nil || len(project.Manifests) == 0 {
		return Decision{}, errors.New("project lists no manifests")
	}

	if d.Probe == nil || !d.Probe.Available(ctx) {
		logger.Info("kubectl not available, writing deployment plan")
		path, err := WritePlan(project)
		if err != nil {
			return Decision{}, err
		}
		logger.Info("Deployment plan written", "path", path)
		return Decision{Kind: KindPlanWritten, PlanPath: path}, nil
	}
	if d.Applier == nil {
		return Decision{}, errors.New("no manifest applier configured")
	}

	var summary strings.Builder
	applied := make([]string, 0, len(project.Manifests))
	for _, rel := range project.Manifests {
		logger.Info("Applying manifest", "manifest", rel, "namespace", d.Namespace)
		out, err := d.Applier.ApplyFile(ctx, project.Path(rel), d.Namespace)
		if err != nil {
			return Decision{}, &DeployError{Manifest: rel, Applied: applied, Output: out, Err: err}
		}
		applied = append(applied, rel)
		summary.WriteString(out)
		if out != "" && !strings.HasSuffix(out, "\n") {
			summary.WriteByte('\n')
		}
	}
	return Decision{Kind: KindApplied, Applied: applied, Summary: summary.String()}, nil
}

// WritePlan renders the deployment plan of project into its plan file and returns the file path.
func WritePlan(project *templates.Project) (string, error) {
	plan, err := RenderPlan(project.Root, project.Manifests)
	if err != nil {
		return "", err
	}
	path := project.Path(templates.PlanFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create plan directory: %w", err)
	}
	if err := os.WriteFile(path, plan, 0o644); err != nil {
		return "", fmt.Errorf("write deployment plan: %w", err)
	}
	return path, nil
}

// RenderPlan returns the deployment plan for manifests under root. The result depends only on
// the manifest paths and contents, so identical projects yield identical plans.
func RenderPlan(root string, manifests []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# autodevctl deployment plan\n")
	buf.WriteString("# kubectl not available; apply these manifests in order.\n\n")
	for _, rel := range manifests {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("read manifest %s: %w", rel, err)
		}
		buf.WriteString("--- " + rel + " ---\n")
		buf.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}
