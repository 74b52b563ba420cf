package deploy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/autodevctl/internal/templates"
)

type fakeProbe struct {
	available bool
	calls     int
}

func (p *fakeProbe) Available(context.Context) bool {
	p.calls++
	return p.available
}

type fakeApplier struct {
	failOn string
	calls  []string
	ns     []string
}

func (a *fakeApplier) ApplyFile(_ context.Context, path, namespace string) (string, error) {
	a.calls = append(a.calls, filepath.Base(path))
	a.ns = append(a.ns, namespace)
	if filepath.Base(path) == a.failOn {
		return "error: forbidden", errors.New("exit status 1")
	}
	return filepath.Base(path) + " configured", nil
}

func newProject(t *testing.T) *templates.Project {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, templates.ManifestsDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "k8s", "deployment.yaml"), []byte("kind: Deployment\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "k8s", "service.yaml"), []byte("kind: Service"), 0o644))
	return &templates.Project{
		Root:      root,
		Manifests: []string{templates.DeploymentManifest, templates.ServiceManifest},
	}
}

func TestDeployAppliesInOrder(t *testing.T) {
	probe := &fakeProbe{available: true}
	applier := &fakeApplier{}
	d := &Deployer{Probe: probe, Applier: applier, Namespace: "shop"}

	decision, err := d.Deploy(context.Background(), newProject(t))
	require.NoError(t, err)
	assert.Equal(t, KindApplied, decision.Kind)
	assert.Equal(t, []string{"deployment.yaml", "service.yaml"}, applier.calls)
	assert.Equal(t, []string{"shop", "shop"}, applier.ns)
	assert.Equal(t, []string{templates.DeploymentManifest, templates.ServiceManifest}, decision.Applied)
	assert.Equal(t, "deployment.yaml configured\nservice.yaml configured\n", decision.Summary)
	assert.Equal(t, 1, probe.calls)
}

func TestDeployStopsAtFirstFailure(t *testing.T) {
	applier := &fakeApplier{failOn: "deployment.yaml"}
	d := &Deployer{Probe: &fakeProbe{available: true}, Applier: applier}

	_, err := d.Deploy(context.Background(), newProject(t))
	require.Error(t, err)
	assert.True(t, IsDeployError(err))

	var derr *DeployError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, templates.DeploymentManifest, derr.Manifest)
	assert.Empty(t, derr.Applied)
	assert.Equal(t, "error: forbidden", derr.Output)
	assert.Equal(t, []string{"deployment.yaml"}, applier.calls, "service must not be applied after a failure")
}

func TestDeployFailureKeepsAppliedManifests(t *testing.T) {
	applier := &fakeApplier{failOn: "service.yaml"}
	d := &Deployer{Probe: &fakeProbe{available: true}, Applier: applier}

	_, err := d.Deploy(context.Background(), newProject(t))
	var derr *DeployError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, []string{templates.DeploymentManifest}, derr.Applied)
	assert.Contains(t, err.Error(), "forbidden")
}

func TestDeployWritesPlanWhenUnavailable(t *testing.T) {
	applier := &fakeApplier{}
	project := newProject(t)
	d := &Deployer{Probe: &fakeProbe{}, Applier: applier}

	decision, err := d.Deploy(context.Background(), project)
	require.NoError(t, err)
	assert.Equal(t, KindPlanWritten, decision.Kind)
	assert.Equal(t, project.Path(templates.PlanFile), decision.PlanPath)
	assert.Empty(t, applier.calls)

	plan, err := os.ReadFile(decision.PlanPath)
	require.NoError(t, err)
	assert.Equal(t, "# autodevctl deployment plan\n"+
		"# kubectl not available; apply these manifests in order.\n"+
		"\n"+
		"--- k8s/deployment.yaml ---\n"+
		"kind: Deployment\n"+
		"--- k8s/service.yaml ---\n"+
		"kind: Service\n", string(plan))
}

func TestRenderPlanDeterministic(t *testing.T) {
	a := newProject(t)
	b := newProject(t)

	planA, err := RenderPlan(a.Root, a.Manifests)
	require.NoError(t, err)
	planB, err := RenderPlan(b.Root, b.Manifests)
	require.NoError(t, err)
	assert.Equal(t, planA, planB)

	again, err := RenderPlan(a.Root, a.Manifests)
	require.NoError(t, err)
	assert.Equal(t, planA, again)
}

func TestRenderPlanMissingManifest(t *testing.T) {
	_, err := RenderPlan(t.TempDir(), []string{templates.DeploymentManifest})
	require.Error(t, err)
}

func TestDeployRequiresManifests(t *testing.T) {
	d := &Deployer{Probe: &fakeProbe{available: true}, Applier: &fakeApplier{}}
	_, err := d.Deploy(context.Background(), &templates.Project{Root: t.TempDir()})
	require.Error(t, err)
}
