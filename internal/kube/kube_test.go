package kube

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKubectl writes a shell script that records its arguments and exits with code.
func fakeKubectl(t *testing.T, code int) (bin, argsFile string) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args")
	bin = filepath.Join(dir, "kubectl")
	script := "#!/bin/sh\necho \"$@\" >> " + argsFile + "\necho \"applied $3\"\nexit " + strconv.Itoa(code) + "\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	return bin, argsFile
}

func TestAvailable(t *testing.T) {
	bin, _ := fakeKubectl(t, 0)
	assert.True(t, NewClient(bin, "", "").Available(context.Background()))
	assert.False(t, NewClient("autodevctl-missing-kubectl", "", "").Available(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, NewClient(bin, "", "").Available(ctx))
}

func TestApplyFile(t *testing.T) {
	bin, argsFile := fakeKubectl(t, 0)
	c := NewClient(bin, "", "staging")

	out, err := c.ApplyFile(context.Background(), "/tmp/deployment.yaml", "shop")
	require.NoError(t, err)
	assert.Contains(t, out, "applied")

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "--context staging apply -f /tmp/deployment.yaml -n shop\n", string(args))
}

func TestApplyFileFailure(t *testing.T) {
	bin, _ := fakeKubectl(t, 1)
	c := NewClient(bin, "", "")

	out, err := c.ApplyFile(context.Background(), "/tmp/service.yaml", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kubectl apply -f /tmp/service.yaml failed")
	assert.Contains(t, out, "applied")
}
