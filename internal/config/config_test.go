package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/autodevctl/internal/env"
)

func TestFromVarsDefaults(t *testing.T) {
	s, err := FromVars(env.Vars{})
	require.NoError(t, err)
	assert.Equal(t, ".", s.OutputDir)
	assert.Equal(t, DefaultTemplate, s.Template)
	assert.Equal(t, "kubectl", s.Kubectl)
	assert.Equal(t, "info", s.LogLevel)
	assert.Empty(t, s.Namespace)
	assert.Nil(t, s.TestArgv())
}

func TestFromVars(t *testing.T) {
	s, err := FromVars(env.Vars{
		"AUTODEV_OUTPUT_DIR":   "/tmp/out",
		"AUTODEV_NAMESPACE":    "shop",
		"AUTODEV_TEST_COMMAND": "pytest  -q",
		"AUTODEV_TEST_ENV":     "A=1, B=2",
		"AUTODEV_METRICS_FILE": "/var/lib/node_exporter/autodevctl.prom",
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", s.OutputDir)
	assert.Equal(t, "shop", s.Namespace)
	assert.Equal(t, []string{"pytest", "-q"}, s.TestArgv())
	assert.Equal(t, "/var/lib/node_exporter/autodevctl.prom", s.MetricsFile)

	vars, err := s.TestVars()
	require.NoError(t, err)
	assert.Equal(t, env.Vars{"A": "1", "B": "2"}, vars)
}

func TestTestVarsInvalid(t *testing.T) {
	s := &Settings{TestEnv: "novalue"}
	_, err := s.TestVars()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTODEV_TEST_ENV")
}

func TestLoadEnvFileBelowProcessEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("AUTODEV_TEMPLATE=from-file\nAUTODEV_NAMESPACE=file-ns\n"), 0o644))
	t.Setenv("AUTODEV_NAMESPACE", "process-ns")

	s, err := Load([]string{path})
	require.NoError(t, err)
	assert.Equal(t, "from-file", s.Template)
	assert.Equal(t, "process-ns", s.Namespace)
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load([]string{filepath.Join(t.TempDir(), "missing.env")})
	require.Error(t, err)
}
