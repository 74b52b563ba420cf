package ghoutput

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	require.NoError(t, WriteFile(path, map[string]string{
		"status":  "done-clean",
		"project": "/work/inventory-service",
		"":        "ignored",
		"detail":  "line1\nline2 100%",
	}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "detail=line1%0Aline2 100%25\nproject=/work/inventory-service\nstatus=done-clean\n", string(raw))
}

func TestWriteUsesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	t.Setenv("GITHUB_OUTPUT", path)
	require.NoError(t, Write(map[string]string{"exit_code": "2"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "exit_code=2\n", string(raw))
}

func TestWriteWithoutEnvIsNoop(t *testing.T) {
	t.Setenv("GITHUB_OUTPUT", "")
	assert.NoError(t, Write(map[string]string{"a": "b"}))
	assert.NoError(t, WriteFile(filepath.Join(t.TempDir(), "x"), nil))
}
