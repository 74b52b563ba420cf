package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deploymentYAML = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: inventory
  labels:
    app: inventory
spec:
  template:
    spec:
      initContainers:
        - name: migrate
          image: registry.example.com/inventory:0.1.0
      containers:
        - name: inventory
          image: registry.example.com/inventory:0.1.0
`

const serviceYAML = `---
apiVersion: v1
kind: Service
metadata:
  name: inventory
---
`

func TestDecodeAndAccessors(t *testing.T) {
	docs, err := Decode([]byte(deploymentYAML + "---\n" + serviceYAML))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "Deployment", docs[0].Kind())
	assert.Equal(t, "inventory", docs[0].Name())
	assert.Equal(t, map[string]string{"app": "inventory"}, docs[0].Labels())
	assert.Equal(t, []string{
		"registry.example.com/inventory:0.1.0",
		"registry.example.com/inventory:0.1.0",
	}, docs[0].Images())

	assert.Equal(t, "Service", docs[1].Kind())
	assert.Empty(t, docs[1].Images())
}

func TestDecodeRejectsInvalidYAML(t *testing.T) {
	_, err := Decode([]byte("kind: [unterminated"))
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(deploymentYAML), 0o644))

	docs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read manifest")
}

func TestVerify(t *testing.T) {
	deployment, err := Decode([]byte(deploymentYAML))
	require.NoError(t, err)
	service, err := Decode([]byte(serviceYAML))
	require.NoError(t, err)
	docs := append(deployment, service...)

	exp := Expectation{
		Name:  "inventory",
		Image: "registry.example.com/inventory:0.1.0",
		Kinds: []string{"Deployment", "Service"},
	}
	require.NoError(t, Verify(docs, exp))

	wrongImage := exp
	wrongImage.Image = "registry.example.com/other:1.0.0"
	assert.ErrorContains(t, Verify(docs, wrongImage), `expected image "registry.example.com/other:1.0.0"`)

	wrongName := exp
	wrongName.Name = "orders"
	assert.ErrorContains(t, Verify(docs, wrongName), `expected name "orders"`)

	assert.ErrorContains(t, Verify(service, exp), "expected 2 objects, found 1")
	assert.ErrorContains(t, Verify([]Document{service[0], deployment[0]}, exp), "expected kind Deployment")
}
