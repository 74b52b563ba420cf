package spec

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inventoryYAML = `
service_name: inventory
routes:
  - method: GET
    path: /items
    status: 200
    response:
      items: []
  - method: get
    path: /healthz
    response:
      status: ok
`

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Inventory", "inventory"},
		{"  Order Service v2 ", "order-service-v2"},
		{"__weird__name__", "weird-name"},
		{"Ünïcode", "n-code"},
		{"!!!", ""},
		{strings.Repeat("a", 70), strings.Repeat("a", 63)},
		{strings.Repeat("a", 62) + "-b", strings.Repeat("a", 62)},
	}
	for _, tt := range tests {
		got := Slugify(tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
		if got != "" {
			assert.True(t, IsDNSLabel(got), "slug %q should be a DNS label", got)
		}
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	svc, err := Parse([]byte(inventoryYAML), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "inventory", svc.Name)
	assert.Equal(t, "inventory", svc.Slug)
	assert.Equal(t, "inventory-service", svc.ProjectDir())
	assert.Equal(t, "inventory service", svc.Description)
	assert.Equal(t, DefaultVersion, svc.Version)
	assert.Equal(t, "registry.example.com/inventory:0.1.0", svc.ContainerImage)
	assert.Equal(t, DefaultPort, svc.Port)
	assert.Equal(t, 1, svc.Replicas)

	require.Len(t, svc.Routes, 2)
	assert.Equal(t, Route{
		Name:       "route_1",
		Identifier: "route_1",
		Method:     "GET",
		Path:       "/items",
		Status:     200,
		Response:   map[string]any{"items": []any{}},
	}, svc.Routes[0])
	assert.Equal(t, "GET", svc.Routes[1].Method)
	assert.Equal(t, 200, svc.Routes[1].Status)
}

func TestParseJSON(t *testing.T) {
	doc := `{
	"service_name": "Orders API",
	"description": "Order management",
	"version": "1.2.3",
	"container_image": "ghcr.io/acme/orders:1.2.3",
	"port": 9000,
	"routes": [
		{"name": "List Orders", "method": "GET", "path": "/orders", "response": {"count": 2}},
		{"name": "Create", "method": "POST", "path": "/orders", "status": 201}
	]
}`
	svc, err := Parse([]byte(doc), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "orders-api", svc.Slug)
	assert.Equal(t, 9000, svc.Port)
	assert.Equal(t, "list_orders", svc.Routes[0].Identifier)
	assert.Equal(t, map[string]any{"count": int64(2)}, svc.Routes[0].Response)
	assert.Equal(t, 201, svc.Routes[1].Status)
	assert.Equal(t, map[string]any{"message": "Response from Create"}, svc.Routes[1].Response)
}

func TestParseRejectsPathWithoutSlash(t *testing.T) {
	doc := strings.Replace(inventoryYAML, "path: /items", "path: items", 1)
	_, err := Parse([]byte(doc), FormatYAML)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Problems, 1)
	assert.Equal(t, "routes[0].path", verr.Problems[0].Field)
	assert.Contains(t, verr.Problems[0].Message, `must start with "/"`)
}

func TestParseCollectsEveryProblem(t *testing.T) {
	doc := `
service_name: "!!!"
version: latest
port: 0
routes:
  - method: TRACE
    path: /a b
    status: 42
  - method: GET
    path: /x
  - method: GET
    path: /x
`
	_, err := Parse([]byte(doc), FormatYAML)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	fields := make([]string, 0, len(verr.Problems))
	for _, p := range verr.Problems {
		fields = append(fields, p.Field)
	}
	assert.Contains(t, fields, "service_name")
	assert.Contains(t, fields, "version")
	assert.Contains(t, fields, "port")
	assert.Contains(t, fields, "routes[0].method")
	assert.Contains(t, fields, "routes[0].status")
	assert.Contains(t, fields, "routes[0].path")
	assert.Contains(t, fields, "routes[2]")
	assert.Contains(t, err.Error(), "duplicates routes[1] (GET /x)")
}

func TestParseRequiresRoutesAndName(t *testing.T) {
	_, err := Parse([]byte("description: nothing here\n"), FormatYAML)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "service_name: is required")
	assert.Contains(t, err.Error(), "routes: is required")
	assert.NotContains(t, err.Error(), "slug")
}

func TestParseRejectsMalformedDocuments(t *testing.T) {
	tests := map[string]struct {
		raw    string
		format Format
	}{
		"empty":         {raw: "  \n", format: FormatYAML},
		"unknown field": {raw: "service_name: a\nroutez: []\n", format: FormatYAML},
		"not a mapping": {raw: "- a\n- b\n", format: FormatYAML},
		"bad json":      {raw: `{"service_name": `, format: FormatJSON},
		"json unknown":  {raw: `{"service_name": "a", "extra": 1}`, format: FormatJSON},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw), tt.format)
			assert.True(t, IsValidationError(err), "expected ValidationError, got %v", err)
		})
	}
}

func TestParseRejectsNonJSONResponse(t *testing.T) {
	doc := `
service_name: svc
routes:
  - path: /
    response:
      1: one
`
	_, err := Parse([]byte(doc), FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "routes[0].response: must be JSON-serializable")
}

func TestLoadSetsSource(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "inventory.yaml")
	require.NoError(t, os.WriteFile(good, []byte(inventoryYAML), 0o644))

	svc, err := Load(good)
	require.NoError(t, err)
	assert.Equal(t, "inventory", svc.Slug)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"service_name": "x"}`), 0o644))
	_, err = Load(bad)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, bad, verr.Source)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.False(t, IsValidationError(err))
}

func TestValidateNil(t *testing.T) {
	assert.True(t, IsValidationError(Validate(nil)))
}

func TestParseRejectsNonASCIIPath(t *testing.T) {
	_, err := Parse([]byte("service_name: shop\nroutes:\n  - path: /café\n"), FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "routes[0].path: must be printable ASCII")
}
