// Package kube provides low-level integration with Kubernetes via kubectl.
package kube

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultBinary is the kubectl executable looked up on PATH.
const DefaultBinary = "kubectl"

// Client wraps kubectl execution with optional kubeconfig and context selection.
type Client struct {
	// Binary is the kubectl executable name or path; DefaultBinary when empty.
	Binary     string
	Kubeconfig string
	Context    string
}

// NewClient constructs a new Kubernetes client wrapper.
func NewClient(binary, kubeconfig, context string) *Client {
	return &Client{
		Binary:     binary,
		Kubeconfig: kubeconfig,
		Context:    context,
	}
}

func (c *Client) binary() string {
	if c.Binary == "" {
		return DefaultBinary
	}
	return c.Binary
}

// Path resolves the kubectl executable.
func (c *Client) Path() (string, error) {
	return exec.LookPath(c.binary())
}

// Available reports whether the kubectl executable can be found. It does not contact a cluster.
func (c *Client) Available(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	_, err := c.Path()
	return err == nil
}

// ApplyFile applies the manifest at path with kubectl apply -f and returns the combined output.
// An empty namespace uses the kubeconfig default.
func (c *Client) ApplyFile(ctx context.Context, path, namespace string) (string, error) {
	args := []string{"apply", "-f", path}
	if namespace != "" {
		args = append(args, "-n", namespace)
	}
	return c.runKubectl(ctx, args...)
}

// ClientVersion returns the kubectl client version line.
func (c *Client) ClientVersion(ctx context.Context) (string, error) {
	out, err := c.runKubectl(ctx, "version", "--client")
	if err != nil {
		return "", err
	}
	return firstLine(out), nil
}

func (c *Client) runKubectl(ctx context.Context, args ...string) (string, error) {
	cmdArgs := make([]string, 0, len(args)+2)
	if c.Context != "" {
		cmdArgs = append(cmdArgs, "--context", c.Context)
	}
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.CommandContext(ctx, c.binary(), cmdArgs...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if c.Kubeconfig != "" {
		env := os.Environ()
		env = append(env, "KUBECONFIG="+c.Kubeconfig)
		cmd.Env = env
	}

	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("kubectl %s failed: %w", strings.Join(args, " "), err)
	}
	return out.String(), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
