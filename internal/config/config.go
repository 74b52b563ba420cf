// Package config resolves process settings from AUTODEV_* environment variables and .env files.
package config

import (
	"fmt"
	"strings"

	envparse "github.com/caarlos0/env/v11"

	"github.com/codex-k8s/autodevctl/internal/env"
)

// DefaultTemplate is the template used when none is configured.
const DefaultTemplate = "simple-python-service"

// Settings holds defaults for CLI flags. Flags that are set explicitly take precedence.
type Settings struct {
	// OutputDir is the directory generated projects are created in, from AUTODEV_OUTPUT_DIR.
	OutputDir string `env:"AUTODEV_OUTPUT_DIR" envDefault:"."`
	// Template is the template identifier from AUTODEV_TEMPLATE.
	Template string `env:"AUTODEV_TEMPLATE" envDefault:"simple-python-service"`
	// Namespace is the target namespace from AUTODEV_NAMESPACE; empty uses the kubeconfig default.
	Namespace string `env:"AUTODEV_NAMESPACE"`
	// Kubectl is the kubectl executable from AUTODEV_KUBECTL.
	Kubectl string `env:"AUTODEV_KUBECTL" envDefault:"kubectl"`
	// Kubeconfig is the kubeconfig path from AUTODEV_KUBECONFIG.
	Kubeconfig string `env:"AUTODEV_KUBECONFIG"`
	// KubeContext is the kubectl context from AUTODEV_KUBE_CONTEXT.
	KubeContext string `env:"AUTODEV_KUBE_CONTEXT"`
	// TestCommand replaces the project's test command, from AUTODEV_TEST_COMMAND (space separated).
	TestCommand string `env:"AUTODEV_TEST_COMMAND"`
	// TestEnv is a k=v,k2=v2 list passed to the test command, from AUTODEV_TEST_ENV.
	TestEnv string `env:"AUTODEV_TEST_ENV"`
	// LogLevel is the logging level from AUTODEV_LOG_LEVEL.
	LogLevel string `env:"AUTODEV_LOG_LEVEL" envDefault:"info"`
	// MetricsFile is the Prometheus textfile path from AUTODEV_METRICS_FILE.
	MetricsFile string `env:"AUTODEV_METRICS_FILE"`
	// TraceFile is the span export path from AUTODEV_TRACE_FILE.
	TraceFile string `env:"AUTODEV_TRACE_FILE"`
}

// Load reads settings from the process environment layered over the given .env files.
// Variables already present in the process environment win over file values.
func Load(envFiles []string) (*Settings, error) {
	fileVars, err := env.LoadEnvFiles("", envFiles)
	if err != nil {
		return nil, err
	}
	return FromVars(env.Merge(fileVars, env.FromOS()))
}

// FromVars parses settings from vars only.
func FromVars(vars env.Vars) (*Settings, error) {
	var s Settings
	if err := envparse.ParseWithOptions(&s, envparse.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse AUTODEV_* settings: %w", err)
	}
	return &s, nil
}

// TestArgv splits TestCommand into arguments; nil when unset.
func (s *Settings) TestArgv() []string {
	fields := strings.Fields(s.TestCommand)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// TestVars parses TestEnv.
func (s *Settings) TestVars() (env.Vars, error) {
	vars, err := env.ParseInlineVars(s.TestEnv)
	if err != nil {
		return nil, fmt.Errorf("AUTODEV_TEST_ENV: %w", err)
	}
	return vars, nil
}
