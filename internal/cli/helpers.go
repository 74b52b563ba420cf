package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/autodevctl/internal/engine"
	"github.com/codex-k8s/autodevctl/internal/env"
	"github.com/codex-k8s/autodevctl/internal/spec"
)

// flagOr returns the string flag value when it was set explicitly and fallback otherwise.
func flagOr(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

// loadSpec reads the specification file; invalid specifications fail like a generation failure.
func loadSpec(path string) (*spec.Service, error) {
	if strings.TrimSpace(path) == "" {
		return nil, usageError(fmt.Errorf("--spec is required"))
	}
	svc, err := spec.Load(path)
	if err != nil {
		if spec.IsValidationError(err) {
			return nil, &ExitError{Code: engine.ExitFailedGeneration, Err: err}
		}
		return nil, usageError(err)
	}
	return svc, nil
}

// testVars merges AUTODEV_TEST_ENV with the --test-env flag, the flag winning per key.
func testVars(opts *Options, flagValue string) (env.Vars, error) {
	base, err := opts.Settings.TestVars()
	if err != nil {
		return nil, err
	}
	extra, err := env.ParseInlineVars(flagValue)
	if err != nil {
		return nil, fmt.Errorf("--test-env: %w", err)
	}
	return env.Merge(base, extra), nil
}

func printResult(w io.Writer, res *engine.Result) {
	if res.Tests != nil && !res.Tests.Passed() {
		if out := strings.TrimRight(res.Tests.Output, "\n"); out != "" {
			_, _ = fmt.Fprintf(w, "test output:\n%s\n\n", out)
		}
	}
	_, _ = fmt.Fprintf(w, "run:         %s\n", res.RunID)
	if res.Project != nil {
		_, _ = fmt.Fprintf(w, "project:     %s\n", res.Project.Root)
	}
	for _, s := range res.Stages() {
		line := string(s.Status)
		if s.Detail != "" {
			line += " (" + firstLine(s.Detail) + ")"
		}
		_, _ = fmt.Fprintf(w, "%-12s %s\n", string(s.Stage)+":", line)
	}
	_, _ = fmt.Fprintf(w, "status:      %s\n", res.Status())
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
