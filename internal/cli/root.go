// Package cli defines the command-line interface for autodevctl.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/autodevctl/internal/config"
	"github.com/codex-k8s/autodevctl/internal/logging"
)

// Version is the autodevctl version, set at build time.
var Version = "dev"

// Options stores global CLI options shared between commands.
type Options struct {
	LogLevel logging.Level
	EnvFiles []string
	// Settings are resolved from AUTODEV_* variables before any subcommand runs.
	Settings *config.Settings

	stderr io.Writer
}

// Execute builds the root command, runs it with the provided args and returns any error.
// Errors carrying a process exit code are *ExitError.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts := &Options{LogLevel: logging.LevelInfo, stderr: stderr}

	rootCmd := newRootCommand(opts)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	return rootCmd.ExecuteContext(ctx)
}

// newRootCommand constructs the root cobra.Command with global flags and subcommands.
func newRootCommand(opts *Options) *cobra.Command {
	if opts.stderr == nil {
		opts.stderr = os.Stderr
	}
	cmd := &cobra.Command{
		Use:           "autodevctl",
		Short:         "autodevctl generates a microservice from a spec, tests it and deploys it",
		Long:          "autodevctl turns a declarative service specification into a runnable project from a template, runs the project's tests and applies its Kubernetes manifests with kubectl, or writes a deployment plan when kubectl is unavailable.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(opts.EnvFiles)
			if err != nil {
				return usageError(err)
			}
			opts.Settings = settings

			levelValue := settings.LogLevel
			if cmd.Flags().Changed("log-level") {
				levelValue = cmd.Flag("log-level").Value.String()
			}
			level := logging.ParseLevel(levelValue)
			opts.LogLevel = level
			logger := logging.NewLogger(opts.stderr, level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", level)
			return nil
		},
	}

	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error); defaults to AUTODEV_LOG_LEVEL")
	cmd.PersistentFlags().StringArrayVar(&opts.EnvFiles, "env-file", nil, "Load AUTODEV_* settings from a .env file (repeatable)")

	cmd.AddCommand(
		newRunCommand(opts),
		newGenerateCommand(opts),
		newValidateCommand(opts),
		newPlanCommand(opts),
		newTemplatesCommand(opts),
		newDoctorCommand(opts),
		newInspectCommand(opts),
	)

	return cmd
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.NewLogger(os.Stderr, logging.LevelInfo)
}
