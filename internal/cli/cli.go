package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

func runtimeError(err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return &ExitError{Code: 1, Message: err.Error()}
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	logLevel  string
	logFormat string
}

func (o *globalOptions) validate() error {
	o.logFormat = strings.ToLower(o.logFormat)
	if o.logFormat != "text" && o.logFormat != "json" {
		return &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	o.logLevel = strings.ToLower(o.logLevel)
	switch o.logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	return nil
}

// NewRootCommand builds the command tree. Command output goes to stdout, logs
// to stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "buildshim",
		Short: "Reconcile subproject build configuration",
		Long: `buildshim - reconciles the configuration of every subproject in a multi-module
build with the toolchain: identifiers and language/API levels are filled in
through the capabilities each plugin version actually exposes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.validate()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")

	root.AddCommand(
		newReconcileCommand(opts, stdout, stderr, false),
		newReconcileCommand(opts, stdout, stderr, true),
		newBridgeCommand(opts, stdout, stderr),
	)
	return root
}

// Execute runs the command tree with args. Every returned error is an
// *ExitError: code 2 for usage errors, 1 for runtime failures.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	slog.Debug("CLI parser started.")
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Anything cobra rejects before a command runs is a usage problem.
	return usageError(err)
}

func positionalArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError(fmt.Errorf("%s: %w", cmd.CommandPath(), err))
		}
		return nil
	}
}
