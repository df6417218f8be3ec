// Package cli wires configuration, credentials, the sync controller and the
// terminal UI behind the `todo` command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/ui"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	APIURL     string
	OwnerID    int
	LogLevel   string
	Theme      string
	NoColor    bool
}

func (o *RootOptions) overrides() config.Overrides {
	return config.Overrides{
		ConfigPath: o.ConfigPath,
		APIURL:     o.APIURL,
		OwnerID:    o.OwnerID,
		LogLevel:   o.LogLevel,
		Theme:      o.Theme,
	}
}

// ExitError carries the process exit code: 1 for runtime failures, 2 for
// usage errors and missing preconditions.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

func usageErr(format string, args ...any) error {
	return &ExitError{Code: 2, Err: fmt.Errorf(format, args...)}
}

// usageArgs makes argument validation failures exit with status 2.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &ExitError{Code: 2, Err: err}
		}
		return nil
	}
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	if errors.Is(err, config.ErrNoOwner) {
		return 2
	}
	return 1
}

// NewRootCommand creates the root `todo` command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "todo",
		Short: "todo - a tiny client for your remote todo list",
		Long: "Manage the todo list stored on a remote API. Changes show up immediately\n" +
			"and are rolled back if the server refuses them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.LogLevel != "" && !logging.ValidLevel(opts.LogLevel) {
				return usageErr("invalid log level %q", opts.LogLevel)
			}
			if opts.Theme != "" && !slices.Contains(ui.Themes, opts.Theme) {
				return usageErr("invalid theme %q: must be one of %v", opts.Theme, ui.Themes)
			}
			if opts.OwnerID < 0 {
				return usageErr("--owner must be positive")
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &ExitError{Code: 2, Err: err}
	})

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.tada/config.toml)")
	cmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", "", "base URL of the todo API")
	cmd.PersistentFlags().IntVar(&opts.OwnerID, "owner", 0, "owner id whose todos to manage")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "debug|info|warn|error")
	cmd.PersistentFlags().StringVar(&opts.Theme, "theme", "", "classic|neon|mono")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colors")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewDoneCommand(opts))
	cmd.AddCommand(NewRenameCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewClearCompletedCommand(opts))
	cmd.AddCommand(NewToggleAllCommand(opts))
	cmd.AddCommand(NewAuthCommand())

	return cmd
}

// Execute runs the root command with args, reports failures on stderr and
// returns the exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		ui.Fail(stderr, err.Error())
		if errors.Is(err, config.ErrNoOwner) {
			ui.Warn(stderr, "Set owner_id in ~/.tada/config.toml, TADA_OWNER_ID or pass --owner")
		}
	}
	return ExitCode(err)
}
