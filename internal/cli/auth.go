package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/ui"
)

// NewAuthCommand creates the `auth` command group.
func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the API token",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return usageErr("usage: todo auth <login|logout|status|whoami>")
		},
	}

	cmd.AddCommand(newAuthLoginCommand())
	cmd.AddCommand(newAuthLogoutCommand())
	cmd.AddCommand(newAuthStatusCommand())
	cmd.AddCommand(newAuthWhoAmICommand())
	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Save a token read from stdin",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), "Paste your token: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && strings.TrimSpace(line) == "" {
				return fmt.Errorf("read token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			if err := auth.Set(line, nil); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			ui.OK(cmd.OutOrStdout(), "logged in")
			return nil
		},
	}
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved token",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ti, _ := auth.Get(); ti != nil && ti.Source == "env" {
				ui.OK(cmd.OutOrStdout(), "token is provided by "+auth.EnvToken+" env var (nothing to delete)")
				return nil
			}
			if err := auth.Delete(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			ui.OK(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the token comes from and when it expires",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ti, err := auth.Get()
			if errors.Is(err, auth.ErrNoToken) {
				fmt.Fprintln(out, ui.C(ui.Current().Muted, "not logged in"))
				fmt.Fprintln(out, "Run: todo auth login")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "source: %s\n", ti.Source)
			if ti.ExpiresAt != nil {
				fmt.Fprintf(out, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
			} else {
				fmt.Fprintln(out, "expires: (unknown)")
			}
			fmt.Fprintln(out, "env override: "+auth.EnvToken)
			return nil
		},
	}
}

func newAuthWhoAmICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Decode the token locally (JWT only, unverified)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ti, err := auth.Get()
			if errors.Is(err, auth.ErrNoToken) {
				return usageErr("not logged in. Run: todo auth login")
			}
			if err != nil {
				return err
			}
			if payload, ok := auth.JWTPayload(ti.Token); ok {
				fmt.Fprintln(out, "JWT payload:")
				fmt.Fprintln(out, payload)
				return nil
			}
			fmt.Fprintln(out, "Opaque token (cannot introspect locally).")
			fmt.Fprintln(out, "source:", ti.Source)
			return nil
		},
	}
}
