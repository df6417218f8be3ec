package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

// NewListCommand creates the `ls` command. Without --plain or --json it opens
// the interactive list.
func NewListCommand(opts *RootOptions) *cobra.Command {
	var (
		plain  bool
		asJSON bool
		filter string
	)

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Show todos (interactive unless --plain or --json)",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := model.ParseFilter(filter)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}
			if plain && asJSON {
				return usageErr("--plain and --json are mutually exclusive")
			}

			if !plain && !asJSON {
				s, err := openSession(cmd, opts, true)
				defer s.Close()
				if err != nil && !errors.Is(err, config.ErrNoOwner) {
					return err
				}
				s.store.SetFilter(f)
				return tui.Run(cmd.Context(), s.ctrl, err, s.logger)
			}

			s, err := openController(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()
			s.store.SetFilter(f)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s.store.Visible())
			}
			ui.Panel(cmd.OutOrStdout(), ui.ListLines(s.store.Snapshot()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print the list once instead of opening the UI")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the list as JSON")
	cmd.Flags().StringVar(&filter, "filter", "all", "all|active|completed")

	return cmd
}

// NewAddCommand creates the `add` command.
func NewAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a todo (the title can be several words)",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openController(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			it, err := s.ctrl.Create(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return s.failure(err)
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("added #%d: %s", it.ID, it.Title))
			return nil
		},
	}
}

// NewDoneCommand creates the `done` command, which toggles completion.
func NewDoneCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a todo between done and not done",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("done", args[0])
			if err != nil {
				return err
			}
			s, err := openController(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			it, err := s.ctrl.Toggle(cmd.Context(), id)
			if err != nil {
				return s.failure(err)
			}
			state := "not done"
			if it.Completed {
				state = "done"
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("#%d %s: %s", it.ID, state, it.Title))
			return nil
		},
	}
}

// NewRenameCommand creates the `rename` command. An empty title deletes.
func NewRenameCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title...>",
		Short: "Change a todo's title (an empty title deletes it)",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("rename", args[0])
			if err != nil {
				return err
			}
			title := strings.Join(args[1:], " ")

			s, err := openController(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			it, err := s.ctrl.Rename(cmd.Context(), id, title)
			if err != nil {
				return s.failure(err)
			}
			if strings.TrimSpace(title) == "" {
				ui.OK(cmd.OutOrStdout(), fmt.Sprintf("removed #%d", id))
				return nil
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("renamed #%d: %s", it.ID, it.Title))
			return nil
		},
	}
}

// NewRemoveCommand creates the `rm` command.
func NewRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("rm", args[0])
			if err != nil {
				return err
			}
			s, err := openController(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.ctrl.Delete(cmd.Context(), id); err != nil {
				return s.failure(err)
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("removed #%d", id))
			return nil
		},
	}
}

// NewClearCompletedCommand creates the `clear-completed` command.
func NewClearCompletedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Delete every completed todo",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openController(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			n := s.store.CompletedCount()
			if n == 0 {
				ui.OK(cmd.OutOrStdout(), "nothing to clear")
				return nil
			}
			if err := s.ctrl.ClearCompleted(cmd.Context()); err != nil {
				left := s.store.CompletedCount()
				return fmt.Errorf("%s (%d of %d removed)", s.failure(err), n-left, n)
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("cleared %d completed", n))
			return nil
		},
	}
}

// NewToggleAllCommand creates the `toggle-all` command.
func NewToggleAllCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-all",
		Short: "Complete every todo, or reopen all of them if all are done",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openController(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			if len(s.store.Items()) == 0 {
				ui.OK(cmd.OutOrStdout(), "no items")
				return nil
			}
			if err := s.ctrl.ToggleAll(cmd.Context()); err != nil {
				return s.failure(err)
			}
			msg := "all done"
			if !s.store.AllCompleted() {
				msg = "all reopened"
			}
			ui.OK(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func parseID(cmd, arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, usageErr("%s: not a valid id: %s", cmd, arg)
	}
	return n, nil
}
