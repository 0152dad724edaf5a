package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tadasync/internal/format"
	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/todolist"
	"github.com/Makepad-fr/tadasync/internal/ui"
)

func newListCmd(app *App) *cobra.Command {
	var (
		group  bool
		output string
		pretty bool
	)

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List todos",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" && output != "yaml" {
				return usageErrorf("unknown format %q (want text, json or yaml)", output)
			}
			logger := app.stderrLogger(cmd)
			return app.withBoard(cmd, logger, true, func(board *todolist.Board) error {
				items := board.Items()
				if output != "text" {
					return format.Write(cmd.OutOrStdout(), items, output, pretty)
				}
				printList(cmd, items, group)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&group, "group", false, "Group by pending/done")
	cmd.Flags().StringVar(&output, "format", "text", "Output format (text|json|yaml)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	return cmd
}

func printList(cmd *cobra.Command, items []model.Todo, group bool) {
	lines := ui.Header(items)
	lines = append(lines, "")
	if group {
		lines = append(lines, ui.GroupLines(items)...)
	} else {
		lines = append(lines, ui.FlatLines(items)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(ui.Current().Muted, "Tip: add with `todo add Buy milk`"))
	ui.Panel(cmd.OutOrStdout(), lines)
}

func newAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a todo (text can be multiple words)",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				return usageErrorf("add: empty text")
			}
			logger := app.stderrLogger(cmd)
			return app.withBoard(cmd, logger, false, func(board *todolist.Board) error {
				todo, _, err := board.Add(cmd.Context(), text)
				if err != nil {
					return err
				}
				ui.OK(cmd.OutOrStdout(), "added "+todo.ID)
				return nil
			})
		},
	}
}

func newDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a todo between pending and done",
		Long:  "Toggle a todo between pending and done. Any unique prefix of the id works.",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := app.stderrLogger(cmd)
			return app.withBoard(cmd, logger, true, func(board *todolist.Board) error {
				id, err := resolveID(board.Items(), args[0])
				if err != nil {
					return err
				}
				if err := board.Toggle(id).Wait(cmd.Context()); err != nil {
					return err
				}
				todo, _ := board.Find(id)
				if todo.Completed {
					ui.OK(cmd.OutOrStdout(), "done: "+todo.Text)
				} else {
					ui.OK(cmd.OutOrStdout(), "reopened: "+todo.Text)
				}
				return nil
			})
		},
	}
}

func newRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Long:    "Delete a todo. Any unique prefix of the id works.",
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := app.stderrLogger(cmd)
			return app.withBoard(cmd, logger, true, func(board *todolist.Board) error {
				id, err := resolveID(board.Items(), args[0])
				if err != nil {
					return err
				}
				if err := board.Delete(id).Wait(cmd.Context()); err != nil {
					return err
				}
				ui.OK(cmd.OutOrStdout(), "removed "+id)
				return nil
			})
		},
	}
}

// resolveID finds the todo arg names: an exact id, else the one id it
// prefixes.
func resolveID(items []model.Todo, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", usageErrorf("empty id")
	}
	var matches []string
	for _, it := range items {
		if it.ID == arg {
			return it.ID, nil
		}
		if strings.HasPrefix(it.ID, arg) {
			matches = append(matches, it.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", notFoundError{id: arg}
	case 1:
		return matches[0], nil
	default:
		return "", ambiguousError{id: arg, matches: matches}
	}
}

