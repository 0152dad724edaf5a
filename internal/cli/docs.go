package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tadasync/internal/docs"
	"github.com/Makepad-fr/tadasync/internal/ui"
)

func newDocsCmd(app *App) *cobra.Command {
	var (
		raw   bool
		list  bool
		width int
	)

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show the usage guide",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(docs.Topics(), "\n"))
				return nil
			}

			topic := docs.DefaultTopic
			if len(args) == 1 {
				topic = args[0]
			}
			body, ok := docs.Get(topic)
			if !ok {
				return usageErrorf("unknown docs topic %q (run `todo docs --list`)", topic)
			}
			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), docs.Render(body, width, ui.Enabled()))
			return err
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw markdown")
	cmd.Flags().BoolVar(&list, "list", false, "List topics")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width")
	return cmd
}
