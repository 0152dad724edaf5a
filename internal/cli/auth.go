package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tadasync/internal/ui"
)

func newLoginCmd(app *App) *cobra.Command {
	var expiresIn time.Duration

	cmd := &cobra.Command{
		Use:   "login <token>",
		Short: "Save the bearer token used by the http backend",
		Long: strings.TrimSpace(`
Save the bearer token used by the http backend to <data_dir>/credentials.json
(readable only by you). TADA_TOKEN, when set, takes precedence.
`),
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(args[0]) == "" {
				return usageErrorf("login: empty token")
			}
			var expires *time.Time
			if expiresIn > 0 {
				t := time.Now().Add(expiresIn)
				expires = &t
			}
			if err := app.creds().Set(args[0], expires); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "logged in")
			return nil
		},
	}

	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "Forget the token after this long (e.g. 720h)")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved bearer token",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.creds().Delete(); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}
