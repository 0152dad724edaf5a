package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tadasync/internal/config"
)

func newConfigCmd(app *App) *cobra.Command {
	var example bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the configuration in effect",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if example {
				_, err := fmt.Fprint(out, config.Example)
				return err
			}

			cfg := app.Config
			for _, f := range cfg.Files {
				fmt.Fprintf(out, "# from %s\n", f)
			}
			// Durations go out as strings so the file reads back.
			return toml.NewEncoder(out).Encode(map[string]any{
				"backend":       cfg.Backend,
				"collection":    cfg.Collection,
				"data_dir":      cfg.DataDir,
				"url":           cfg.URL,
				"theme":         cfg.Theme,
				"log_level":     cfg.LogLevel,
				"log_format":    cfg.LogFormat,
				"log_file":      cfg.LogPath(),
				"write_timeout": cfg.WriteTimeout.String(),
				"serve_addr":    cfg.ServeAddr,
			})
		},
	}

	cmd.Flags().BoolVar(&example, "example", false, "Print a commented example file")
	return cmd
}
