package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tadasync/internal/config"
	"github.com/Makepad-fr/tadasync/internal/logging"
	"github.com/Makepad-fr/tadasync/internal/store"
	"github.com/Makepad-fr/tadasync/internal/store/httpstore"
)

func newServeCmd(app *App) *cobra.Command {
	var addr, token string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local collection over HTTP",
		Long: strings.TrimSpace(`
Serve the configured local backend as an HTTP document collection, so that
other machines can use it with backend = "http".

Requests need "Authorization: Bearer <token>" when --token (or
TADA_SERVE_TOKEN) is set.
`),
		Example: strings.TrimSpace(`
todo serve --addr 127.0.0.1:8707
TADA_SERVE_TOKEN=s3cret todo serve --addr :8707
`),
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Config.Backend == config.BackendHTTP {
				return usageErrorf("serve needs a local backend, not http")
			}
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				listenAddr = app.Config.ServeAddr
			}

			logger := logging.New(cmd.ErrOrStderr(), logging.Options{
				Level:     app.Config.LogLevel,
				Format:    app.Config.LogFormat,
				Prefix:    "todo",
				Timestamp: true,
			})

			ctx := cmd.Context()
			coll, err := app.openCollection(ctx)
			if err != nil {
				return fmt.Errorf("open %s collection: %w", app.Config.Backend, err)
			}
			defer func() {
				if err := store.Close(coll); err != nil {
					logger.Warn("close collection", "err", err)
				}
			}()

			srv := httpstore.NewServer(app.Config.Collection, coll,
				httpstore.WithToken(token),
				httpstore.WithLogger(logger),
			)

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return err
			}
			url := "http://" + ln.Addr().String()
			fmt.Fprintf(cmd.OutOrStdout(), "serving %s at %s\n", app.Config.Collection, url)
			logger.Info("serving", "collection", app.Config.Collection, "backend", app.Config.Backend, "url", url, "auth", token != "")

			return serve(ctx, ln, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (host:port or :port; default serve_addr)")
	cmd.Flags().StringVar(&token, "token", envOr("TADA_SERVE_TOKEN", ""), "Bearer token clients must send")
	return cmd
}

// serve runs until ctx ends, then shuts down gracefully.
func serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	hs := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- hs.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}
