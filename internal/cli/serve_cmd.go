package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"sisu-catalog/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, err := app.bootstrap(ctx)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = app.Config.ServeAddr
			}

			srv := server.New(engine, app.logger)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(addr) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			app.logger.Info("shutting down http server")
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default SERVE_ADDR)")
	return cmd
}
