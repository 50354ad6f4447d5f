package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"options-strategist/internal/server"
)

func addServeCommand(rootCmd *cobra.Command, app *App) {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the valuation engines and the saved strategy collection over HTTP.

The server stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config.Server
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			srv := server.New(server.Config{
				Log:      app.Logger,
				Store:    app.Store,
				Server:   cfg,
				Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
				Defaults: app.Config.Model,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			timeout := cfg.ShutdownTimeout
			if timeout <= 0 {
				timeout = 10 * time.Second
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				app.Logger.Error().Err(err).Msg("Server forced to shutdown")
				return err
			}
			app.Logger.Info().Msg("Server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", app.Config.Server.Host, "listen host")
	cmd.Flags().IntVarP(&port, "port", "p", app.Config.Server.Port, "listen port")
	rootCmd.AddCommand(cmd)
}
