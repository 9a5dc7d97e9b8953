package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raysh454/sitelens/internal/app"
	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/server"
)

func newServeCmd(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP + WebSocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return opts.withApp(cmd, func(a *app.Application) error {
				s, err := server.NewServer(server.Config{ListenAddr: addr, App: a, Logger: opts.logger})
				if err != nil {
					return err
				}
				defer s.Close()

				httpSrv := s.HTTPServer()
				errCh := make(chan error, 1)
				go func() {
					opts.logger.Info("listening", logging.Field{Key: "addr", Value: httpSrv.Addr})
					errCh <- httpSrv.ListenAndServe()
				}()

				select {
				case err := <-errCh:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return err
				case <-ctx.Done():
				}

				opts.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return httpSrv.Shutdown(shutdownCtx)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
