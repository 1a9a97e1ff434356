package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/blade/internal/cli"
	httpAdapter "github.com/aretw0/blade/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the engine behind a JSON API over HTTP. The OpenAPI document is served
at /openapi.yaml and Prometheus metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()
		logger := stack.Logger

		opts := []httpAdapter.Option{
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMetrics(stack.Registry),
		}
		if stack.History != nil {
			opts = append(opts, httpAdapter.WithHistory(stack.History))
		}
		handler, err := httpAdapter.NewHandler(stack.Engine, opts...)
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		if watchMode, _ := cmd.Flags().GetBool("watch"); watchMode {
			wait, err := cli.WatchReload(ctx, stack.Engine, logger, nil)
			if err != nil {
				return err
			}
			defer wait()
		}

		srv := &http.Server{
			Addr:              stack.Settings.Listen,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting Blade Server", "address", srv.Addr, "config", stack.Settings.Config)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			ctx.Cancel()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("Start shutdown", "signal", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Blade Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", ":8080", "Address to listen on")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload the configuration when the file changes")
}
