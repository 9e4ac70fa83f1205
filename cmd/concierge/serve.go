package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/concierge/internal/cli"
	apihttp "github.com/aretw0/concierge/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Starts the assistant behind a JSON API with session management, a graph view and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Address = addr
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		rt, err := cli.Build(sigCtx, cfg, logger, os.Stderr)
		if err != nil {
			return err
		}
		defer func() {
			if err := rt.Close(context.Background()); err != nil {
				logger.Error("Failed to close backends", "error", err)
			}
		}()

		if dir, _ := cmd.Flags().GetString("articles"); dir != "" {
			report, err := cli.IndexDir(sigCtx, rt.Content, dir, logger)
			if err != nil {
				return err
			}
			logger.Info("Articles indexed", "documents", report.Documents, "skipped", report.Skipped, "chunks", report.Chunks)
		}

		opts := []apihttp.Option{
			apihttp.WithLogger(logger),
			apihttp.WithHealthCheck(rt.HealthCheck),
		}
		if rt.Metrics != nil {
			opts = append(opts, apihttp.WithMetrics(rt.Metrics.Handler()))
		}
		srv := &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           apihttp.NewHandler(rt.Assistant, rt.Assistant.Sessions(), opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Concierge server listening", "address", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case <-sigCtx.Done():
			logger.Info("Shutting down", "signal", sigCtx.Signal())
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Shutdown)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("graceful shutdown did not complete in %v: %w", cfg.Server.Shutdown, err)
			}
			logger.Info("Concierge server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides server.address)")
	serveCmd.Flags().String("articles", "", "Directory of travel articles to index before serving")
}
