/*
serve.go - HTTP server command

STARTUP SEQUENCE:
  1. Open the SQLite store
  2. Build the handler and metrics collector
  3. Install rates: --rates or rates_file if given, otherwise the newest
     stored version (the preset on first start)
  4. Start the audit scheduler
  5. Serve until SIGINT/SIGTERM, then drain within shutdown_timeout
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/award-engine/api"
	"github.com/warp/award-engine/metrics"
	"github.com/warp/award-engine/store/sqlite"
)

var (
	servePort  int
	serveDB    string
	serveRates string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (overrides server.port)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", `SQLite path, ":memory:" for in-memory (overrides server.db_path)`)
	serveCmd.Flags().StringVar(&serveRates, "rates", "", "rate document to install at startup (overrides rates_file)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveDB != "" {
		cfg.Server.DBPath = serveDB
	}
	if serveRates != "" {
		cfg.RatesFile = serveRates
	}

	engineCfg, err := cfg.Engine.ToAward()
	if err != nil {
		return err
	}

	store, err := sqlite.New(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	collector := metrics.NewCollector()
	handler := api.NewHandler(store, api.Options{
		Config:   engineCfg,
		Region:   cfg.Server.Region,
		Logger:   logger,
		Recorder: collector,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RatesFile != "" {
		doc, err := rateDocument(cfg.RatesFile)
		if err != nil {
			return err
		}
		if _, err := handler.SetRates(ctx, doc); err != nil {
			return fmt.Errorf("install %s: %w", cfg.RatesFile, err)
		}
	} else if err := handler.LoadRates(ctx); err != nil {
		return fmt.Errorf("load rates: %w", err)
	}

	scheduler := api.NewAuditScheduler(handler, cfg.Server.AuditInterval, cfg.Server.AuditLookbackDays)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(handler, api.RouterConfig{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Metrics:        collector,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("db", cfg.Server.DBPath),
			zap.String("region", cfg.Server.Region))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
