package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/fairscrape/api"
	"github.com/use-agent/fairscrape/extract"
)

// shutdownGrace is how long in-flight requests get after a shutdown signal.
const shutdownGrace = 5 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve exhibitor extraction over HTTP",
		Long: `Serve starts the HTTP API backed by one shared browser:

  GET  /api/v1/health   pool status (no auth)
  POST /api/v1/extract  {"url": "..."}  one exhibitor record
  POST /api/v1/collect  {"listing_url": "...", "limit": N}  profile addresses

Requests need an API key (X-API-Key or Authorization: Bearer) unless auth is
disabled. Keys come from FAIRSCRAPE_API_KEYS.`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().String("host", "", "Listen host (overrides config)")
	cmd.Flags().IntP("port", "p", 0, "Listen port (overrides config)")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}

	slog.Info("fairscrape server starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
		"auth", cfg.Auth.Enabled,
	)

	sc, err := newScraper(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialise scraper: %w", err)
	}
	defer sc.Close()

	ex := extract.NewExtractor(cfg.Scraper.PhoneMinDigits)
	router := api.NewRouter(sc, ex, cfg, time.Now(), getVersion())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// sc.Close runs via defer: drains the page pool and kills Chrome.
	slog.Info("fairscrape server stopped")
	return nil
}
