package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/fairscrape/config"
)

// NewRootCmd creates the root command for fairscrape.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fairscrape",
		Short: "Exhibitor directory scraper for the Leipzig Book Fair",
		Long: `fairscrape renders the Leipzig Book Fair 2026 exhibitor directory in a
headless browser, visits every exhibitor profile and exports name, country,
contact person, email, phone, website, address and hall/stand to a spreadsheet.

Configuration is read from defaults, the YAML file named by FAIRSCRAPE_CONFIG,
FAIRSCRAPE_* environment variables (a .env file is honoured) and finally the
command line flags.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the layered configuration and installs the logger.
// --verbose forces debug level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Log.Level = "debug"
	}
	slog.SetDefault(newLogger(cfg.Log, cmd.ErrOrStderr()))
	return cfg, nil
}

// newLogger builds a slog logger from cfg writing to w.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
