package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/use-agent/fairscrape/config"
	"github.com/use-agent/fairscrape/engine"
	"github.com/use-agent/fairscrape/export"
	"github.com/use-agent/fairscrape/extract"
	"github.com/use-agent/fairscrape/models"
	"github.com/use-agent/fairscrape/pipeline"
	"github.com/use-agent/fairscrape/scraper"
	"github.com/use-agent/fairscrape/store"
	"github.com/use-agent/fairscrape/webhook"
)

// webhookTimeout bounds the run.completed delivery including retries.
const webhookTimeout = 2 * time.Minute

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape the exhibitor directory and export a spreadsheet",
		Long: `Run renders the exhibitor listing, collects every exhibitor profile
address, extracts the contact fields from each profile and writes the table.

The output format follows the --out extension: .xlsx (default), .csv or .md.
Pages that fail are logged and skipped. Interrupting the run (Ctrl+C) still
exports the records gathered so far.

Examples:
  # Full run
  fairscrape run

  # First 20 exhibitors only
  fairscrape run --test

  # Checkpoint into SQLite and continue an interrupted run later
  fairscrape run --db progress.db
  fairscrape run --db progress.db --resume`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	cmd.Flags().Bool("test", false, "Limit the run to the configured test limit (default 20)")
	cmd.Flags().IntP("limit", "l", 0, "Process at most N exhibitor profiles (0 = all)")
	cmd.Flags().StringP("out", "o", "", "Output file (.xlsx, .csv or .md)")
	cmd.Flags().String("listing-url", "", "Exhibitor directory URL")
	cmd.Flags().String("db", "", "SQLite checkpoint store path")
	cmd.Flags().Bool("resume", false, "Skip profiles already in the checkpoint store (requires --db)")

	return cmd
}

func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScrape(ctx, cfg)
}

// applyRunFlags overrides cfg with the flags the user set explicitly.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("test") {
		cfg.Fair.TestMode, _ = flags.GetBool("test")
	}
	if flags.Changed("limit") {
		limit, _ := flags.GetInt("limit")
		if limit < 0 {
			return fmt.Errorf("--limit must not be negative, got %d", limit)
		}
		cfg.Fair.MaxRecords = limit
	}
	if flags.Changed("out") {
		cfg.Fair.OutputPath, _ = flags.GetString("out")
	}
	if flags.Changed("listing-url") {
		cfg.Fair.ListingURL, _ = flags.GetString("listing-url")
	}
	if flags.Changed("db") {
		cfg.Store.Path, _ = flags.GetString("db")
	}
	if flags.Changed("resume") {
		cfg.Store.Resume, _ = flags.GetBool("resume")
	}

	if cfg.Fair.ListingURL == "" {
		return errors.New("listing URL must not be empty")
	}
	if cfg.Fair.OutputPath == "" {
		return errors.New("output path must not be empty")
	}
	if cfg.Store.Resume && cfg.Store.Path == "" {
		return errors.New("--resume requires a checkpoint store (--db)")
	}
	return nil
}

// runScrape performs one run and exports its records. A cancelled run still
// exports what it gathered before returning the cancellation error.
func runScrape(ctx context.Context, cfg *config.Config) error {
	runID := uuid.NewString()
	limit := cfg.EffectiveLimit()
	slog.Info("fairscrape run starting",
		"run_id", runID,
		"listing", cfg.Fair.ListingURL,
		"limit", limit,
		"engines", cfg.Engine.Engines,
		"output", cfg.Fair.OutputPath,
	)

	orch := pipeline.NewOrchestrator(
		newDriverFactory(cfg),
		extract.NewExtractor(cfg.Scraper.PhoneMinDigits),
		pipeline.Options{
			ListingURL:        cfg.Fair.ListingURL,
			DetailPathPattern: cfg.Fair.DetailPathPattern,
			MaxRecords:        limit,
			RecordInterval:    cfg.Scraper.RecordInterval,
			ProgressEvery:     cfg.Scraper.ProgressEvery,
			Resume:            cfg.Store.Resume,
		},
	)

	var st *store.Store
	if cfg.Store.Path != "" {
		var err error
		st, err = store.Open(ctx, cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		orch.WithCheckpoint(st)
		slog.Info("checkpoint store opened", "path", st.Path(), "resume", cfg.Store.Resume)
	}

	res, runErr := orch.Run(ctx)

	// Export and notification must survive an interrupt.
	exportCtx := context.WithoutCancel(ctx)

	if res == nil {
		notify(exportCtx, cfg.Webhook, runID, &webhook.RunCompleted{
			Output: cfg.Fair.OutputPath,
			Error:  runErr.Error(),
		})
		return runErr
	}

	records := res.Records
	if st != nil && cfg.Store.Resume {
		all, err := st.Records(exportCtx)
		if err != nil {
			return err
		}
		records = all
	}

	if err := export.Write(cfg.Fair.OutputPath, records); err != nil {
		return err
	}

	summary := models.Summarize(records, len(res.Failed))
	slog.Info("fairscrape run finished",
		"run_id", runID,
		"collected", res.Collected,
		"records", summary.Total,
		"failed", summary.Failed,
		"skipped", res.Skipped,
		"with_email", summary.WithEmail,
		"with_phone", summary.WithPhone,
		"with_website", summary.WithWebsite,
		"output", cfg.Fair.OutputPath,
	)

	data := &webhook.RunCompleted{
		Output:      cfg.Fair.OutputPath,
		Collected:   res.Collected,
		Records:     summary.Total,
		Failed:      summary.Failed,
		Skipped:     res.Skipped,
		WithEmail:   summary.WithEmail,
		WithPhone:   summary.WithPhone,
		WithWebsite: summary.WithWebsite,
		FailedURLs:  res.Failed,
	}
	if runErr != nil {
		data.Error = runErr.Error()
	}
	notify(exportCtx, cfg.Webhook, runID, data)

	if runErr != nil {
		return fmt.Errorf("run interrupted, %d records exported to %s: %w",
			len(records), cfg.Fair.OutputPath, runErr)
	}
	return nil
}

// newDriverFactory returns a factory that launches the browser and attaches
// the engine chain for detail pages.
func newDriverFactory(cfg *config.Config) pipeline.DriverFactory {
	return func(_ context.Context) (pipeline.Session, error) {
		sc, err := newScraper(cfg)
		if err != nil {
			return nil, err
		}
		return sc, nil
	}
}

// newScraper launches the browser and wires the detail page dispatcher.
func newScraper(cfg *config.Config) (*scraper.Scraper, error) {
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper)
	if err != nil {
		return nil, err
	}

	httpEngine := engine.NewHTTPEngine(cfg.Engine.HTTPTimeout, cfg.Browser.UserAgent, cfg.Browser.AcceptLanguage)
	engines, err := engine.Build(cfg.Engine.Engines, httpEngine, sc.RenderRod)
	if err != nil {
		sc.Close()
		return nil, err
	}
	dispatcher := engine.NewDispatcher(engines, engine.NewDomainMemory(cfg.Engine.MemoryTTL))
	sc.SetDispatcher(dispatcher)
	slog.Debug("detail page engines configured", "engines", dispatcher.Engines())

	return sc, nil
}

// notify sends the run.completed event when a webhook is configured.
// Delivery failures are logged only.
func notify(ctx context.Context, cfg config.WebhookConfig, runID string, data *webhook.RunCompleted) {
	if cfg.URL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	event := &webhook.Event{
		Type:      webhook.EventRunCompleted,
		RunID:     runID,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}
	if err := webhook.Send(ctx, cfg.URL, cfg.Secret, event); err != nil {
		slog.Warn("run.completed webhook not delivered", "url", cfg.URL, "error", err)
	}
}
