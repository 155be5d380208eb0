package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/fairscrape/extract"
	"github.com/use-agent/fairscrape/models"
	"golang.org/x/time/rate"
)

// Options controls one run.
type Options struct {
	ListingURL        string
	DetailPathPattern string

	// MaxRecords truncates the address list. Zero means all.
	MaxRecords int

	// RecordInterval is the minimum spacing between detail page loads.
	RecordInterval time.Duration

	// ProgressEvery logs progress after every N addresses. Zero disables it.
	ProgressEvery int

	// Resume skips addresses the checkpoint already holds.
	Resume bool
}

// Result is what a run produced.
type Result struct {
	// Records holds one record per successfully rendered address, in
	// address order.
	Records []models.ExhibitorRecord

	// Collected is the number of addresses found on the listing page,
	// before truncation.
	Collected int

	// Failed lists the addresses whose page could not be rendered.
	Failed []string

	// Skipped counts addresses passed over because the checkpoint had them.
	Skipped int
}

// Summary returns the per-field counts for the run's records.
func (r *Result) Summary() models.Summary {
	return models.Summarize(r.Records, len(r.Failed))
}

// Orchestrator runs setup, collection, extraction and teardown in sequence.
type Orchestrator struct {
	newDriver  DriverFactory
	extractor  *extract.Extractor
	checkpoint Checkpoint
	opts       Options
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(newDriver DriverFactory, ex *extract.Extractor, opts Options) *Orchestrator {
	return &Orchestrator{
		newDriver: newDriver,
		extractor: ex,
		opts:      opts,
	}
}

// WithCheckpoint makes the run save every record to c as it is extracted.
func (o *Orchestrator) WithCheckpoint(c Checkpoint) *Orchestrator {
	o.checkpoint = c
	return o
}

// Run performs one scrape. The driver session is closed on every exit path.
//
// A collection failure aborts the run with no result. A detail page that
// fails is logged and skipped. When ctx is cancelled between records the
// partial result is returned together with ctx's error.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	session, err := o.newDriver(ctx)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to start page driver", err)
	}
	defer session.Close()

	addresses, err := CollectAddresses(ctx, session, o.opts.ListingURL, o.opts.DetailPathPattern)
	if err != nil {
		return nil, err
	}

	res := &Result{Collected: len(addresses)}
	if o.opts.MaxRecords > 0 && len(addresses) > o.opts.MaxRecords {
		addresses = addresses[:o.opts.MaxRecords]
		slog.Info("address list truncated", "collected", res.Collected, "limit", o.opts.MaxRecords)
	}

	var limiter *rate.Limiter
	if o.opts.RecordInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(o.opts.RecordInterval), 1)
	}

	total := len(addresses)
	for i, addr := range addresses {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		slog.Debug("processing exhibitor page", "index", i+1, "total", total, "url", addr)

		if err := o.visit(ctx, session, limiter, addr, res); err != nil {
			return res, err
		}

		if o.opts.ProgressEvery > 0 && (i+1)%o.opts.ProgressEvery == 0 {
			slog.Info("progress", "processed", i+1, "total", total, "records", len(res.Records))
		}
	}

	slog.Info("extraction finished",
		"records", len(res.Records),
		"failed", len(res.Failed),
		"skipped", res.Skipped,
	)
	return res, nil
}

// visit handles one address: resume skip, pacing, extraction and checkpoint.
// A page that fails is recorded in res.Failed; only a done context is
// returned as an error.
func (o *Orchestrator) visit(ctx context.Context, session Session, limiter *rate.Limiter, addr string, res *Result) error {
	if o.opts.Resume && o.checkpoint != nil {
		done, err := o.checkpoint.HasRecord(ctx, addr)
		if err != nil {
			slog.Warn("checkpoint lookup failed", "url", addr, "error", err)
		} else if done {
			res.Skipped++
			return nil
		}
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}

	rec, err := ExtractRecord(ctx, session, o.extractor, addr)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("exhibitor page failed", "url", addr, "error", err)
		res.Failed = append(res.Failed, addr)
		return nil
	}

	res.Records = append(res.Records, *rec)
	if o.checkpoint != nil {
		if err := o.checkpoint.SaveRecord(ctx, rec); err != nil {
			slog.Warn("checkpoint write failed", "url", addr, "error", err)
		}
	}
	return nil
}
