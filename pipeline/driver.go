// Package pipeline runs a scrape: collect exhibitor addresses from the
// listing page, extract one record per address and hand the records back
// for export.
package pipeline

import (
	"context"

	"github.com/use-agent/fairscrape/models"
)

// Driver renders pages. *scraper.Scraper is the production implementation.
type Driver interface {
	// RenderListing renders the listing page and loads every entry whose
	// anchor href contains pattern.
	RenderListing(ctx context.Context, listingURL, pattern string) (*models.Page, error)

	// Render renders one detail page.
	Render(ctx context.Context, url string) (*models.Page, error)
}

// Session is a Driver that owns a browser and must be closed.
type Session interface {
	Driver
	Close()
}

// DriverFactory starts a Session.
type DriverFactory func(ctx context.Context) (Session, error)

// Checkpoint persists records as soon as they are extracted.
type Checkpoint interface {
	SaveRecord(ctx context.Context, rec *models.ExhibitorRecord) error
	HasRecord(ctx context.Context, url string) (bool, error)
}
