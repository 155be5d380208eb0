package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/use-agent/fairscrape/extract"
	"github.com/use-agent/fairscrape/models"
)

// CollectAddresses renders the listing and returns the de-duplicated detail
// page addresses in first-seen order. Any failure is a COLLECTION_FAILED
// error.
func CollectAddresses(ctx context.Context, d Driver, listingURL, pattern string) ([]string, error) {
	page, err := d.RenderListing(ctx, listingURL, pattern)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeCollection, "listing page could not be rendered", err)
	}

	links, err := extract.ExhibitorLinks(page.HTML, page.BaseURL(), pattern)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeCollection, "listing page could not be parsed", err)
	}

	slog.Info("exhibitor addresses collected", "url", listingURL, "count", len(links))
	return links, nil
}

// ExtractRecord renders one detail page and extracts its record. A render
// failure yields no record, and so does a panic while handling the page.
func ExtractRecord(ctx context.Context, d Driver, ex *extract.Extractor, url string) (rec *models.ExhibitorRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = models.NewScrapeError(models.ErrCodeInternal, fmt.Sprintf("exhibitor page handling panicked: %v", r), nil)
		}
	}()

	page, err := d.Render(ctx, url)
	if err != nil {
		return nil, err
	}
	extracted := ex.Extract(page)
	extracted.URL = url
	return &extracted, nil
}
