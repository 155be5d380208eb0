package engine

import (
	"context"
	"time"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "rod", "rod-stealth").
	Name() string

	// Fetch retrieves the rendered page for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
	Stealth bool

	// ReadySelector must match at least one element before the page counts
	// as loaded. Empty means no readiness check.
	ReadySelector string
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML string
	// Text is the page's visible text. Engines that cannot render leave it
	// empty and the extractor derives it from HTML.
	Text       string
	Title      string
	StatusCode int
	FinalURL   string
	EngineName string
}
