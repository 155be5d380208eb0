package models

// ExtractRequest is the payload for POST /api/v1/extract.
type ExtractRequest struct {
	// URL is the exhibitor detail page. Required.
	URL string `json:"url" binding:"required,url"`

	// MaxAge accepts a cached record younger than this many milliseconds.
	// 0 always renders the page.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// CollectRequest is the payload for POST /api/v1/collect.
type CollectRequest struct {
	// ListingURL overrides the configured exhibitor directory.
	ListingURL string `json:"listing_url,omitempty" binding:"omitempty,url"`

	// Limit truncates the returned address list. 0 means no limit.
	Limit int `json:"limit,omitempty" binding:"omitempty,min=0"`
}
