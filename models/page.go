package models

// Page is a rendered page as handed from a fetch engine to the extractor.
type Page struct {
	// URL is the address that was requested.
	URL string

	// FinalURL is the address after redirects; relative links resolve against it.
	FinalURL string

	// HTML is the rendered document.
	HTML string

	// Text is the visible text (document.body.innerText) when the engine can
	// produce it. Empty means the extractor derives it from HTML.
	Text string

	// Title is the document title.
	Title string

	// Engine records which engine produced the page ("rod", "http", ...).
	Engine string
}

// BaseURL returns FinalURL, falling back to URL.
func (p *Page) BaseURL() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}
