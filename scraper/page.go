package scraper

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/fairscrape/engine"
	"github.com/use-agent/fairscrape/extract"
	"github.com/use-agent/fairscrape/models"
	"github.com/ysmood/gson"
)

// RenderListing renders the exhibitor listing, scrolls until no more entries
// load and returns the page. Entries are anchors whose href contains pattern.
// The listing always goes through the browser.
func (s *Scraper) RenderListing(ctx context.Context, listingURL, pattern string) (*models.Page, error) {
	if s.scraperCfg.ListingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.scraperCfg.ListingTimeout)
		defer cancel()
	}

	selector := extract.AnchorSelector(pattern)
	var page *models.Page
	err := s.withPage(ctx, s.browserCfg.Stealth, nil, func(p *rod.Page) error {
		if err := p.Navigate(listingURL); err != nil {
			return categorizeError(err, "navigation to listing page failed")
		}

		err := within(p, s.scraperCfg.ReadyTimeout, func(tp *rod.Page) error {
			return tp.WaitElementsMoreThan(selector, 0)
		})
		if err != nil {
			if ctx.Err() != nil {
				return categorizeError(ctx.Err(), "listing page did not become ready")
			}
			slog.Warn("no exhibitor entries appeared on listing page",
				"url", listingURL, "selector", selector, "error", err)
		}

		entries := s.scrollForEntries(p, selector)
		slog.Info("listing page loaded", "url", listingURL, "entries", entries)

		res, err := snapshot(p, listingURL)
		if err != nil {
			return err
		}
		page = toPage(listingURL, res)
		page.Engine = "rod"
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Render fetches one detail page. With a dispatcher configured the page goes
// through the engine chain, otherwise straight to the browser.
func (s *Scraper) Render(ctx context.Context, url string) (*models.Page, error) {
	req := &engine.FetchRequest{
		URL:           url,
		Timeout:       s.scraperCfg.NavigationTimeout,
		Stealth:       s.browserCfg.Stealth,
		ReadySelector: s.scraperCfg.DetailReadySelector,
	}

	var (
		res *engine.FetchResult
		err error
	)
	if s.dispatcher != nil {
		res, err = s.dispatcher.Dispatch(ctx, req)
	} else {
		res, err = s.RenderRod(ctx, req)
	}
	if err != nil {
		return nil, categorizeError(err, "detail page could not be rendered")
	}
	return toPage(url, res), nil
}

// RenderRod renders req in the browser, bypassing the dispatcher. It is the
// callback behind the "rod" and "rod-stealth" engines.
func (s *Scraper) RenderRod(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = s.scraperCfg.NavigationTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var result *engine.FetchResult
	err := s.withPage(ctx, req.Stealth, req.Headers, func(p *rod.Page) error {
		if err := p.Navigate(req.URL); err != nil {
			return categorizeError(err, "navigation to detail page failed")
		}
		s.waitReady(p, req.ReadySelector)

		res, err := snapshot(p, req.URL)
		if err != nil {
			return err
		}
		res.EngineName = "rod"
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// pageState is what the scraper remembers about a pooled tab.
type pageState struct {
	health  *engine.PageHealth
	stealth bool
}

// withPage borrows a tab from the pool, prepares it and runs fn with the tab
// bound to ctx.
//
// Stealth and resource blocking are installed before fn navigates: they only
// affect navigations that start after them. The tab is reset to about:blank
// and returned to the pool afterwards using the original page reference, so
// cleanup works even when ctx has expired. Unhealthy tabs are closed instead.
func (s *Scraper) withPage(ctx context.Context, wantStealth bool, headers map[string]string, fn func(p *rod.Page) error) (err error) {
	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, acquireErr := s.pagePool.Get(s.newPage)
	if acquireErr != nil {
		s.pagePool.Put(nil)
		return models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}
	st := s.state(page)

	defer func() {
		st.health.Record(err == nil)
		if st.health.ShouldRetire() {
			slog.Debug("retiring browser tab")
			s.forget(page)
			_ = page.Close()
			s.pagePool.Put(nil)
			return
		}
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		s.pagePool.Put(page)
	}()

	if wantStealth && !st.stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		} else {
			st.stealth = true
		}
	}

	if len(headers) > 0 {
		merged := s.baseHeaders()
		for k, v := range headers {
			merged[k] = v
		}
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(merged)}.Call(page)
		defer func() {
			_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(s.baseHeaders())}.Call(page)
		}()
	}

	if router := setupHijack(page, s.scraperCfg.BlockedResourceTypes); router != nil {
		defer func() { _ = router.Stop() }()
	}

	return fn(page.Context(ctx))
}

// newPage opens a tab with the configured user agent and language headers.
func (s *Scraper) newPage() (*rod.Page, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}

	if s.browserCfg.UserAgent != "" {
		if err := (proto.NetworkSetUserAgentOverride{
			UserAgent:      s.browserCfg.UserAgent,
			AcceptLanguage: s.browserCfg.AcceptLanguage,
		}).Call(page); err != nil {
			slog.Warn("user agent override failed", "error", err)
		}
	}
	if headers := s.baseHeaders(); len(headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(page)
	}
	return page, nil
}

func (s *Scraper) baseHeaders() map[string]string {
	headers := make(map[string]string, 1)
	if s.browserCfg.AcceptLanguage != "" {
		headers["Accept-Language"] = s.browserCfg.AcceptLanguage
	}
	return headers
}

func (s *Scraper) state(page *rod.Page) *pageState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	st, ok := s.states[page]
	if !ok {
		st = &pageState{health: engine.NewPageHealth()}
		s.states[page] = st
	}
	return st
}

func (s *Scraper) forget(page *rod.Page) {
	s.stateMu.Lock()
	delete(s.states, page)
	s.stateMu.Unlock()
}

// snapshot reads the rendered page: HTML, visible text, title, final URL and
// the navigation's status code.
func snapshot(p *rod.Page, requested string) (*engine.FetchResult, error) {
	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = requested
	}

	var statusCode int
	if res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); err == nil {
		statusCode = res.Value.Int()
	}

	return &engine.FetchResult{
		HTML:       rawHTML,
		Text:       evalStringOrEmpty(p, textJS),
		Title:      evalStringOrEmpty(p, `() => document.title`),
		StatusCode: statusCode,
		FinalURL:   finalURL,
	}, nil
}

func toPage(url string, res *engine.FetchResult) *models.Page {
	return &models.Page{
		URL:      url,
		FinalURL: res.FinalURL,
		HTML:     res.HTML,
		Text:     res.Text,
		Title:    res.Title,
		Engine:   res.EngineName,
	}
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to proto.NetworkHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so callers can map
// them to error codes. Errors that are already typed pass through.
func categorizeError(err error, msg string) *models.ScrapeError {
	var se *models.ScrapeError
	switch {
	case errors.As(err, &se):
		return se
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
