// Package scraper drives a headless Chrome through go-rod: it renders the
// exhibitor listing (scrolling until no more entries load) and detail pages,
// and returns their HTML together with the browser's visible text.
package scraper

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/fairscrape/config"
	"github.com/use-agent/fairscrape/engine"
	"github.com/use-agent/fairscrape/models"
)

// Scraper manages the browser lifecycle and the page pool.
// It is safe for concurrent use.
type Scraper struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	browserCfg  config.BrowserConfig
	scraperCfg  config.ScraperConfig
	activePages atomic.Int32
	startTime   time.Time
	dispatcher  *engine.Dispatcher

	stateMu sync.Mutex
	states  map[*rod.Page]*pageState

	closeOnce sync.Once
}

// NewScraper launches a headless browser and initialises the reusable page pool.
func NewScraper(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) (*Scraper, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("window-size"), "1920,1080")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	maxPages := browserCfg.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}
	pool := rod.NewPagePool(maxPages)
	slog.Info("page pool created", "maxPages", maxPages)

	return &Scraper{
		browser:    browser,
		pagePool:   pool,
		browserCfg: browserCfg,
		scraperCfg: scraperCfg,
		startTime:  time.Now(),
		states:     make(map[*rod.Page]*pageState),
	}, nil
}

// SetDispatcher sets the multi-engine dispatcher. When set, detail pages are
// fetched through it; the listing always uses the browser.
func (s *Scraper) SetDispatcher(d *engine.Dispatcher) {
	s.dispatcher = d
}

// Stats returns a snapshot of the pool's current state.
func (s *Scraper) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    s.browserCfg.MaxPages,
		ActivePages: int(s.activePages.Load()),
	}
}

// Close drains the page pool and kills the browser process. Calling it more
// than once is a no-op.
func (s *Scraper) Close() {
	s.closeOnce.Do(func() {
		slog.Info("scraper shutting down: draining page pool")
		s.pagePool.Cleanup(func(p *rod.Page) {
			_ = p.Close()
		})
		slog.Info("scraper shutting down: closing browser")
		if err := s.browser.Close(); err != nil {
			slog.Warn("browser close failed", "error", err)
		}
		slog.Info("scraper shutdown complete")
	})
}
