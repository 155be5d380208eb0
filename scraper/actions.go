package scraper

import (
	"log/slog"
	"time"

	"github.com/go-rod/rod"
)

const (
	countJS  = `(sel) => document.querySelectorAll(sel).length`
	grownJS  = `(sel, n) => document.querySelectorAll(sel).length > n`
	scrollJS = `() => window.scrollTo(0, document.body ? document.body.scrollHeight : 0)`
	textJS   = `() => document.body ? document.body.innerText : ""`
)

// scrollForEntries scrolls to the bottom of the page up to MaxScrolls times.
// After each scroll it waits up to ScrollSettle for more entries matching
// selector to appear, and stops after ScrollIdleRounds scrolls in a row
// that loaded nothing. Returns the final entry count.
func (s *Scraper) scrollForEntries(p *rod.Page, selector string) int {
	t := newScrollTracker(s.scraperCfg.MaxScrolls, s.scraperCfg.ScrollIdleRounds, countMatches(p, selector))

	for t.more() {
		if p.GetContext().Err() != nil {
			break
		}
		if _, err := p.Eval(scrollJS); err != nil {
			slog.Debug("scroll failed", "round", t.rounds+1, "error", err)
			break
		}

		if s.scraperCfg.ScrollSettle > 0 {
			err := within(p, s.scraperCfg.ScrollSettle, func(tp *rod.Page) error {
				return tp.Wait(rod.Eval(grownJS, selector, t.count))
			})
			if err != nil {
				slog.Debug("no new entries after scroll", "round", t.rounds+1, "entries", t.count)
			}
		}

		t.observe(countMatches(p, selector))
	}
	if t.stalled() {
		slog.Debug("listing stopped growing", "rounds", t.rounds, "entries", t.count)
	}
	return t.count
}

// scrollTracker counts scroll rounds and decides when to stop: after
// maxScrolls rounds, or after idleRounds rounds in a row without growth.
// idleRounds <= 0 disables the early stop.
type scrollTracker struct {
	maxScrolls int
	idleRounds int

	rounds int
	idle   int
	count  int
}

func newScrollTracker(maxScrolls, idleRounds, initial int) *scrollTracker {
	return &scrollTracker{maxScrolls: maxScrolls, idleRounds: idleRounds, count: initial}
}

// more reports whether another scroll is allowed.
func (t *scrollTracker) more() bool {
	return t.rounds < t.maxScrolls && !t.stalled()
}

func (t *scrollTracker) stalled() bool {
	return t.idleRounds > 0 && t.idle >= t.idleRounds
}

// observe records the entry count after one scroll.
func (t *scrollTracker) observe(n int) {
	t.rounds++
	if n > t.count {
		t.count = n
		t.idle = 0
		return
	}
	t.idle++
}

// waitReady waits for selector to match, falling back to DOM stability when
// it does not appear within ReadyTimeout. A page that never settles is still
// read as-is.
func (s *Scraper) waitReady(p *rod.Page, selector string) {
	if selector != "" {
		err := within(p, s.scraperCfg.ReadyTimeout, func(tp *rod.Page) error {
			return tp.WaitElementsMoreThan(selector, 0)
		})
		if err == nil {
			return
		}
		slog.Debug("ready selector did not appear, waiting for DOM stability",
			"selector", selector, "error", err)
	}
	err := within(p, s.scraperCfg.ReadyTimeout, func(tp *rod.Page) error {
		return tp.WaitDOMStable(300*time.Millisecond, 0.1)
	})
	if err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
}

// within runs fn on a copy of p limited to d.
func within(p *rod.Page, d time.Duration, fn func(*rod.Page) error) error {
	if d <= 0 {
		return fn(p)
	}
	tp := p.Timeout(d)
	defer tp.CancelTimeout()
	return fn(tp)
}

func countMatches(p *rod.Page, selector string) int {
	res, err := p.Eval(countJS, selector)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}
