package engine

import (
	"math"
	"sync"
	"time"
)

// Retirement thresholds for a browser tab.
const (
	maxPageErrScore = 3.0
	maxPageUses     = 50
	maxPageAge      = 50 * time.Minute
)

// PageHealth tracks how a pooled browser tab has performed.
//
// Scoring: a success lowers the error score by 0.5 (min 0), a failure
// raises it by 1.0. A tab is retired once the score reaches 3, after 50
// uses or after 50 minutes.
type PageHealth struct {
	mu       sync.Mutex
	errScore float64
	useCount int
	created  time.Time
	now      func() time.Time
}

// NewPageHealth starts tracking a freshly created tab.
func NewPageHealth() *PageHealth {
	return &PageHealth{created: time.Now(), now: time.Now}
}

// Record applies the outcome of one use.
func (h *PageHealth) Record(success bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.useCount++
	if success {
		h.errScore = math.Max(0, h.errScore-0.5)
	} else {
		h.errScore += 1.0
	}
}

// ShouldRetire reports whether the tab should be closed instead of reused.
func (h *PageHealth) ShouldRetire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errScore >= maxPageErrScore ||
		h.useCount >= maxPageUses ||
		h.now().Sub(h.created) >= maxPageAge
}
