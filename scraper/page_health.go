package scraper

import (
	"math"
	"time"
)

// Retirement triggers for pooled pages (any one):
//   - errScore >= maxErrScore
//   - useCount >= maxPageUses
//   - age >= maxPageAge
const (
	maxErrScore = 3.0
	maxPageUses = 50
	maxPageAge  = 50 * time.Minute
)

// pageHealth tracks how a pooled page has behaved. A success lowers the
// error score by 0.5 (min 0); a failure raises it by 1.
type pageHealth struct {
	errScore float64
	useCount int
	created  time.Time
}

func newPageHealth(now time.Time) *pageHealth {
	return &pageHealth{created: now}
}

func (h *pageHealth) record(success bool) {
	h.useCount++
	if success {
		h.errScore = math.Max(0, h.errScore-0.5)
		return
	}
	h.errScore++
}

func (h *pageHealth) shouldRetire(now time.Time) bool {
	return h.errScore >= maxErrScore ||
		h.useCount >= maxPageUses ||
		now.Sub(h.created) >= maxPageAge
}
