package cleaner

import (
	"log/slog"

	"github.com/use-agent/reader/models"
)

// Capture is what an engine observed of a page at one moment.
type Capture struct {
	HTML   string // full rendered HTML
	Title  string // document.title
	Href   string // location.href after redirects
	Text   string // visible text of the whole page
	Engine string

	// Selector optionally narrows HTML before main-content extraction.
	Selector string
}

// NewSnapshot turns a capture into a Snapshot, filling Parsed with the
// readability extraction. Extraction problems are logged and leave Parsed
// nil; they never fail the capture.
func NewSnapshot(c Capture) *models.Snapshot {
	snap := &models.Snapshot{
		Title:  c.Title,
		Href:   c.Href,
		Text:   c.Text,
		Engine: c.Engine,
	}

	html := c.HTML
	if c.Selector != "" {
		narrowed, matched, err := NarrowToSelector(html, c.Selector)
		switch {
		case err != nil:
			slog.Warn("snapshot: target selector failed, using full page",
				"url", c.Href, "selector", c.Selector, "error", err,
			)
		case !matched:
			slog.Debug("snapshot: target selector matched nothing, using full page",
				"url", c.Href, "selector", c.Selector,
			)
		default:
			html = narrowed
		}
	}

	parsed, err := ParseArticle(html, c.Href)
	if err != nil {
		slog.Warn("snapshot: readability failed",
			"url", c.Href, "engine", c.Engine, "error", err,
		)
		return snap
	}
	snap.Parsed = parsed
	return snap
}
