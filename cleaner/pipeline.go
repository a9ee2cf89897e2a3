package cleaner

import (
	"log/slog"
	"strings"

	"github.com/use-agent/reader/models"
)

// Cleaner turns a selected snapshot into a Document:
//
//	Stage 1 (convert): main-content HTML -> Markdown, plain text on raw echo
//	Stage 2 (tidy):    multi-pass Markdown normalization
//	Stage 3 (assemble): title/url/content with ordered fallbacks
//
// The converter is created once and reused across all requests (goroutine-safe).
type Cleaner struct {
	conv HTMLConverter
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithConverter replaces the default GFM converter.
func WithConverter(conv HTMLConverter) Option {
	return func(c *Cleaner) { c.conv = conv }
}

// NewCleaner initialises the Cleaner with a pre-configured Markdown converter.
func NewCleaner(opts ...Option) *Cleaner {
	c := &Cleaner{conv: NewGFMConverter()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Format assembles the Document for a snapshot. The snapshot is not modified.
func (c *Cleaner) Format(snap *models.Snapshot) *models.Document {
	var parsedTitle string
	if snap.Parsed != nil {
		parsedTitle = snap.Parsed.Title
	}

	return &models.Document{
		Title:   firstNonBlank(parsedTitle, snap.Title),
		URL:     strings.TrimSpace(snap.Href),
		Content: TidyMarkdown(c.ToMarkdown(snap)),
	}
}

// ToMarkdown converts the snapshot's main-content HTML to Markdown.
//
// An empty Parsed.Content yields "". When the converter fails, or its output
// still looks like markup (starts with '<' and ends with '>'), the snapshot's
// plain text is used instead.
func (c *Cleaner) ToMarkdown(snap *models.Snapshot) string {
	if snap.Parsed == nil || snap.Parsed.Content == "" {
		return ""
	}

	return firstContent(
		func() (string, bool) {
			md, err := c.conv.Convert(snap.Parsed.Content, snap.Href)
			if err != nil {
				slog.Warn("markdown conversion failed, using page text",
					"url", snap.Href, "error", err,
				)
				return "", false
			}
			md = strings.TrimSpace(md)
			if looksLikeMarkup(md) {
				slog.Debug("markdown conversion echoed markup, using page text",
					"url", snap.Href,
				)
				return "", false
			}
			return md, true
		},
		func() (string, bool) {
			return strings.TrimSpace(snap.Text), true
		},
	)
}

// looksLikeMarkup is a crude raw-HTML detector for converters that echo their
// input. It is not an HTML sniffer.
func looksLikeMarkup(s string) bool {
	return strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">")
}

// firstNonBlank returns the first candidate that is non-empty after trimming,
// trimmed, or "".
func firstNonBlank(candidates ...string) string {
	for _, c := range candidates {
		if t := strings.TrimSpace(c); t != "" {
			return t
		}
	}
	return ""
}

// contentSource produces a content candidate; ok=false passes to the next one.
type contentSource func() (content string, ok bool)

// firstContent returns the first accepted candidate, or "".
func firstContent(sources ...contentSource) string {
	for _, src := range sources {
		if content, ok := src(); ok {
			return content
		}
	}
	return ""
}
