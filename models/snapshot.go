package models

import (
	"context"
	"strings"
)

// Snapshot is one captured state of a rendered page.
//
// Engines emit snapshots in arrival order; later snapshots of the same
// navigation usually reflect a more complete render.
type Snapshot struct {
	// Title is the raw document title. May be blank.
	Title string `json:"title"`

	// Href is the final resolved URL of the captured page.
	Href string `json:"href"`

	// Text is the plain-text rendering of the whole page.
	Text string `json:"text"`

	// Parsed is the readability extraction of the main content, if any.
	Parsed *ParsedContent `json:"parsed,omitempty"`

	// Engine names the engine that produced the snapshot ("http", "rod", ...).
	Engine string `json:"engine,omitempty"`
}

// ParsedContent is the structured extraction of a snapshot's main content.
type ParsedContent struct {
	Title       string `json:"title"`
	Content     string `json:"content"` // HTML fragment
	TextContent string `json:"text_content,omitempty"`
	Byline      string `json:"byline,omitempty"`
	Excerpt     string `json:"excerpt,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
	Language    string `json:"language,omitempty"`
}

// Qualified reports whether the snapshot has main content and a non-blank
// title. The first qualified snapshot of a stream ends selection.
func (s *Snapshot) Qualified() bool {
	if s == nil || s.Parsed == nil || s.Parsed.Content == "" {
		return false
	}
	return strings.TrimSpace(s.Title) != ""
}

// SnapshotStream is a lazy, ordered, forward-only sequence of snapshots.
//
// Next blocks until the producer yields the next snapshot. It returns io.EOF
// once the sequence has ended normally; any other error is a producer failure.
// Close releases the producer and must be safe to call more than once.
type SnapshotStream interface {
	Next(ctx context.Context) (*Snapshot, error)
	Close() error
}
