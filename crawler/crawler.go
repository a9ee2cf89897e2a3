// Package crawler turns a URL into a clean Markdown Document: it normalizes
// the URL, pulls snapshots from a Source, selects the best one and hands it
// to the cleaner.
package crawler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/use-agent/reader/cleaner"
	"github.com/use-agent/reader/models"
)

// Source produces the snapshots of one page load. The engine dispatcher and
// the browser scraper both satisfy it.
type Source interface {
	Scrape(ctx context.Context, req *models.ScrapeRequest) (models.SnapshotStream, error)
}

// Host wires a snapshot Source to the cleaner. It is safe for concurrent use
// when its Source is.
type Host struct {
	source  Source
	cleaner *cleaner.Cleaner
}

// NewHost creates a Host.
func NewHost(source Source, cl *cleaner.Cleaner) *Host {
	return &Host{source: source, cleaner: cl}
}

// Crawl reads one page and returns its Document.
//
// Errors: INVALID_URL when the input cannot be normalized (the Source is not
// called), NO_CONTENT when the Source yields no snapshot, otherwise whatever
// the Source reported, unchanged.
func (h *Host) Crawl(ctx context.Context, req *models.CrawlRequest) (*models.Document, error) {
	u, err := NormalizeURL(req.URL)
	if err != nil {
		return nil, err
	}
	normalized := u.String()

	start := time.Now()
	stream, err := h.source.Scrape(ctx, &models.ScrapeRequest{
		URL:            normalized,
		TargetSelector: req.TargetSelector,
		Headers:        req.Headers,
		Stealth:        req.Stealth,
		Timeout:        time.Duration(req.Timeout) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	snap, qualified, err := SelectSnapshot(ctx, stream)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, models.NoContentError(normalized)
	}

	slog.Debug("snapshot selected",
		"url", normalized,
		"engine", snap.Engine,
		"qualified", qualified,
		"elapsed", time.Since(start),
	)

	return h.cleaner.Format(snap), nil
}

// SelectSnapshot pulls snapshots in order and returns the first qualified
// one. No further snapshot is requested once it is found.
//
// When the stream ends without a qualified snapshot, the last one observed is
// returned with qualified=false; an empty stream gives (nil, false, nil).
// A stream error is returned unchanged. The caller owns the stream and must
// close it.
func SelectSnapshot(ctx context.Context, stream models.SnapshotStream) (snap *models.Snapshot, qualified bool, err error) {
	var last *models.Snapshot
	for {
		next, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return last, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		if next == nil {
			continue
		}
		if next.Qualified() {
			return next, true, nil
		}
		last = next
	}
}
