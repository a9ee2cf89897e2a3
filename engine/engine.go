// Package engine holds the page fetch engines and the dispatcher that chains
// them. Every engine yields its captures as a models.SnapshotStream.
package engine

import (
	"context"

	"github.com/use-agent/reader/models"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "rod", "rod-stealth").
	Name() string

	// Scrape loads req.URL and streams the snapshots it captures. The
	// returned stream must be closed by the caller.
	Scrape(ctx context.Context, req *models.ScrapeRequest) (models.SnapshotStream, error)
}
