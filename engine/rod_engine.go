package engine

import (
	"context"
	"fmt"

	"github.com/use-agent/reader/models"
)

// RodScrapeFunc is the callback type that wraps scraper.Scraper.Scrape.
// It is injected from main.go to avoid a circular import (engine/ -> scraper/).
type RodScrapeFunc func(ctx context.Context, req *models.ScrapeRequest) (models.SnapshotStream, error)

// RodEngine is a browser-based engine that delegates to the rod scraper via a
// callback. The forceStealth flag distinguishes "rod" from "rod-stealth".
type RodEngine struct {
	scrape       RodScrapeFunc
	forceStealth bool
	name         string
}

// NewRodEngine creates a RodEngine.
//   - scrape: callback that invokes the rod-based scraper (injected from main.go).
//   - forceStealth: when true, the engine always sets Stealth=true on requests.
func NewRodEngine(scrape RodScrapeFunc, forceStealth bool) *RodEngine {
	name := "rod"
	if forceStealth {
		name = "rod-stealth"
	}
	return &RodEngine{
		scrape:       scrape,
		forceStealth: forceStealth,
		name:         name,
	}
}

func (e *RodEngine) Name() string { return e.name }

func (e *RodEngine) Scrape(ctx context.Context, req *models.ScrapeRequest) (models.SnapshotStream, error) {
	if e.scrape == nil {
		return nil, fmt.Errorf("%s: scrape func not configured", e.name)
	}

	// Clone the request so we don't mutate the caller's copy.
	r := *req
	if e.forceStealth {
		r.Stealth = true
	}

	inner, err := e.scrape(ctx, &r)
	if err != nil {
		return nil, err
	}
	return &taggedStream{SnapshotStream: inner, engine: e.name}, nil
}

// taggedStream stamps the engine name on every snapshot it passes through.
type taggedStream struct {
	models.SnapshotStream
	engine string
}

func (s *taggedStream) Next(ctx context.Context) (*models.Snapshot, error) {
	snap, err := s.SnapshotStream.Next(ctx)
	if err != nil || snap == nil {
		return snap, err
	}
	tagged := *snap
	tagged.Engine = s.engine
	return &tagged, nil
}
