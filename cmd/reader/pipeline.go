package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/reader/cleaner"
	"github.com/use-agent/reader/config"
	"github.com/use-agent/reader/crawler"
	"github.com/use-agent/reader/engine"
	"github.com/use-agent/reader/scraper"
)

// domainMemoryPrune is how often expired engine preferences are swept.
const domainMemoryPrune = 10 * time.Minute

// pipeline owns the long-lived pieces behind a crawler.Host.
type pipeline struct {
	host    *crawler.Host
	scraper *scraper.Scraper
	memory  *engine.DomainMemory
}

// buildPipeline launches the browser and wires the engine chain:
//
//	http → rod → rod-stealth (optional)
//
// With multi-engine disabled the browser scraper is the only source.
func buildPipeline(cfg *config.Config) (*pipeline, error) {
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper)
	if err != nil {
		return nil, fmt.Errorf("initialise scraper: %w", err)
	}

	p := &pipeline{scraper: sc}

	var source crawler.Source = sc
	if cfg.Engine.EnableMultiEngine {
		engines := []engine.Engine{
			engine.NewHTTPEngine(cfg.Engine.HTTPTimeout, cfg.Browser.DefaultProxy),
			engine.NewRodEngine(sc.Scrape, false),
		}
		if cfg.Engine.StealthFallback {
			engines = append(engines, engine.NewRodEngine(sc.Scrape, true))
		}

		p.memory = engine.NewDomainMemory(cfg.Engine.DomainMemoryTTL, domainMemoryPrune)
		source = engine.NewDispatcher(engines, p.memory)

		names := make([]string, len(engines))
		for i, e := range engines {
			names[i] = e.Name()
		}
		slog.Info("multi-engine dispatcher enabled", "engines", names)
	}

	p.host = crawler.NewHost(source, cleaner.NewCleaner())
	return p, nil
}

// Close stops the domain memory sweeper and shuts the browser down.
func (p *pipeline) Close() {
	p.memory.Stop()
	p.scraper.Close()
}
