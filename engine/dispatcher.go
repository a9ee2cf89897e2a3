package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/use-agent/reader/models"
)

// Dispatcher chains engines with staged escalation. It starts the cheapest
// engine first and moves on to heavier engines only while the consumer keeps
// asking for snapshots. It satisfies crawler.Source.
type Dispatcher struct {
	engines []Engine
	memory  *DomainMemory
}

// NewDispatcher creates a Dispatcher. engines are tried in the given order;
// memory may be nil.
func NewDispatcher(engines []Engine, memory *DomainMemory) *Dispatcher {
	return &Dispatcher{engines: engines, memory: memory}
}

// Scrape streams the snapshots of every engine, one engine after another.
//
// Failure policy: an engine failure is logged and the next engine takes
// over, so a failure before the last engine never reaches the consumer. The
// last engine's failure is returned only when no engine emitted a snapshot;
// otherwise the stream ends with io.EOF and the consumer falls back to what
// earlier engines captured. An expired deadline always ends the stream with
// SCRAPE_TIMEOUT.
func (d *Dispatcher) Scrape(ctx context.Context, req *models.ScrapeRequest) (models.SnapshotStream, error) {
	if len(d.engines) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "no engines configured", nil)
	}

	host := hostOf(req.URL)
	engines := d.order(host)

	produce := func(ctx context.Context, emit EmitFunc) error {
		emitted := 0
		counting := func(snap *models.Snapshot) error {
			if err := emit(snap); err != nil {
				return err
			}
			emitted++
			return nil
		}

		for i, eng := range engines {
			slog.Debug("engine starting", "engine", eng.Name(), "url", req.URL)
			err := d.run(ctx, eng, req, counting)
			if err == nil {
				continue
			}
			if ctx.Err() != nil {
				return contextError(ctx.Err())
			}
			if i == 0 && eng.Name() == d.memory.Get(host) {
				slog.Info("domain memory miss (engine failed)",
					"domain", host, "engine", eng.Name(), "error", err)
				d.memory.Delete(host)
			}
			if i == len(engines)-1 {
				if emitted == 0 {
					return err
				}
				slog.Warn("last engine failed, keeping earlier snapshots",
					"engine", eng.Name(), "url", req.URL, "error", err)
				return nil
			}
			slog.Info("engine failed, escalating",
				"engine", eng.Name(), "next", engines[i+1].Name(), "url", req.URL, "error", err)
		}
		return nil
	}

	return &dispatchStream{
		ProducerStream: NewProducerStream(ctx, produce),
		parent:         ctx,
		host:           host,
		memory:         d.memory,
	}, nil
}

// order returns the engines to try for host. A remembered engine and the
// ones after it are kept; cheaper engines before it are skipped.
func (d *Dispatcher) order(host string) []Engine {
	remembered := d.memory.Get(host)
	if remembered == "" {
		return d.engines
	}
	for i, eng := range d.engines {
		if eng.Name() == remembered {
			slog.Debug("domain memory hit", "domain", host, "engine", remembered)
			return d.engines[i:]
		}
	}
	return d.engines
}

// run forwards every snapshot of one engine.
func (d *Dispatcher) run(ctx context.Context, eng Engine, req *models.ScrapeRequest, emit EmitFunc) error {
	stream, err := eng.Scrape(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", eng.Name(), err)
	}
	defer stream.Close()

	for {
		snap, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if snap == nil {
			continue
		}
		if snap.Engine == "" {
			tagged := *snap
			tagged.Engine = eng.Name()
			snap = &tagged
		}
		if err := emit(snap); err != nil {
			return err
		}
	}
}

// dispatchStream remembers which engine's snapshot the consumer accepted.
// Acceptance is a Close before the stream ended while the request context is
// still alive.
type dispatchStream struct {
	*ProducerStream

	parent context.Context
	host   string
	memory *DomainMemory

	mu       sync.Mutex
	last     string // engine of the last snapshot handed out
	finished bool
}

func (s *dispatchStream) Next(ctx context.Context) (*models.Snapshot, error) {
	snap, err := s.ProducerStream.Next(ctx)

	s.mu.Lock()
	if err != nil {
		s.finished = true
	} else if snap != nil {
		s.last = snap.Engine
	}
	s.mu.Unlock()

	return snap, err
}

func (s *dispatchStream) Close() error {
	s.mu.Lock()
	accepted := !s.finished && s.last != "" && s.parent.Err() == nil
	engineName := s.last
	s.finished = true
	s.mu.Unlock()

	if accepted {
		s.memory.Set(s.host, engineName)
	}
	return s.ProducerStream.Close()
}
