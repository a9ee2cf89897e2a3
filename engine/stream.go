package engine

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/use-agent/reader/models"
)

// ErrStreamClosed is returned by Next after Close.
var ErrStreamClosed = errors.New("engine: snapshot stream closed")

// EmitFunc hands one snapshot to the consumer. It returns once the consumer
// asks for the following snapshot, and fails once the stream is closed or
// its context ends.
type EmitFunc func(snap *models.Snapshot) error

// ProduceFunc generates snapshots by calling emit, in order. Returning nil
// ends the stream normally; a non-nil error is reported to the consumer.
type ProduceFunc func(ctx context.Context, emit EmitFunc) error

// ProducerStream is a models.SnapshotStream backed by a producer goroutine.
//
// The producer only runs on demand: it starts on the first Next and every
// emit blocks until the consumer asks again, so no work is done for
// snapshots nobody pulls. Close cancels the producer's context and waits for
// it to return. Next must not be called concurrently.
type ProducerStream struct {
	pull   chan struct{}
	ch     chan *models.Snapshot
	done   chan struct{}
	cancel context.CancelFunc
	err    error // written by the producer before done is closed

	demanded  bool // a pull was delivered and its snapshot not yet received
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewProducerStream prepares produce to run in its own goroutine.
func NewProducerStream(ctx context.Context, produce ProduceFunc) *ProducerStream {
	pctx, cancel := context.WithCancel(ctx)
	s := &ProducerStream{
		pull:   make(chan struct{}),
		ch:     make(chan *models.Snapshot),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer close(s.done)
		if err := s.await(pctx); err != nil {
			s.err = err
			return
		}
		s.err = contextError(produce(pctx, func(snap *models.Snapshot) error {
			select {
			case s.ch <- snap:
			case <-pctx.Done():
				return contextError(pctx.Err())
			}
			return s.await(pctx)
		}))
	}()

	return s
}

// await blocks the producer until the consumer asks for a snapshot.
func (s *ProducerStream) await(ctx context.Context) error {
	select {
	case <-s.pull:
		return nil
	case <-ctx.Done():
		return contextError(ctx.Err())
	}
}

// Next returns the next snapshot, io.EOF at the normal end, or the
// producer's error.
func (s *ProducerStream) Next(ctx context.Context) (*models.Snapshot, error) {
	if s.closed.Load() {
		return nil, ErrStreamClosed
	}

	if !s.demanded {
		select {
		case s.pull <- struct{}{}:
			s.demanded = true
		case <-s.done:
			return nil, s.result()
		case <-ctx.Done():
			return nil, contextError(ctx.Err())
		}
	}

	select {
	case snap := <-s.ch:
		s.demanded = false
		return snap, nil
	case <-s.done:
		return nil, s.result()
	case <-ctx.Done():
		return nil, contextError(ctx.Err())
	}
}

func (s *ProducerStream) result() error {
	if s.err != nil {
		return s.err
	}
	return io.EOF
}

// Close stops the producer and waits for it to exit. Safe to call repeatedly.
func (s *ProducerStream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		<-s.done
	})
	return nil
}

// contextError maps a context failure to the pipeline's error codes. A
// deadline becomes SCRAPE_TIMEOUT wherever it is observed; other errors,
// including cancellation and nil, pass through.
func contextError(err error) error {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewScrapeError(models.ErrCodeTimeout, "timed out waiting for page snapshot", err)
	}
	return err
}

// NewStaticStream replays snaps in order. Useful for engines that capture
// everything up front.
func NewStaticStream(ctx context.Context, snaps ...*models.Snapshot) *ProducerStream {
	return NewProducerStream(ctx, func(ctx context.Context, emit EmitFunc) error {
		for _, snap := range snaps {
			if err := emit(snap); err != nil {
				return err
			}
		}
		return nil
	})
}
