package engine

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/reader/models"
)

func snap(title string) *models.Snapshot {
	return &models.Snapshot{Title: title}
}

func TestProducerStream_InOrderThenEOF(t *testing.T) {
	s := NewStaticStream(context.Background(), snap("a"), snap("b"))
	defer s.Close()

	ctx := context.Background()
	first, err := s.Next(ctx)
	require.NoError(t, err)
	second, err := s.Next(ctx)
	require.NoError(t, err)
	_, err = s.Next(ctx)

	assert.Equal(t, "a", first.Title)
	assert.Equal(t, "b", second.Title)
	assert.ErrorIs(t, err, io.EOF)
}

func TestProducerStream_ProducerError(t *testing.T) {
	boom := errors.New("boom")
	s := NewProducerStream(context.Background(), func(ctx context.Context, emit EmitFunc) error {
		if err := emit(snap("a")); err != nil {
			return err
		}
		return boom
	})
	defer s.Close()

	_, err := s.Next(context.Background())
	require.NoError(t, err)
	_, err = s.Next(context.Background())
	assert.Same(t, boom, err)
}

func TestProducerStream_CloseCancelsProducer(t *testing.T) {
	exited := make(chan error, 1)
	s := NewProducerStream(context.Background(), func(ctx context.Context, emit EmitFunc) error {
		for {
			if err := emit(snap("n")); err != nil {
				exited <- err
				return err
			}
		}
	})

	_, err := s.Next(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Close waits for the producer, so its exit is already recorded.
	select {
	case err := <-exited:
		assert.ErrorIs(t, err, context.Canceled)
	default:
		t.Fatal("producer still running after Close")
	}

	_, err = s.Next(context.Background())
	assert.ErrorIs(t, err, ErrStreamClosed)
	assert.NoError(t, s.Close())
}

func TestProducerStream_ProducesOnDemand(t *testing.T) {
	produced := make(chan int, 10)
	s := NewProducerStream(context.Background(), func(ctx context.Context, emit EmitFunc) error {
		for i := 0; i < 5; i++ {
			produced <- i
			if err := emit(snap("x")); err != nil {
				return err
			}
		}
		return nil
	})

	_, err := s.Next(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Only the pulled snapshot was ever started.
	assert.Len(t, produced, 1)
}

func TestProducerStream_NextDeadline(t *testing.T) {
	s := NewProducerStream(context.Background(), func(ctx context.Context, emit EmitFunc) error {
		<-ctx.Done()
		return ctx.Err()
	})
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Next(ctx)
	assert.Equal(t, models.ErrCodeTimeout, models.ErrorCode(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProducerStream_ProducerDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	s := NewProducerStream(ctx, func(ctx context.Context, emit EmitFunc) error {
		<-ctx.Done()
		return ctx.Err()
	})
	defer s.Close()

	// The consumer has no deadline of its own; the producer reports it.
	_, err := s.Next(context.Background())
	assert.Equal(t, models.ErrCodeTimeout, models.ErrorCode(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestContextError(t *testing.T) {
	typed := models.NewScrapeError(models.ErrCodeNavigation, "dns", context.DeadlineExceeded)

	assert.Nil(t, contextError(nil))
	assert.Same(t, typed, contextError(typed))
	assert.ErrorIs(t, contextError(context.Canceled), context.Canceled)
	assert.Empty(t, models.ErrorCode(contextError(context.Canceled)))
	assert.Equal(t, models.ErrCodeTimeout, models.ErrorCode(contextError(context.DeadlineExceeded)))
}
