package spotify

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/go-spotify-cluster-predictor/internal/clustering"
)

// stubFetcher returns a track whose tempo is the number in its ID, so "t3" has tempo 3.
type stubFetcher struct {
	failing map[string]error
	delay   time.Duration
	calls   atomic.Int32
}

func (s *stubFetcher) TrackFeatures(ctx context.Context, id string) (clustering.TrackFeatures, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return clustering.TrackFeatures{}, ctx.Err()
		}
	}
	if err, ok := s.failing[id]; ok {
		return clustering.TrackFeatures{}, err
	}
	var n float64
	_, _ = fmt.Sscanf(id, "t%g", &n)
	return clustering.TrackFeatures{
		ID:     id,
		Values: map[clustering.Feature]float64{clustering.Tempo: n},
	}, nil
}

func TestFetchAllEmpty(t *testing.T) {
	results, err := NewBatchFetcher(&stubFetcher{}).FetchAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFetchAllPreservesOrder(t *testing.T) {
	fetcher := &stubFetcher{delay: time.Millisecond}
	ids := []string{"t5", "t1", "t4", "t2", "t3"}

	results, err := NewBatchFetcher(fetcher, WithConcurrency(3)).FetchAll(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, results, len(ids))

	for i, id := range ids {
		assert.Equal(t, id, results[i].TrackID)
		require.NoError(t, results[i].Err)
		assert.Equal(t, id, results[i].Track.ID)
	}
	assert.Equal(t, 4.0, results[2].Track.Values[clustering.Tempo])
	assert.EqualValues(t, len(ids), fetcher.calls.Load())
}

func TestFetchAllIndividualErrors(t *testing.T) {
	boom := errors.New("API error")
	fetcher := &stubFetcher{failing: map[string]error{"t2": boom}}

	results, err := NewBatchFetcher(fetcher).FetchAll(context.Background(), []string{"t1", "t2", "t3"})
	require.NoError(t, err, "a failed lookup does not fail the batch")

	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.NoError(t, results[2].Err)
}

func TestFetchAllContextCancellation(t *testing.T) {
	fetcher := &stubFetcher{delay: 100 * time.Millisecond}
	ids := make([]string, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%d", i)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	results, err := NewBatchFetcher(fetcher, WithConcurrency(2)).FetchAll(ctx, ids)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, len(ids))
	for _, r := range results {
		assert.Error(t, r.Err)
	}
}

func TestWithConcurrency(t *testing.T) {
	tests := []struct {
		name  string
		input int
		want  int
	}{
		{"positive value", 10, 10},
		{"zero uses default", 0, DefaultConcurrency},
		{"negative uses default", -1, DefaultConcurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBatchFetcher(&stubFetcher{}, WithConcurrency(tt.input))
			assert.Equal(t, tt.want, b.concurrency)
		})
	}
}
