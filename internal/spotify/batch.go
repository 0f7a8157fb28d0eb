package spotify

import (
	"context"
	"sync"

	"github.com/justestif/go-spotify-cluster-predictor/internal/clustering"
)

// DefaultConcurrency is the number of track lookups run at once.
const DefaultConcurrency = 4

// FeatureFetcher looks up the feature values of a single track.
type FeatureFetcher interface {
	TrackFeatures(ctx context.Context, trackID string) (clustering.TrackFeatures, error)
}

// TrackResult is the outcome of one lookup in a batch.
type TrackResult struct {
	TrackID string
	Track   clustering.TrackFeatures
	Err     error
}

// BatchFetcher looks up many tracks with a bounded number of workers.
type BatchFetcher struct {
	fetcher     FeatureFetcher
	concurrency int
}

// BatchOption configures a BatchFetcher.
type BatchOption func(*BatchFetcher)

// WithConcurrency sets the number of concurrent lookups. Values below 1 keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchFetcher) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchFetcher creates a BatchFetcher around fetcher.
func NewBatchFetcher(fetcher FeatureFetcher, opts ...BatchOption) *BatchFetcher {
	b := &BatchFetcher{
		fetcher:     fetcher,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FetchAll looks up every track ID. Results keep the input order and a
// failed lookup is reported in its TrackResult without failing the batch.
// The returned error is only set when ctx is done.
func (b *BatchFetcher) FetchAll(ctx context.Context, trackIDs []string) ([]TrackResult, error) {
	results := make([]TrackResult, len(trackIDs))
	if len(trackIDs) == 0 {
		return results, nil
	}

	type job struct {
		index int
		id    string
	}
	jobs := make(chan job, len(trackIDs))
	for i, id := range trackIDs {
		jobs <- job{index: i, id: id}
	}
	close(jobs)

	workers := min(b.concurrency, len(trackIDs))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results[j.index] = TrackResult{TrackID: j.id, Err: err}
					continue
				}
				track, err := b.fetcher.TrackFeatures(ctx, j.id)
				results[j.index] = TrackResult{TrackID: j.id, Track: track, Err: err}
			}
		}()
	}
	wg.Wait()

	return results, ctx.Err()
}
