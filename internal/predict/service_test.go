package predict

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/justestif/go-spotify-cluster-predictor/internal/clustering"
	"github.com/justestif/go-spotify-cluster-predictor/internal/db"
	"github.com/justestif/go-spotify-cluster-predictor/internal/model"
)

// fakeClassifier returns a fixed cluster and remembers the vectors it saw.
type fakeClassifier struct {
	id   int
	err  error
	seen []clustering.Vector
}

func (f *fakeClassifier) Predict(v clustering.Vector) (int, error) {
	f.seen = append(f.seen, v)
	return f.id, f.err
}

// memoryRecorder implements Recorder in memory.
type memoryRecorder struct {
	predictions []db.Prediction
	createErr   error
}

func (m *memoryRecorder) Create(_ context.Context, p *db.Prediction) error {
	if m.createErr != nil {
		return m.createErr
	}
	p.CreatedAt = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	m.predictions = append(m.predictions, *p)
	return nil
}

func (m *memoryRecorder) Get(_ context.Context, id uuid.UUID) (*db.Prediction, error) {
	for _, p := range m.predictions {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memoryRecorder) Recent(_ context.Context, limit int) ([]db.Prediction, error) {
	out := make([]db.Prediction, 0, limit)
	for i := len(m.predictions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.predictions[i])
	}
	return out, nil
}

func (m *memoryRecorder) CountByCluster(_ context.Context) ([]db.ClusterCount, error) {
	counts := map[int]int{}
	for _, p := range m.predictions {
		counts[p.ClusterID]++
	}
	var out []db.ClusterCount
	for id := range 10 {
		if n, ok := counts[id]; ok {
			out = append(out, db.ClusterCount{ClusterID: id, Count: n})
		}
	}
	return out, nil
}

func TestPredict(t *testing.T) {
	classifier := &fakeClassifier{id: 2}
	svc := New(classifier)

	sel := clustering.Selection{
		FeatureA: clustering.Tempo, ValueA: 120.0,
		FeatureB: clustering.Energy, ValueB: 0.8,
	}
	result, err := svc.Predict(context.Background(), sel)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ClusterID)
	assert.Equal(t, "High Energy/Dance/Party", result.Description)
	assert.Equal(t, "Your input matches Cluster 2: High Energy/Dance/Party based only on features: tempo, energy.", result.Message)
	assert.Equal(t, sel, result.Selection)

	require.Len(t, classifier.seen, 1)
	assert.Equal(t, clustering.Vector{0, 0, 0.8, 0, 0, 0, 0, 120.0, 0, 0}, classifier.seen[0])
	assert.Equal(t, classifier.seen[0], result.Vector)
}

func TestPredictUnknownCluster(t *testing.T) {
	svc := New(&fakeClassifier{id: 7})

	result, err := svc.Predict(context.Background(), clustering.Selection{
		FeatureA: clustering.Valence, ValueA: 0.1,
		FeatureB: clustering.Loudness, ValueB: -12,
	})
	require.NoError(t, err)
	assert.Equal(t, "Unknown Type", result.Description)
}

func TestPredictInvalidSelection(t *testing.T) {
	classifier := &fakeClassifier{}
	svc := New(classifier)

	_, err := svc.Predict(context.Background(), clustering.Selection{
		FeatureA: clustering.Tempo, ValueA: 1,
		FeatureB: clustering.Tempo, ValueB: 2,
	})
	assert.ErrorIs(t, err, clustering.ErrSameFeature)
	assert.Empty(t, classifier.seen, "invalid selections never reach the model")
}

func TestPredictShapeMismatchIsPerRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	classifier := &fakeClassifier{err: fmt.Errorf("scaling features: %w", model.ErrShapeMismatch)}
	svc := New(classifier, WithLogger(zap.New(core)))

	sel := clustering.Selection{FeatureA: clustering.Tempo, ValueA: 1, FeatureB: clustering.Energy, ValueB: 2}

	_, err := svc.Predict(context.Background(), sel)
	require.ErrorIs(t, err, model.ErrShapeMismatch)
	assert.Equal(t, 1, logs.FilterMessage("prediction failed").Len())

	classifier.err = nil
	classifier.id = 1
	result, err := svc.Predict(context.Background(), sel)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ClusterID)
}

func TestPredictRecordsHistory(t *testing.T) {
	recorder := &memoryRecorder{}
	svc := New(&fakeClassifier{id: 1}, WithRecorder(recorder))
	require.True(t, svc.HistoryEnabled())

	result, err := svc.Predict(context.Background(), clustering.Selection{
		FeatureA: clustering.Acousticness, ValueA: 0.9,
		FeatureB: clustering.Energy, ValueB: 0.2,
	})
	require.NoError(t, err)

	require.Len(t, recorder.predictions, 1)
	p := recorder.predictions[0]
	assert.Equal(t, result.ID, p.ID)
	assert.Equal(t, "acousticness", p.FeatureA)
	assert.Equal(t, 0.9, p.ValueA)
	assert.Equal(t, "energy", p.FeatureB)
	assert.Equal(t, 0.2, p.ValueB)
	assert.Equal(t, 1, p.ClusterID)
	assert.Equal(t, "Acoustic/Chill/Lo-fi", p.Description)
	assert.Nil(t, p.TrackID)
	assert.Equal(t, p.CreatedAt, result.CreatedAt)
}

func TestPredictRecordFailureIsNotFatal(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	recorder := &memoryRecorder{createErr: errors.New("connection refused")}
	svc := New(&fakeClassifier{id: 0}, WithRecorder(recorder), WithLogger(zap.New(core)))

	result, err := svc.Predict(context.Background(), clustering.Selection{
		FeatureA: clustering.Popularity, ValueA: 90,
		FeatureB: clustering.Danceability, ValueB: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ClusterID)
	assert.Equal(t, 1, logs.FilterMessage("recording prediction").Len())
}

func TestPredictTrack(t *testing.T) {
	recorder := &memoryRecorder{}
	classifier := &fakeClassifier{id: 2}
	svc := New(classifier, WithRecorder(recorder))

	track := clustering.TrackFeatures{
		ID: "track123",
		Values: map[clustering.Feature]float64{
			clustering.Tempo:   128,
			clustering.Energy:  0.9,
			clustering.Valence: 0.4,
		},
	}

	result, err := svc.PredictTrack(context.Background(), track, clustering.Energy, clustering.Tempo)
	require.NoError(t, err)
	assert.Equal(t, "track123", result.TrackID)
	assert.Equal(t, 0.9, result.Selection.ValueA)
	assert.Equal(t, 128.0, result.Selection.ValueB)

	require.Len(t, recorder.predictions, 1)
	require.NotNil(t, recorder.predictions[0].TrackID)
	assert.Equal(t, "track123", *recorder.predictions[0].TrackID)

	_, err = svc.PredictTrack(context.Background(), track, clustering.Energy, clustering.Liveness)
	assert.Error(t, err)
}

func TestPredictWithTrack(t *testing.T) {
	recorder := &memoryRecorder{}
	svc := New(&fakeClassifier{id: 1}, WithRecorder(recorder))
	sel := clustering.Selection{
		FeatureA: clustering.Acousticness, ValueA: 0.7,
		FeatureB: clustering.Energy, ValueB: 0.3,
	}

	result, err := svc.PredictWithTrack(context.Background(), sel, "track456")
	require.NoError(t, err)
	assert.Equal(t, "track456", result.TrackID)
	assert.Equal(t, 0.7, result.Selection.ValueA)

	_, err = svc.PredictWithTrack(context.Background(), sel, "")
	require.NoError(t, err)

	require.Len(t, recorder.predictions, 2)
	require.NotNil(t, recorder.predictions[0].TrackID)
	assert.Equal(t, "track456", *recorder.predictions[0].TrackID)
	assert.Nil(t, recorder.predictions[1].TrackID)
}

func TestRecentAndCounts(t *testing.T) {
	recorder := &memoryRecorder{}
	classifier := &fakeClassifier{}
	svc := New(classifier, WithRecorder(recorder))

	sel := clustering.Selection{FeatureA: clustering.Tempo, ValueA: 1, FeatureB: clustering.Energy, ValueB: 2}
	for _, id := range []int{0, 2, 2, 1} {
		classifier.id = id
		_, err := svc.Predict(context.Background(), sel)
		require.NoError(t, err)
	}

	recent, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	assert.Equal(t, 1, recent[0].ClusterID, "newest first")

	recent, err = svc.Recent(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	counts, err := svc.ClusterCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []db.ClusterCount{
		{ClusterID: 0, Count: 1},
		{ClusterID: 1, Count: 1},
		{ClusterID: 2, Count: 2},
	}, counts)
}

func TestGet(t *testing.T) {
	recorder := &memoryRecorder{}
	svc := New(&fakeClassifier{id: 3}, WithRecorder(recorder))

	result, err := svc.Predict(context.Background(), clustering.Selection{
		FeatureA: clustering.Liveness, ValueA: 0.95,
		FeatureB: clustering.Speechiness, ValueB: 0.6,
	})
	require.NoError(t, err)

	p, err := svc.Get(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, p.ClusterID)
	assert.Equal(t, "Outlier/Noise or Rare", p.Description)

	_, err = svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestHistoryDisabled(t *testing.T) {
	svc := New(&fakeClassifier{})
	assert.False(t, svc.HistoryEnabled())

	_, err := svc.Recent(context.Background(), 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	_, err = svc.ClusterCounts(context.Background())
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	_, err = svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}
