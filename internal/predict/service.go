// Package predict runs cluster predictions for user selections and keeps an
// optional history of served results.
package predict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justestif/go-spotify-cluster-predictor/internal/clustering"
	"github.com/justestif/go-spotify-cluster-predictor/internal/db"
)

// DefaultHistoryLimit is the number of predictions listed when no limit is given.
const DefaultHistoryLimit = 20

// ErrHistoryDisabled is returned by history queries when no recorder is configured.
var ErrHistoryDisabled = errors.New("prediction history is disabled")

// Classifier assigns a feature vector to a cluster.
type Classifier interface {
	Predict(v clustering.Vector) (int, error)
}

// Recorder persists served predictions.
type Recorder interface {
	Create(ctx context.Context, p *db.Prediction) error
	Get(ctx context.Context, id uuid.UUID) (*db.Prediction, error)
	Recent(ctx context.Context, limit int) ([]db.Prediction, error)
	CountByCluster(ctx context.Context) ([]db.ClusterCount, error)
}

// Result is the outcome of a single prediction.
type Result struct {
	ID          uuid.UUID
	Selection   clustering.Selection
	Vector      clustering.Vector
	ClusterID   int
	Description string
	Message     string
	TrackID     string
	CreatedAt   time.Time
}

// Service handles predictions.
type Service struct {
	classifier Classifier
	recorder   Recorder
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder enables prediction history.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a new prediction service.
func New(classifier Classifier, opts ...Option) *Service {
	s := &Service{
		classifier: classifier,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Predict validates the selection, builds the full feature vector, and
// classifies it. Invalid selections and model shape mismatches are returned
// as errors; the service stays usable for the next request.
func (s *Service) Predict(ctx context.Context, sel clustering.Selection) (*Result, error) {
	return s.predict(ctx, sel, "")
}

// PredictWithTrack is Predict for values that were prefilled from a track
// and possibly edited. A non-empty trackID is recorded as their source.
func (s *Service) PredictWithTrack(ctx context.Context, sel clustering.Selection, trackID string) (*Result, error) {
	return s.predict(ctx, sel, trackID)
}

// PredictTrack predicts from two features of a known track.
func (s *Service) PredictTrack(ctx context.Context, track clustering.TrackFeatures, a, b clustering.Feature) (*Result, error) {
	sel, err := track.Selection(a, b)
	if err != nil {
		return nil, err
	}
	return s.predict(ctx, sel, track.ID)
}

func (s *Service) predict(ctx context.Context, sel clustering.Selection, trackID string) (*Result, error) {
	vec, err := clustering.BuildVector(sel)
	if err != nil {
		return nil, fmt.Errorf("building feature vector: %w", err)
	}

	clusterID, err := s.classifier.Predict(vec)
	if err != nil {
		s.logger.Error("prediction failed",
			zap.String("feature_a", sel.FeatureA.String()),
			zap.String("feature_b", sel.FeatureB.String()),
			zap.Error(err),
		)
		return nil, err
	}

	desc := clustering.Describe(clusterID)
	result := &Result{
		ID:          uuid.New(),
		Selection:   sel,
		Vector:      vec,
		ClusterID:   clusterID,
		Description: desc,
		Message:     clustering.FormatResult(clusterID, desc, sel.FeatureA, sel.FeatureB),
		TrackID:     trackID,
		CreatedAt:   s.now(),
	}

	s.logger.Info("prediction served",
		zap.String("feature_a", sel.FeatureA.String()),
		zap.Float64("value_a", sel.ValueA),
		zap.String("feature_b", sel.FeatureB.String()),
		zap.Float64("value_b", sel.ValueB),
		zap.Int("cluster_id", clusterID),
	)

	s.record(ctx, result)
	return result, nil
}

// record stores a result in history. Failures are logged, never returned.
func (s *Service) record(ctx context.Context, r *Result) {
	if s.recorder == nil {
		return
	}

	p := toDBPrediction(r)
	if err := s.recorder.Create(ctx, &p); err != nil {
		s.logger.Warn("recording prediction", zap.Stringer("id", r.ID), zap.Error(err))
		return
	}
	r.CreatedAt = p.CreatedAt
}

// HistoryEnabled reports whether predictions are recorded.
func (s *Service) HistoryEnabled() bool {
	return s.recorder != nil
}

// Recent returns the latest recorded predictions, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]db.Prediction, error) {
	if s.recorder == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	predictions, err := s.recorder.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("getting recent predictions: %w", err)
	}
	return predictions, nil
}

// Get returns one recorded prediction. A missing id wraps db.ErrNotFound.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*db.Prediction, error) {
	if s.recorder == nil {
		return nil, ErrHistoryDisabled
	}
	p, err := s.recorder.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting prediction %s: %w", id, err)
	}
	return p, nil
}

// ClusterCounts returns how many recorded predictions landed in each cluster.
func (s *Service) ClusterCounts(ctx context.Context) ([]db.ClusterCount, error) {
	if s.recorder == nil {
		return nil, ErrHistoryDisabled
	}
	counts, err := s.recorder.CountByCluster(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting predictions: %w", err)
	}
	return counts, nil
}

// toDBPrediction converts a Result to its persisted form.
func toDBPrediction(r *Result) db.Prediction {
	p := db.Prediction{
		ID:          r.ID,
		FeatureA:    r.Selection.FeatureA.String(),
		ValueA:      r.Selection.ValueA,
		FeatureB:    r.Selection.FeatureB.String(),
		ValueB:      r.Selection.ValueB,
		ClusterID:   r.ClusterID,
		Description: r.Description,
	}
	if r.TrackID != "" {
		trackID := r.TrackID
		p.TrackID = &trackID
	}
	return p
}
