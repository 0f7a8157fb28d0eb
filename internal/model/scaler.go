package model

import (
	"fmt"

	"github.com/justestif/go-spotify-cluster-predictor/internal/clustering"
)

// Scaler is a pre-fitted transform applied to raw feature vectors before
// they reach the cluster model.
type Scaler interface {
	Transform(v clustering.Vector) (clustering.Vector, error)
	NumFeatures() int
}

// StandardScaler standardizes each column as (x - mean) / scale.
type StandardScaler struct {
	mean  []float64
	scale []float64
}

// NewStandardScaler creates a scaler from fitted per-column means and scales.
// Both slices are copied.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 {
		return nil, fmt.Errorf("%w: scaler has no columns", ErrMalformedArtifact)
	}
	if len(mean) != len(scale) {
		return nil, fmt.Errorf("%w: scaler has %d means but %d scales", ErrMalformedArtifact, len(mean), len(scale))
	}
	for i, s := range scale {
		if s == 0 {
			return nil, fmt.Errorf("%w: scaler column %d has zero scale", ErrMalformedArtifact, i)
		}
	}

	return &StandardScaler{
		mean:  append([]float64(nil), mean...),
		scale: append([]float64(nil), scale...),
	}, nil
}

// Transform returns a new scaled vector; v is left untouched.
func (s *StandardScaler) Transform(v clustering.Vector) (clustering.Vector, error) {
	if len(v) != len(s.mean) {
		return nil, fmt.Errorf("%w: scaler expects %d features, got %d", ErrShapeMismatch, len(s.mean), len(v))
	}

	out := make(clustering.Vector, len(v))
	for i, x := range v {
		out[i] = (x - s.mean[i]) / s.scale[i]
	}
	return out, nil
}

// NumFeatures returns the number of columns the scaler was fitted on.
func (s *StandardScaler) NumFeatures() int {
	return len(s.mean)
}
