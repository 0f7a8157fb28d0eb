package model

import (
	"errors"
	"fmt"

	"github.com/justestif/go-spotify-cluster-predictor/internal/clustering"
)

// Predictor scales a feature vector and assigns it to a cluster.
type Predictor struct {
	artifacts *Artifacts
}

// NewPredictor creates a predictor over loaded artifacts.
func NewPredictor(artifacts *Artifacts) (*Predictor, error) {
	if artifacts == nil {
		return nil, errors.New("artifacts are required")
	}
	return &Predictor{artifacts: artifacts}, nil
}

// Predict returns the cluster id for v. A length mismatch against either
// artifact returns an error wrapping ErrShapeMismatch.
func (p *Predictor) Predict(v clustering.Vector) (int, error) {
	scaled, err := p.artifacts.scaler.Transform(v)
	if err != nil {
		return 0, fmt.Errorf("scaling features: %w", err)
	}

	id, err := p.artifacts.model.Predict(scaled)
	if err != nil {
		return 0, fmt.Errorf("predicting cluster: %w", err)
	}
	return id, nil
}
