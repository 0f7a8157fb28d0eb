// Package model loads the pre-fitted scaler and cluster model and runs
// predictions against them.
package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/justestif/go-spotify-cluster-predictor/internal/clustering"
)

// Artifact kinds understood by the loaders.
const (
	KindStandardScaler = "standard_scaler"
	KindKMeans         = "kmeans"
)

// Common errors.
var (
	// ErrMalformedArtifact is returned when an artifact cannot be decoded or is structurally invalid.
	ErrMalformedArtifact = errors.New("malformed artifact")

	// ErrColumnMismatch is returned when an artifact lists feature columns
	// that differ from the feature set used to build vectors.
	ErrColumnMismatch = errors.New("artifact columns do not match feature set")

	// ErrShapeMismatch is returned when a vector's length differs from what
	// the scaler or model was fitted on.
	ErrShapeMismatch = errors.New("feature vector shape mismatch")
)

// scalerDocument is the persisted form of a fitted scaler.
type scalerDocument struct {
	Kind     string    `json:"kind"`
	Features []string  `json:"features,omitempty"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
}

// modelDocument is the persisted form of a fitted cluster model.
type modelDocument struct {
	Kind      string      `json:"kind"`
	Features  []string    `json:"features,omitempty"`
	Centroids [][]float64 `json:"centroids"`
}

// Artifacts holds the loaded scaler and cluster model. It is created once at
// startup and only read afterwards, so it is safe to share between requests.
type Artifacts struct {
	scaler Scaler
	model  ClusterModel
}

// NewArtifacts bundles a scaler and model. Both are required.
func NewArtifacts(scaler Scaler, model ClusterModel) (*Artifacts, error) {
	if scaler == nil {
		return nil, errors.New("scaler is required")
	}
	if model == nil {
		return nil, errors.New("cluster model is required")
	}
	return &Artifacts{scaler: scaler, model: model}, nil
}

// Scaler returns the loaded scaler.
func (a *Artifacts) Scaler() Scaler { return a.scaler }

// Model returns the loaded cluster model.
func (a *Artifacts) Model() ClusterModel { return a.model }

// CheckShape reports whether vectors of n features can be predicted.
// A mismatch is not fatal: it fails every prediction request instead.
func (a *Artifacts) CheckShape(n int) error {
	if got := a.scaler.NumFeatures(); got != n {
		return fmt.Errorf("%w: scaler fitted on %d features, vectors have %d", ErrShapeMismatch, got, n)
	}
	if got := a.model.NumFeatures(); got != n {
		return fmt.Errorf("%w: model fitted on %d features, vectors have %d", ErrShapeMismatch, got, n)
	}
	return nil
}

// LoadArtifacts reads the scaler and model from src. Any failure is meant
// to stop startup: no predictor should run without both artifacts.
func LoadArtifacts(ctx context.Context, src Source, scalerLocation, modelLocation string) (*Artifacts, error) {
	scaler, err := LoadScaler(ctx, src, scalerLocation)
	if err != nil {
		return nil, fmt.Errorf("loading scaler %s: %w", scalerLocation, err)
	}

	model, err := LoadModel(ctx, src, modelLocation)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", modelLocation, err)
	}

	return NewArtifacts(scaler, model)
}

// LoadScaler reads a fitted scaler document.
func LoadScaler(ctx context.Context, src Source, location string) (Scaler, error) {
	var doc scalerDocument
	if err := readDocument(ctx, src, location, &doc); err != nil {
		return nil, err
	}
	return decodeScaler(doc)
}

// LoadModel reads a fitted cluster model document.
func LoadModel(ctx context.Context, src Source, location string) (ClusterModel, error) {
	var doc modelDocument
	if err := readDocument(ctx, src, location, &doc); err != nil {
		return nil, err
	}
	return decodeModel(doc)
}

// decodeScaler builds a scaler from its decoded document.
func decodeScaler(doc scalerDocument) (Scaler, error) {
	if doc.Kind != KindStandardScaler {
		return nil, fmt.Errorf("%w: unsupported scaler kind %q", ErrMalformedArtifact, doc.Kind)
	}
	if err := checkColumns(doc.Features); err != nil {
		return nil, err
	}
	return NewStandardScaler(doc.Mean, doc.Scale)
}

// decodeModel builds a cluster model from its decoded document.
func decodeModel(doc modelDocument) (ClusterModel, error) {
	if doc.Kind != KindKMeans {
		return nil, fmt.Errorf("%w: unsupported model kind %q", ErrMalformedArtifact, doc.Kind)
	}
	if err := checkColumns(doc.Features); err != nil {
		return nil, err
	}
	return NewKMeans(doc.Centroids)
}

// readDocument opens location and decodes a single JSON document into v.
func readDocument(ctx context.Context, src Source, location string, v any) error {
	rc, err := src.Open(ctx, location)
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("reading %s: %w", location, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedArtifact, err)
	}
	return nil
}

// checkColumns verifies an artifact's optional column list against FeatureSet.
func checkColumns(features []string) error {
	if len(features) == 0 {
		return nil
	}
	want := clustering.FeatureNames()
	if !slices.Equal(features, want) {
		return fmt.Errorf("%w: got %v, want %v", ErrColumnMismatch, features, want)
	}
	return nil
}
