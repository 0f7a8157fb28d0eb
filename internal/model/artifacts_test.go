package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/go-spotify-cluster-predictor/internal/clustering"
)

func TestLoadArtifacts(t *testing.T) {
	dir := t.TempDir()
	n := len(clustering.FeatureSet)

	scalerDoc := identityScalerDoc(n)
	scalerDoc.Features = clustering.FeatureNames()
	scalerPath := writeJSON(t, dir, "scaler.json", scalerDoc)
	modelPath := writeJSON(t, dir, "model.json", modelDocument{
		Kind:      KindKMeans,
		Features:  clustering.FeatureNames(),
		Centroids: tempoCentroids(4),
	})

	artifacts, err := LoadArtifacts(context.Background(), FileSource{}, scalerPath, modelPath)
	require.NoError(t, err)

	assert.Equal(t, n, artifacts.Scaler().NumFeatures())
	assert.Equal(t, n, artifacts.Model().NumFeatures())
	assert.Equal(t, 4, artifacts.Model().NumClusters())
	assert.NoError(t, artifacts.CheckShape(n))
	assert.ErrorIs(t, artifacts.CheckShape(n-1), ErrShapeMismatch)
}

func TestLoadArtifactsErrors(t *testing.T) {
	n := len(clustering.FeatureSet)

	tests := []struct {
		name    string
		scaler  func(t *testing.T, dir string) string
		model   func(t *testing.T, dir string) string
		wantErr error
	}{
		{
			name: "missing scaler file",
			scaler: func(_ *testing.T, dir string) string {
				return filepath.Join(dir, "nope.json")
			},
			model: func(t *testing.T, dir string) string {
				return writeJSON(t, dir, "model.json", modelDocument{Kind: KindKMeans, Centroids: tempoCentroids(4)})
			},
			wantErr: os.ErrNotExist,
		},
		{
			name: "missing model file",
			scaler: func(t *testing.T, dir string) string {
				return writeJSON(t, dir, "scaler.json", identityScalerDoc(n))
			},
			model: func(_ *testing.T, dir string) string {
				return filepath.Join(dir, "nope.json")
			},
			wantErr: os.ErrNotExist,
		},
		{
			name: "corrupt scaler",
			scaler: func(t *testing.T, dir string) string {
				return writeRaw(t, dir, "scaler.json", "\x80\x04\x95joblib")
			},
			model: func(t *testing.T, dir string) string {
				return writeJSON(t, dir, "model.json", modelDocument{Kind: KindKMeans, Centroids: tempoCentroids(4)})
			},
			wantErr: ErrMalformedArtifact,
		},
		{
			name: "unknown scaler kind",
			scaler: func(t *testing.T, dir string) string {
				doc := identityScalerDoc(n)
				doc.Kind = "min_max_scaler"
				return writeJSON(t, dir, "scaler.json", doc)
			},
			model: func(t *testing.T, dir string) string {
				return writeJSON(t, dir, "model.json", modelDocument{Kind: KindKMeans, Centroids: tempoCentroids(4)})
			},
			wantErr: ErrMalformedArtifact,
		},
		{
			name: "zero scale",
			scaler: func(t *testing.T, dir string) string {
				doc := identityScalerDoc(n)
				doc.Scale[3] = 0
				return writeJSON(t, dir, "scaler.json", doc)
			},
			model: func(t *testing.T, dir string) string {
				return writeJSON(t, dir, "model.json", modelDocument{Kind: KindKMeans, Centroids: tempoCentroids(4)})
			},
			wantErr: ErrMalformedArtifact,
		},
		{
			name: "mean and scale lengths differ",
			scaler: func(t *testing.T, dir string) string {
				doc := identityScalerDoc(n)
				doc.Mean = doc.Mean[:n-1]
				return writeJSON(t, dir, "scaler.json", doc)
			},
			model: func(t *testing.T, dir string) string {
				return writeJSON(t, dir, "model.json", modelDocument{Kind: KindKMeans, Centroids: tempoCentroids(4)})
			},
			wantErr: ErrMalformedArtifact,
		},
		{
			name: "ragged centroids",
			scaler: func(t *testing.T, dir string) string {
				return writeJSON(t, dir, "scaler.json", identityScalerDoc(n))
			},
			model: func(t *testing.T, dir string) string {
				centroids := tempoCentroids(4)
				centroids[2] = centroids[2][:5]
				return writeJSON(t, dir, "model.json", modelDocument{Kind: KindKMeans, Centroids: centroids})
			},
			wantErr: ErrMalformedArtifact,
		},
		{
			name: "no centroids",
			scaler: func(t *testing.T, dir string) string {
				return writeJSON(t, dir, "scaler.json", identityScalerDoc(n))
			},
			model: func(t *testing.T, dir string) string {
				return writeJSON(t, dir, "model.json", modelDocument{Kind: KindKMeans})
			},
			wantErr: ErrMalformedArtifact,
		},
		{
			name: "columns in a different order",
			scaler: func(t *testing.T, dir string) string {
				doc := identityScalerDoc(n)
				names := clustering.FeatureNames()
				names[0], names[1] = names[1], names[0]
				doc.Features = names
				return writeJSON(t, dir, "scaler.json", doc)
			},
			model: func(t *testing.T, dir string) string {
				return writeJSON(t, dir, "model.json", modelDocument{Kind: KindKMeans, Centroids: tempoCentroids(4)})
			},
			wantErr: ErrColumnMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			artifacts, err := LoadArtifacts(context.Background(), FileSource{}, tt.scaler(t, dir), tt.model(t, dir))

			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, artifacts)
		})
	}
}

func TestNewArtifactsRequiresBoth(t *testing.T) {
	scaler, err := NewStandardScaler([]float64{0}, []float64{1})
	require.NoError(t, err)
	km, err := NewKMeans([][]float64{{0}})
	require.NoError(t, err)

	_, err = NewArtifacts(nil, km)
	assert.Error(t, err)

	_, err = NewArtifacts(scaler, nil)
	assert.Error(t, err)

	_, err = NewPredictor(nil)
	assert.Error(t, err)
}
