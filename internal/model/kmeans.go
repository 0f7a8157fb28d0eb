package model

import (
	"fmt"

	"github.com/muesli/clusters"

	"github.com/justestif/go-spotify-cluster-predictor/internal/clustering"
)

// ClusterModel maps a scaled feature vector to a cluster id.
type ClusterModel interface {
	Predict(v clustering.Vector) (int, error)
	NumFeatures() int
	NumClusters() int
}

// KMeans assigns vectors to the nearest of a fixed set of fitted centroids.
// Cluster ids are centroid positions; ties go to the lowest id.
type KMeans struct {
	centers clusters.Clusters
	dim     int
}

// NewKMeans creates a model from fitted centroids. Centroids are copied.
func NewKMeans(centroids [][]float64) (*KMeans, error) {
	if len(centroids) == 0 {
		return nil, fmt.Errorf("%w: model has no centroids", ErrMalformedArtifact)
	}

	dim := len(centroids[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: centroid 0 is empty", ErrMalformedArtifact)
	}

	centers := make(clusters.Clusters, len(centroids))
	for i, c := range centroids {
		if len(c) != dim {
			return nil, fmt.Errorf("%w: centroid %d has %d values, want %d", ErrMalformedArtifact, i, len(c), dim)
		}
		centers[i] = clusters.Cluster{
			Center: append(clusters.Coordinates(nil), c...),
		}
	}

	return &KMeans{centers: centers, dim: dim}, nil
}

// NewKMeansFromClusters creates a model from already partitioned clusters,
// keeping only their centers.
func NewKMeansFromClusters(cc clusters.Clusters) (*KMeans, error) {
	centroids := make([][]float64, len(cc))
	for i, c := range cc {
		centroids[i] = c.Center
	}
	return NewKMeans(centroids)
}

// Predict returns the id of the centroid closest to v.
func (m *KMeans) Predict(v clustering.Vector) (int, error) {
	if len(v) != m.dim {
		return 0, fmt.Errorf("%w: model expects %d features, got %d", ErrShapeMismatch, m.dim, len(v))
	}
	return m.centers.Nearest(clusters.Coordinates(v)), nil
}

// NumFeatures returns the centroid dimension.
func (m *KMeans) NumFeatures() int {
	return m.dim
}

// NumClusters returns the number of centroids.
func (m *KMeans) NumClusters() int {
	return len(m.centers)
}

// Centroid returns a copy of the center of cluster id.
func (m *KMeans) Centroid(id int) (clustering.Vector, bool) {
	if id < 0 || id >= len(m.centers) {
		return nil, false
	}
	return append(clustering.Vector(nil), m.centers[id].Center...), true
}
