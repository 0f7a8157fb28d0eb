package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justestif/go-spotify-cluster-predictor/internal/clustering"
)

// tempoCentroids places centroid k at tempo 100*k with every other column 0.
func tempoCentroids(k int) [][]float64 {
	centroids := make([][]float64, k)
	for i := range centroids {
		c := make([]float64, len(clustering.FeatureSet))
		c[clustering.Tempo.Index()] = float64(100 * i)
		centroids[i] = c
	}
	return centroids
}

func identityScalerDoc(n int) scalerDocument {
	doc := scalerDocument{
		Kind:  KindStandardScaler,
		Mean:  make([]float64, n),
		Scale: make([]float64, n),
	}
	for i := range doc.Scale {
		doc.Scale[i] = 1
	}
	return doc
}

// writeJSON writes v to name inside dir and returns the full path.
func writeJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// writeRaw writes raw bytes to name inside dir and returns the full path.
func writeRaw(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}
