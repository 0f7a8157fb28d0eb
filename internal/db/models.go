package db

import (
	"time"

	"github.com/google/uuid"
)

// Prediction is a served prediction kept for the history page.
type Prediction struct {
	ID          uuid.UUID
	FeatureA    string
	ValueA      float64
	FeatureB    string
	ValueB      float64
	ClusterID   int
	Description string
	TrackID     *string // nullable - set when values came from a Spotify track
	CreatedAt   time.Time
}

// ClusterCount is the number of recorded predictions per cluster.
type ClusterCount struct {
	ClusterID int
	Count     int
}
