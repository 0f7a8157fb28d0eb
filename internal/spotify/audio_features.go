package spotify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-spotify-cluster-predictor/internal/clustering"
)

// ErrNoAudioFeatures is returned when Spotify has no audio analysis for a track.
var ErrNoAudioFeatures = errors.New("no audio features available")

// TrackFeatures returns the FeatureSet values of a track: its audio
// features plus popularity. Results are cached by track ID.
func (c *Client) TrackFeatures(ctx context.Context, trackID string) (clustering.TrackFeatures, error) {
	if trackID == "" {
		return clustering.TrackFeatures{}, errors.New("track ID is required")
	}
	if cached, ok := c.cache.Get(trackID); ok {
		return cached, nil
	}

	track, err := c.api.GetTrack(ctx, spotify.ID(trackID))
	if err != nil {
		return clustering.TrackFeatures{}, fmt.Errorf("fetching track %s: %w", trackID, err)
	}

	features, err := c.api.GetAudioFeatures(ctx, spotify.ID(trackID))
	if err != nil {
		return clustering.TrackFeatures{}, fmt.Errorf("fetching audio features for %s: %w", trackID, err)
	}
	if len(features) == 0 || features[0] == nil {
		return clustering.TrackFeatures{}, fmt.Errorf("%w: %s", ErrNoAudioFeatures, trackID)
	}

	result := convertTrack(track)
	applyAudioFeatures(&result, features[0])

	c.cache.Add(trackID, result)
	return result, nil
}

// convertTrack copies track metadata and popularity. Artists are joined by ", ".
func convertTrack(t *spotify.FullTrack) clustering.TrackFeatures {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	return clustering.TrackFeatures{
		ID:     t.ID.String(),
		Name:   t.Name,
		Artist: strings.Join(artists, ", "),
		Values: map[clustering.Feature]float64{
			clustering.Popularity: float64(t.Popularity),
		},
	}
}

// applyAudioFeatures copies audio feature values to a track.
func applyAudioFeatures(t *clustering.TrackFeatures, f *spotify.AudioFeatures) {
	if t.Values == nil {
		t.Values = make(map[clustering.Feature]float64, len(clustering.FeatureSet))
	}
	t.Values[clustering.Acousticness] = float64(f.Acousticness)
	t.Values[clustering.Danceability] = float64(f.Danceability)
	t.Values[clustering.Energy] = float64(f.Energy)
	t.Values[clustering.Instrumentalness] = float64(f.Instrumentalness)
	t.Values[clustering.Liveness] = float64(f.Liveness)
	t.Values[clustering.Loudness] = float64(f.Loudness)
	t.Values[clustering.Speechiness] = float64(f.Speechiness)
	t.Values[clustering.Tempo] = float64(f.Tempo)
	t.Values[clustering.Valence] = float64(f.Valence)
}
