// Package spotify looks up audio features of Spotify tracks.
package spotify

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/justestif/go-spotify-cluster-predictor/internal/clustering"
)

// ErrMissingCredentials is returned when the client ID or secret is empty.
var ErrMissingCredentials = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET")

// trackAPI is the part of the Spotify Web API the client uses.
type trackAPI interface {
	GetTrack(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.FullTrack, error)
	GetAudioFeatures(ctx context.Context, ids ...spotify.ID) ([]*spotify.AudioFeatures, error)
}

// Client wraps the Spotify API client with a bounded feature cache.
type Client struct {
	api   trackAPI
	cache *lru.Cache[string, clustering.TrackFeatures]
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client, cacheSize int) (*Client, error) {
	return newClient(api, cacheSize)
}

// NewWithCredentials creates a client authenticated with the client
// credentials flow. No user login is involved.
func NewWithCredentials(ctx context.Context, clientID, clientSecret string, cacheSize int) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}

	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return New(spotify.New(cfg.Client(ctx)), cacheSize)
}

func newClient(api trackAPI, cacheSize int) (*Client, error) {
	cache, err := lru.New[string, clustering.TrackFeatures](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating feature cache: %w", err)
	}
	return &Client{api: api, cache: cache}, nil
}
