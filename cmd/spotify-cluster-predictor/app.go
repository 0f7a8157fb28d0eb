package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/justestif/go-spotify-cluster-predictor/internal/clustering"
	"github.com/justestif/go-spotify-cluster-predictor/internal/config"
	"github.com/justestif/go-spotify-cluster-predictor/internal/db"
	"github.com/justestif/go-spotify-cluster-predictor/internal/logging"
	"github.com/justestif/go-spotify-cluster-predictor/internal/model"
	"github.com/justestif/go-spotify-cluster-predictor/internal/predict"
	"github.com/justestif/go-spotify-cluster-predictor/internal/spotify"
)

// application holds everything a command needs to serve predictions.
type application struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *predict.Service
	tracks  *spotify.Client // nil when Spotify credentials are not configured
	db      *db.DB          // nil when history is disabled
}

// newApp loads the artifacts and wires optional history and track lookups.
// Artifact errors are returned before anything can serve a prediction.
func newApp(ctx context.Context, cfg *config.Config) (*application, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	a := &application{cfg: cfg, logger: logger}

	src := model.MultiSource{File: model.FileSource{}}
	if cfg.ObjectStoreEnabled() {
		obj, err := model.NewObjectSource(model.ObjectStoreConfig{
			Endpoint:  cfg.ObjectStore.Endpoint,
			AccessKey: cfg.ObjectStore.AccessKey,
			SecretKey: cfg.ObjectStore.SecretKey,
			UseSSL:    cfg.ObjectStore.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		src.Object = obj
	}

	artifacts, err := model.LoadArtifacts(ctx, src, cfg.Artifacts.Scaler, cfg.Artifacts.Model)
	if err != nil {
		return nil, err
	}
	if err := artifacts.CheckShape(len(clustering.FeatureSet)); err != nil {
		logger.Warn("artifacts do not match the feature set; predictions will fail", zap.Error(err))
	}
	logger.Info("artifacts loaded",
		zap.String("scaler", cfg.Artifacts.Scaler),
		zap.String("model", cfg.Artifacts.Model),
		zap.Int("clusters", artifacts.Model().NumClusters()),
	)

	predictor, err := model.NewPredictor(artifacts)
	if err != nil {
		return nil, err
	}

	opts := []predict.Option{predict.WithLogger(logger)}

	if cfg.HistoryEnabled() {
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx); err != nil {
			database.Close()
			return nil, err
		}
		a.db = database
		opts = append(opts, predict.WithRecorder(database.Predictions()))
		logger.Info("prediction history enabled")
	}

	if cfg.SpotifyEnabled() {
		// The token source outlives this call, so it must not use a
		// command-scoped context.
		tracks, err := spotify.NewWithCredentials(context.Background(),
			cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.CacheSize)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("creating spotify client: %w", err)
		}
		a.tracks = tracks
		logger.Info("spotify track lookup enabled")
	}

	a.service = predict.New(predictor, opts...)
	return a, nil
}

func (a *application) close() {
	if a.db != nil {
		a.db.Close()
	}
	_ = a.logger.Sync()
}
