// Package config loads application settings from an optional YAML file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultAddr       = "127.0.0.1:8080"
	DefaultScalerPath = "scaler_model.json"
	DefaultModelPath  = "kmeans_model.json"
	DefaultLogLevel   = "info"
	DefaultCacheSize  = 256
)

// Environment variables that override file settings.
const (
	EnvSpotifyID       = "SPOTIFY_ID"
	EnvSpotifySecret   = "SPOTIFY_SECRET"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvObjectAccessKey = "OBJECT_STORE_ACCESS_KEY"
	EnvObjectSecretKey = "OBJECT_STORE_SECRET_KEY"
)

// ErrMissingArtifact is returned when a scaler or model location is empty.
var ErrMissingArtifact = errors.New("missing artifact location")

// Config holds all application settings.
type Config struct {
	Addr        string            `yaml:"addr"`
	Artifacts   ArtifactsConfig   `yaml:"artifacts"`
	ObjectStore ObjectStoreConfig `yaml:"object_store"`
	DatabaseURL string            `yaml:"database_url"`
	Spotify     SpotifyConfig     `yaml:"spotify"`
	Log         LogConfig         `yaml:"log"`
}

// ArtifactsConfig locates the persisted scaler and cluster model.
// Locations are file paths or s3://bucket/key URIs.
type ArtifactsConfig struct {
	Scaler string `yaml:"scaler"`
	Model  string `yaml:"model"`
}

// ObjectStoreConfig configures S3-compatible storage for s3:// artifacts.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// SpotifyConfig holds client credentials for track feature lookups.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id,omitempty"`
	ClientSecret string `yaml:"client_secret,omitempty"`
	CacheSize    int    `yaml:"cache_size"`
}

// LogConfig configures logging. An empty File logs to stderr.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr: DefaultAddr,
		Artifacts: ArtifactsConfig{
			Scaler: DefaultScalerPath,
			Model:  DefaultModelPath,
		},
		Spotify: SpotifyConfig{
			CacheSize: DefaultCacheSize,
		},
		Log: LogConfig{
			Level:      DefaultLogLevel,
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads configuration from path on top of the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings with non-empty environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSpotifyID); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv(EnvSpotifySecret); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv(EnvObjectAccessKey); v != "" {
		c.ObjectStore.AccessKey = v
	}
	if v := os.Getenv(EnvObjectSecretKey); v != "" {
		c.ObjectStore.SecretKey = v
	}
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.Artifacts.Scaler == "" {
		return fmt.Errorf("%w: scaler", ErrMissingArtifact)
	}
	if c.Artifacts.Model == "" {
		return fmt.Errorf("%w: model", ErrMissingArtifact)
	}
	if c.Spotify.CacheSize <= 0 {
		c.Spotify.CacheSize = DefaultCacheSize
	}
	return nil
}

// SpotifyEnabled reports whether track feature lookups are configured.
func (c *Config) SpotifyEnabled() bool {
	return c.Spotify.ClientID != "" && c.Spotify.ClientSecret != ""
}

// HistoryEnabled reports whether prediction history is configured.
func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}

// ObjectStoreEnabled reports whether s3:// artifact locations can be read.
func (c *Config) ObjectStoreEnabled() bool {
	return c.ObjectStore.Endpoint != ""
}
