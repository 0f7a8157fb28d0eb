package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectScheme prefixes artifact locations stored in S3-compatible object storage.
const ObjectScheme = "s3://"

// ErrNoObjectStore is returned when an s3:// location is requested but no
// object storage is configured.
var ErrNoObjectStore = errors.New("object storage not configured")

// Source opens persisted artifacts by location.
type Source interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// FileSource reads artifacts from the local filesystem.
type FileSource struct{}

// Open opens the file at path.
func (FileSource) Open(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}

// ObjectStoreConfig holds connection settings for S3-compatible storage.
type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// ObjectSource reads artifacts addressed as s3://bucket/key.
type ObjectSource struct {
	client *minio.Client
}

// NewObjectSource creates an ObjectSource backed by a MinIO client.
func NewObjectSource(cfg ObjectStoreConfig) (*ObjectSource, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object storage client: %w", err)
	}
	return &ObjectSource{client: client}, nil
}

// Open fetches the object at location. The object is stat'ed first so a
// missing key fails here rather than on the first read.
func (s *ObjectSource) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := parseObjectLocation(location)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting object %s: %w", location, err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("getting object %s: %w", location, err)
	}
	return obj, nil
}

// MultiSource dispatches s3:// locations to Object and everything else to File.
type MultiSource struct {
	File   Source
	Object Source // nil disables s3:// locations
}

// Open opens location with the matching source.
func (m MultiSource) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if strings.HasPrefix(location, ObjectScheme) {
		if m.Object == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoObjectStore, location)
		}
		return m.Object.Open(ctx, location)
	}

	file := m.File
	if file == nil {
		file = FileSource{}
	}
	return file.Open(ctx, location)
}

// parseObjectLocation splits s3://bucket/key into bucket and key.
func parseObjectLocation(location string) (string, string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("parsing object location %q: %w", location, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Scheme != "s3" || u.Host == "" || key == "" {
		return "", "", fmt.Errorf("invalid object location %q, want s3://bucket/key", location)
	}
	return u.Host, key, nil
}
