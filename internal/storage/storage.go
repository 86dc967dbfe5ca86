package storage

import (
	"context"
	"fmt"
	"io"

	"businessconnect_backend/internal/config"
)

// Storage stores marketplace images and other uploads.
type Storage interface {
	// Save stores size bytes read from reader under path.
	Save(ctx context.Context, path string, reader io.Reader, size int64, contentType string) error

	// Open returns the stored object.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object. Missing objects are not an error.
	Delete(ctx context.Context, path string) error

	// URL returns the public URL for path.
	URL(path string) string
}

// Config holds storage configuration
type Config struct {
	Type       string // local, s3, minio
	BasePath   string // local only
	BaseURL    string // public URL base
	Bucket     string
	Region     string
	AccessKey  string
	SecretKey  string
	Endpoint   string // s3-compatible endpoint or minio host:port
	UseSSL     bool
	PublicRead bool
}

// FromAppConfig maps the storage section of the application config.
func FromAppConfig(cfg *config.Config) Config {
	s := cfg.Storage
	return Config{
		Type:       s.Type,
		BasePath:   s.BasePath,
		BaseURL:    s.BaseURL,
		Bucket:     s.Bucket,
		Region:     s.Region,
		AccessKey:  s.AccessKey,
		SecretKey:  s.SecretKey,
		Endpoint:   s.Endpoint,
		UseSSL:     s.UseSSL,
		PublicRead: s.PublicRead,
	}
}

// NewStorage creates a storage backend based on cfg.Type.
func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(cfg)
	case "minio":
		return NewMinioStorage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
