package storage

import (
	"context"
	"io"
	"time"

	"github.com/stitchmusic/music-api/pkg/apierror"
)

// Kind identifies a storage backend
type Kind string

const (
	KindLocal Kind = "local"
	KindS3    Kind = "s3"
)

var (
	// ErrNotFound is returned when no object exists under a key
	ErrNotFound = apierror.New(apierror.KindNotFound, "FILE_NOT_FOUND", "stored file not found")

	// ErrStorageUnavailable is returned when the backend cannot be written or reached
	ErrStorageUnavailable = apierror.New(apierror.KindStorage, "STORAGE_UNAVAILABLE", "storage backend unavailable")

	// ErrInvalidKey is returned for keys that escape the storage namespace
	ErrInvalidKey = apierror.New(apierror.KindValidation, "INVALID_STORAGE_KEY", "invalid storage key")
)

// PresignedUpload is a short-lived destination for a client-side transfer
type PresignedUpload struct {
	URL        string
	ExpiresIn  int // seconds
	StorageKey string
}

// BlobStorage defines the interface for track and cover storage
type BlobStorage interface {
	// Kind reports which backend is in use
	Kind() Kind

	// Store saves content under key and returns a backend-specific location reference
	Store(ctx context.Context, key string, content io.Reader, contentType string) (string, error)

	// Retrieve gets content stored under key
	Retrieve(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes content stored under key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Exists checks if content exists under key
	Exists(ctx context.Context, key string) (bool, error)

	// PresignUpload returns a URL the client can send bytes to. A zero ttl uses the backend default.
	PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (*PresignedUpload, error)

	// PresignDownload returns a time-limited URL (or local path) for reading key
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error)
}
