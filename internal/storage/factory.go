package storage

import (
	"context"

	"github.com/stitchmusic/music-api/pkg/config"
)

// StorageFactory creates storage instances based on configuration
type StorageFactory struct {
	config *config.StorageConfig
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(config *config.StorageConfig) *StorageFactory {
	return &StorageFactory{config: config}
}

// CreateStorage returns the object store when bucket and region are both
// configured, and the local filesystem otherwise
func (sf *StorageFactory) CreateStorage(ctx context.Context) (BlobStorage, error) {
	if sf.config.UseObjectStore() {
		return NewS3Storage(ctx, sf.config)
	}
	return NewLocalStorage(sf.config.LocalPath, sf.config.LocalBaseURL, sf.config.PresignTTL)
}
