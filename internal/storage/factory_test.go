package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stitchmusic/music-api/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageFactory_CreateLocalStorage(t *testing.T) {
	storageConfig := &config.StorageConfig{
		LocalPath:    t.TempDir(),
		LocalBaseURL: "/api/uploads",
		PresignTTL:   time.Minute,
	}

	storage, err := NewStorageFactory(storageConfig).CreateStorage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindLocal, storage.Kind())

	ctx := context.Background()
	_, err = storage.Store(ctx, "uploads/1/s/factory.mp3", strings.NewReader("content from factory test"), "audio/mpeg")
	assert.NoError(t, err)

	exists, err := storage.Exists(ctx, "uploads/1/s/factory.mp3")
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestStorageFactory_BucketWithoutRegionFallsBackToLocal(t *testing.T) {
	storageConfig := &config.StorageConfig{
		Bucket:     "tracks",
		LocalPath:  t.TempDir(),
		PresignTTL: time.Minute,
	}

	storage, err := NewStorageFactory(storageConfig).CreateStorage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindLocal, storage.Kind())
}

func TestStorageFactory_CreateS3Storage(t *testing.T) {
	storageConfig := &config.StorageConfig{
		Bucket:     "tracks",
		Region:     "us-east-1",
		Endpoint:   "http://localhost:9000",
		AccessKey:  "minio",
		SecretKey:  "minio123",
		PresignTTL: time.Minute,
		Timeout:    time.Second,
	}

	storage, err := NewStorageFactory(storageConfig).CreateStorage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindS3, storage.Kind())

	// Presigning is local computation and needs no server
	upload, err := storage.PresignUpload(context.Background(), "uploads/1/s/a.mp3", "audio/mpeg", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(upload.URL, "http://localhost:9000/tracks/uploads/1/s/a.mp3"))
	assert.Equal(t, 60, upload.ExpiresIn)
}
