package tracks

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stitchmusic/music-api/internal/common"
	"github.com/stitchmusic/music-api/internal/storage"
	"github.com/stitchmusic/music-api/pkg/config"
	"github.com/stitchmusic/music-api/pkg/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	alice int64 = 1
	bob   int64 = 2
)

// MockBlobStorage is a mock implementation of storage.BlobStorage
type MockBlobStorage struct {
	mock.Mock
}

func (m *MockBlobStorage) Kind() storage.Kind {
	return m.Called().Get(0).(storage.Kind)
}

func (m *MockBlobStorage) Store(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, content, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStorage) Retrieve(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockBlobStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockBlobStorage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockBlobStorage) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (*storage.PresignedUpload, error) {
	args := m.Called(ctx, key, contentType, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.PresignedUpload), args.Error(1)
}

func (m *MockBlobStorage) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

// testClock is a settable time source
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func setupTestDB(t *testing.T) *common.Database {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// Every connection to :memory: is a separate database
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db := &common.Database{DB: gdb}
	require.NoError(t, db.Migrate())
	return db
}

func testStorageConfig(t *testing.T) *config.StorageConfig {
	return &config.StorageConfig{
		LocalPath:         t.TempDir(),
		LocalBaseURL:      "/api/uploads",
		PresignTTL:        15 * time.Minute,
		UploadSessionTTL:  15 * time.Minute,
		MaxUploadSize:     50 * 1024 * 1024,
		AllowedAudioTypes: []string{"audio/mpeg", "audio/wav", "audio/flac"},
		AllowedImageTypes: []string{"image/jpeg", "image/png"},
	}
}

func newTestService(t *testing.T, blobs storage.BlobStorage, cfg *config.StorageConfig) (*Service, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	service := NewService(setupTestDB(t), blobs, cfg)
	service.now = clock.Now
	return service, clock
}

// setupTestService wires the service to real local storage
func setupTestService(t *testing.T) (*Service, *storage.LocalStorage, *testClock) {
	t.Helper()
	cfg := testStorageConfig(t)
	local, err := storage.NewLocalStorage(cfg.LocalPath, cfg.LocalBaseURL, cfg.PresignTTL)
	require.NoError(t, err)

	service, clock := newTestService(t, local, cfg)
	return service, local, clock
}

func audioFile(name, content string) *types.FileUpload {
	return &types.FileUpload{
		Filename:    name,
		ContentType: "audio/mpeg",
		Size:        int64(len(content)),
		Content:     strings.NewReader(content),
	}
}

func createTrack(t *testing.T, s *Service, ownerID int64, title string) *types.Track {
	t.Helper()
	track, err := s.Create(context.Background(), ownerID, &types.TrackMetadata{Title: title})
	require.NoError(t, err)
	return track
}

func readStored(t *testing.T, blobs storage.BlobStorage, key string) string {
	t.Helper()
	reader, err := blobs.Retrieve(context.Background(), key)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	return string(data)
}

func strPtr(s string) *string { return &s }
