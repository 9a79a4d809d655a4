package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stitchmusic/music-api/cmd/music-api/middleware"
	"github.com/stitchmusic/music-api/internal/tracks"
	"github.com/stitchmusic/music-api/pkg/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// headerAuth accepts only the development identity header
type headerAuth struct{}

func (headerAuth) ValidateToken(ctx context.Context, token string) (*types.Identity, error) {
	return nil, nil
}
func (headerAuth) TokenAuthEnabled() bool  { return false }
func (headerAuth) HeaderAuthEnabled() bool { return true }

// MockTrackService mocks TrackServiceInterface
type MockTrackService struct {
	mock.Mock
}

func (m *MockTrackService) List(ctx context.Context, filter *types.TrackFilter) ([]*types.Track, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Track), args.Error(1)
}

func (m *MockTrackService) Get(ctx context.Context, trackID int64) (*types.Track, error) {
	args := m.Called(ctx, trackID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Track), args.Error(1)
}

func (m *MockTrackService) Create(ctx context.Context, ownerID int64, meta *types.TrackMetadata) (*types.Track, error) {
	args := m.Called(ctx, ownerID, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Track), args.Error(1)
}

func (m *MockTrackService) Update(ctx context.Context, trackID, userID int64, req *types.TrackUpdateRequest) (*types.Track, error) {
	args := m.Called(ctx, trackID, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Track), args.Error(1)
}

func (m *MockTrackService) Delete(ctx context.Context, trackID, userID int64) error {
	return m.Called(ctx, trackID, userID).Error(0)
}

func (m *MockTrackService) ResolveMedia(ctx context.Context, trackID int64, kind tracks.MediaKind) (*tracks.Media, error) {
	args := m.Called(ctx, trackID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tracks.Media), args.Error(1)
}

// MockUploadService mocks UploadServiceInterface
type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) InitiateUpload(ctx context.Context, ownerID int64, req *types.UploadInitiateRequest) (*types.UploadInitiateResponse, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UploadInitiateResponse), args.Error(1)
}

func (m *MockUploadService) FinalizeUpload(ctx context.Context, ownerID int64, req *types.UploadFinalizeRequest) (*types.Track, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Track), args.Error(1)
}

func (m *MockUploadService) CleanupExpiredUploads(ctx context.Context, ownerID int64) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUploadService) DirectUpload(ctx context.Context, ownerID int64, meta *types.TrackMetadata, audio, cover *types.FileUpload) (*types.Track, error) {
	args := m.Called(ctx, ownerID, meta, audio, cover)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Track), args.Error(1)
}

func (m *MockUploadService) ReplaceAudio(ctx context.Context, trackID, userID int64, audio *types.FileUpload) (*types.Track, error) {
	args := m.Called(ctx, trackID, userID, audio)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Track), args.Error(1)
}

func (m *MockUploadService) ReceiveUpload(ctx context.Context, userID int64, key string, file *types.FileUpload) error {
	return m.Called(ctx, userID, key, file).Error(0)
}

// MockInteractionService mocks InteractionServiceInterface
type MockInteractionService struct {
	mock.Mock
}

func (m *MockInteractionService) Like(ctx context.Context, trackID, userID int64) (*types.LikeActionResponse, error) {
	args := m.Called(ctx, trackID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.LikeActionResponse), args.Error(1)
}

func (m *MockInteractionService) Unlike(ctx context.Context, trackID, userID int64) (*types.LikeActionResponse, error) {
	args := m.Called(ctx, trackID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.LikeActionResponse), args.Error(1)
}

func (m *MockInteractionService) CountLikes(ctx context.Context, trackID int64) (*types.LikeCountResponse, error) {
	args := m.Called(ctx, trackID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.LikeCountResponse), args.Error(1)
}

func (m *MockInteractionService) AddComment(ctx context.Context, trackID, userID int64, body string) (*types.Comment, error) {
	args := m.Called(ctx, trackID, userID, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Comment), args.Error(1)
}

func (m *MockInteractionService) ListComments(ctx context.Context, trackID int64, limit, offset int) ([]*types.Comment, error) {
	args := m.Called(ctx, trackID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Comment), args.Error(1)
}

func newTestRouter() (*gin.Engine, *gin.RouterGroup) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	return router, router.Group("/api")
}

func newRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

func record(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// serve sends a request, as userID when it is non-zero
func serve(router http.Handler, method, target string, body io.Reader, contentType string, userID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != 0 {
		req.Header.Set(middleware.UserIDHeader, strconv.FormatInt(userID, 10))
	}
	return record(router, req)
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}
