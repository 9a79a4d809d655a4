package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stitchmusic/music-api/internal/tracks"
	"github.com/stitchmusic/music-api/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTrackRouter(svc *MockTrackService) http.Handler {
	router, api := newTestRouter()
	TrackRoutes(api, svc, headerAuth{})
	return router
}

func TestListTracks_PassesFilter(t *testing.T) {
	svc := &MockTrackService{}
	svc.On("List", mock.Anything, mock.MatchedBy(func(f *types.TrackFilter) bool {
		return f.Limit == 10 && f.Offset == 20 && f.OwnerUserID != nil && *f.OwnerUserID == 3
	})).Return([]*types.Track{{ID: 1, Title: "one"}}, nil)

	w := serve(setupTrackRouter(svc), http.MethodGet, "/api/tracks?limit=10&offset=20&ownerId=3", nil, "", 0)

	require.Equal(t, http.StatusOK, w.Code)
	var got []types.Track
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 1)
	svc.AssertExpectations(t)
}

func TestListTracks_InvalidOwner(t *testing.T) {
	svc := &MockTrackService{}

	w := serve(setupTrackRouter(svc), http.MethodGet, "/api/tracks?ownerId=abc", nil, "", 0)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, w))
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestGetTrack(t *testing.T) {
	svc := &MockTrackService{}
	svc.On("Get", mock.Anything, int64(7)).Return(&types.Track{ID: 7, Title: "seven"}, nil)
	svc.On("Get", mock.Anything, int64(8)).Return(nil, fmt.Errorf("loading: %w", tracks.ErrTrackNotFound))
	router := setupTrackRouter(svc)

	w := serve(router, http.MethodGet, "/api/tracks/7", nil, "", 0)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"seven"`)

	w = serve(router, http.MethodGet, "/api/tracks/8", nil, "", 0)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TRACK_NOT_FOUND", errorCode(t, w))

	w = serve(router, http.MethodGet, "/api/tracks/nope", nil, "", 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, w))
}

func TestCreateTrack(t *testing.T) {
	svc := &MockTrackService{}
	svc.On("Create", mock.Anything, int64(5), mock.MatchedBy(func(m *types.TrackMetadata) bool {
		return m.Title == "Demo" && m.Genre != nil && *m.Genre == "lofi"
	})).Return(&types.Track{ID: 1, OwnerUserID: 5, Title: "Demo"}, nil)
	router := setupTrackRouter(svc)

	w := serve(router, http.MethodPost, "/api/tracks", strings.NewReader(`{"title":"Demo","genre":"lofi"}`), "application/json", 5)
	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestCreateTrack_Validation(t *testing.T) {
	svc := &MockTrackService{}
	router := setupTrackRouter(svc)

	w := serve(router, http.MethodPost, "/api/tracks", strings.NewReader(`{"description":"no title"}`), "application/json", 5)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, w))

	w = serve(router, http.MethodPost, "/api/tracks", strings.NewReader(`{"title":`), "application/json", 5)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, w))

	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateTrack_RequiresIdentity(t *testing.T) {
	svc := &MockTrackService{}

	w := serve(setupTrackRouter(svc), http.MethodPost, "/api/tracks", strings.NewReader(`{"title":"Demo"}`), "application/json", 0)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
}

func TestUpdateTrack_Forbidden(t *testing.T) {
	svc := &MockTrackService{}
	svc.On("Update", mock.Anything, int64(7), int64(2), mock.MatchedBy(func(r *types.TrackUpdateRequest) bool {
		return r.Title != nil && *r.Title == "mine now" && r.Genre == nil
	})).Return(nil, tracks.ErrForbidden)

	w := serve(setupTrackRouter(svc), http.MethodPatch, "/api/tracks/7", strings.NewReader(`{"title":"mine now"}`), "application/json", 2)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))
	svc.AssertExpectations(t)
}

func TestDeleteTrack(t *testing.T) {
	svc := &MockTrackService{}
	svc.On("Delete", mock.Anything, int64(7), int64(1)).Return(nil)

	w := serve(setupTrackRouter(svc), http.MethodDelete, "/api/tracks/7", nil, "", 1)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	svc.AssertExpectations(t)
}

func TestUnexpectedErrorIsGeneric(t *testing.T) {
	svc := &MockTrackService{}
	svc.On("Get", mock.Anything, int64(7)).Return(nil, fmt.Errorf("pq: connection refused"))

	w := serve(setupTrackRouter(svc), http.MethodGet, "/api/tracks/7", nil, "", 0)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", errorCode(t, w))
	assert.NotContains(t, w.Body.String(), "connection refused")
}
