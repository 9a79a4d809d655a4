package routes

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stitchmusic/music-api/internal/tracks"
	"github.com/stitchmusic/music-api/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupInteractionRouter(svc *MockInteractionService) http.Handler {
	router, api := newTestRouter()
	InteractionRoutes(api, svc, headerAuth{})
	return router
}

func TestLikeAndUnlike(t *testing.T) {
	svc := &MockInteractionService{}
	svc.On("Like", mock.Anything, int64(7), int64(1)).Return(&types.LikeActionResponse{TrackID: 7, Liked: true}, nil)
	svc.On("Unlike", mock.Anything, int64(7), int64(1)).Return(&types.LikeActionResponse{TrackID: 7, Liked: false}, nil)
	router := setupInteractionRouter(svc)

	w := serve(router, http.MethodPost, "/api/interactions/tracks/7/like", nil, "", 1)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"trackId":7,"liked":true}`, w.Body.String())

	w = serve(router, http.MethodDelete, "/api/interactions/tracks/7/like", nil, "", 1)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"trackId":7,"liked":false}`, w.Body.String())

	svc.AssertExpectations(t)
}

func TestLike_MissingTrack(t *testing.T) {
	svc := &MockInteractionService{}
	svc.On("Like", mock.Anything, int64(99), int64(1)).Return(nil, tracks.ErrTrackNotFound)

	w := serve(setupInteractionRouter(svc), http.MethodPost, "/api/interactions/tracks/99/like", nil, "", 1)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TRACK_NOT_FOUND", errorCode(t, w))
}

func TestLike_RequiresIdentity(t *testing.T) {
	svc := &MockInteractionService{}

	w := serve(setupInteractionRouter(svc), http.MethodPost, "/api/interactions/tracks/7/like", nil, "", 0)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "Like", mock.Anything, mock.Anything, mock.Anything)
}

func TestCountLikes(t *testing.T) {
	svc := &MockInteractionService{}
	svc.On("CountLikes", mock.Anything, int64(7)).Return(&types.LikeCountResponse{TrackID: 7, Count: 3}, nil)

	w := serve(setupInteractionRouter(svc), http.MethodGet, "/api/interactions/tracks/7/likes/count", nil, "", 0)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"trackId":7,"count":3}`, w.Body.String())
}

func TestAddComment(t *testing.T) {
	svc := &MockInteractionService{}
	svc.On("AddComment", mock.Anything, int64(7), int64(2), "nice beat").
		Return(&types.Comment{ID: 1, TrackID: 7, UserID: 2, Body: "nice beat"}, nil)
	router := setupInteractionRouter(svc)

	w := serve(router, http.MethodPost, "/api/interactions/tracks/7/comments", strings.NewReader(`{"body":"nice beat"}`), "application/json", 2)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"body":"nice beat"`)

	w = serve(router, http.MethodPost, "/api/interactions/tracks/7/comments", strings.NewReader(`{"body":""}`), "application/json", 2)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, w))

	w = serve(router, http.MethodPost, "/api/interactions/tracks/7/comments", strings.NewReader(`{"body":"`+strings.Repeat("a", 2001)+`"}`), "application/json", 2)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertNumberOfCalls(t, "AddComment", 1)
}

func TestListComments_PassesPaging(t *testing.T) {
	svc := &MockInteractionService{}
	svc.On("ListComments", mock.Anything, int64(7), 5, 10).Return([]*types.Comment{{ID: 2}, {ID: 1}}, nil)
	svc.On("ListComments", mock.Anything, int64(7), 0, 0).Return([]*types.Comment{}, nil)
	router := setupInteractionRouter(svc)

	w := serve(router, http.MethodGet, "/api/interactions/tracks/7/comments?limit=5&offset=10", nil, "", 0)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":2`)

	w = serve(router, http.MethodGet, "/api/interactions/tracks/7/comments?limit=bogus", nil, "", 0)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	svc.AssertExpectations(t)
}
