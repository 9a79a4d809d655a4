package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/stitchmusic/music-api/cmd/music-api/middleware"
	"github.com/stitchmusic/music-api/pkg/types"
)

// TrackRoutes sets up track CRUD routes
func TrackRoutes(api *gin.RouterGroup, trackService TrackServiceInterface, authService middleware.AuthServiceInterface) {
	tracks := api.Group("/tracks")

	tracks.GET("", handleListTracks(trackService))
	tracks.GET("/:id", handleGetTrack(trackService))

	// Mutations require authentication
	tracks.POST("", middleware.AuthMiddleware(authService), handleCreateTrack(trackService))
	tracks.PATCH("/:id", middleware.AuthMiddleware(authService), handleUpdateTrack(trackService))
	tracks.DELETE("/:id", middleware.AuthMiddleware(authService), handleDeleteTrack(trackService))
}

// @Summary List tracks
// @Description Newest first, optionally restricted to one owner
// @Tags tracks
// @Produce json
// @Param limit query int false "Page size (1-100)"
// @Param offset query int false "Offset"
// @Param ownerId query int false "Owner user id"
// @Success 200 {array} types.Track
// @Router /tracks [get]
func handleListTracks(trackService TrackServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := &types.TrackFilter{
			Limit:  queryInt(c, "limit", 0),
			Offset: queryInt(c, "offset", 0),
		}
		if raw := c.Query("ownerId"); raw != "" {
			ownerID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				respondBindingError(c, err)
				return
			}
			filter.OwnerUserID = &ownerID
		}

		tracks, err := trackService.List(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tracks)
	}
}

// @Summary Get a track
// @Tags tracks
// @Produce json
// @Param id path int true "Track id"
// @Success 200 {object} types.Track
// @Failure 404 {object} types.ErrorResponse
// @Router /tracks/{id} [get]
func handleGetTrack(trackService TrackServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		trackID, ok := trackIDParam(c)
		if !ok {
			return
		}

		track, err := trackService.Get(c.Request.Context(), trackID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, track)
	}
}

// @Summary Create a track without audio
// @Tags tracks
// @Accept json
// @Produce json
// @Param track body types.TrackMetadata true "Track metadata"
// @Success 201 {object} types.Track
// @Failure 400 {object} types.ErrorResponse
// @Security BearerAuth
// @Router /tracks [post]
func handleCreateTrack(trackService TrackServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := requireIdentity(c)
		if !ok {
			return
		}

		var meta types.TrackMetadata
		if err := c.ShouldBindJSON(&meta); err != nil {
			respondBindingError(c, err)
			return
		}

		track, err := trackService.Create(c.Request.Context(), identity.UserID, &meta)
		if err != nil {
			respondError(c, err)
			return
		}

		log.Info().
			Str("request_id", middleware.GetRequestID(c)).
			Int64("user_id", identity.UserID).
			Int64("track_id", track.ID).
			Msg("track created")
		c.JSON(http.StatusCreated, track)
	}
}

// @Summary Update a track
// @Description Owner only; omitted fields are left unchanged
// @Tags tracks
// @Accept json
// @Produce json
// @Param id path int true "Track id"
// @Param track body types.TrackUpdateRequest true "Fields to change"
// @Success 200 {object} types.Track
// @Failure 403 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Security BearerAuth
// @Router /tracks/{id} [patch]
func handleUpdateTrack(trackService TrackServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := requireIdentity(c)
		if !ok {
			return
		}
		trackID, ok := trackIDParam(c)
		if !ok {
			return
		}

		var req types.TrackUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindingError(c, err)
			return
		}

		track, err := trackService.Update(c.Request.Context(), trackID, identity.UserID, &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, track)
	}
}

// @Summary Delete a track
// @Description Owner only; also removes likes, comments and stored files
// @Tags tracks
// @Param id path int true "Track id"
// @Success 204
// @Failure 403 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Security BearerAuth
// @Router /tracks/{id} [delete]
func handleDeleteTrack(trackService TrackServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := requireIdentity(c)
		if !ok {
			return
		}
		trackID, ok := trackIDParam(c)
		if !ok {
			return
		}

		if err := trackService.Delete(c.Request.Context(), trackID, identity.UserID); err != nil {
			respondError(c, err)
			return
		}

		log.Info().
			Str("request_id", middleware.GetRequestID(c)).
			Int64("user_id", identity.UserID).
			Int64("track_id", trackID).
			Msg("track deleted")
		c.Status(http.StatusNoContent)
	}
}
