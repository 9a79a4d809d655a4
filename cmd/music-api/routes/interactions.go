package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stitchmusic/music-api/cmd/music-api/middleware"
	"github.com/stitchmusic/music-api/pkg/types"
)

// InteractionRoutes sets up like and comment routes
func InteractionRoutes(api *gin.RouterGroup, interactionService InteractionServiceInterface, authService middleware.AuthServiceInterface) {
	tracks := api.Group("/interactions/tracks/:id")

	tracks.GET("/likes/count", handleCountLikes(interactionService))
	tracks.GET("/comments", handleListComments(interactionService))

	tracks.POST("/like", middleware.AuthMiddleware(authService), handleLike(interactionService, true))
	tracks.DELETE("/like", middleware.AuthMiddleware(authService), handleLike(interactionService, false))
	tracks.POST("/comments", middleware.AuthMiddleware(authService), handleAddComment(interactionService))
}

// @Summary Like or unlike a track
// @Description Idempotent
// @Tags interactions
// @Produce json
// @Param id path int true "Track id"
// @Success 200 {object} types.LikeActionResponse
// @Failure 404 {object} types.ErrorResponse
// @Security BearerAuth
// @Router /interactions/tracks/{id}/like [post]
// @Router /interactions/tracks/{id}/like [delete]
func handleLike(interactionService InteractionServiceInterface, like bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := requireIdentity(c)
		if !ok {
			return
		}
		trackID, ok := trackIDParam(c)
		if !ok {
			return
		}

		var (
			resp *types.LikeActionResponse
			err  error
		)
		if like {
			resp, err = interactionService.Like(c.Request.Context(), trackID, identity.UserID)
		} else {
			resp, err = interactionService.Unlike(c.Request.Context(), trackID, identity.UserID)
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// @Summary Count likes on a track
// @Tags interactions
// @Produce json
// @Param id path int true "Track id"
// @Success 200 {object} types.LikeCountResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /interactions/tracks/{id}/likes/count [get]
func handleCountLikes(interactionService InteractionServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		trackID, ok := trackIDParam(c)
		if !ok {
			return
		}

		resp, err := interactionService.CountLikes(c.Request.Context(), trackID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// @Summary Comment on a track
// @Tags interactions
// @Accept json
// @Produce json
// @Param id path int true "Track id"
// @Param comment body types.CommentCreateRequest true "Comment"
// @Success 201 {object} types.Comment
// @Failure 400 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Security BearerAuth
// @Router /interactions/tracks/{id}/comments [post]
func handleAddComment(interactionService InteractionServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := requireIdentity(c)
		if !ok {
			return
		}
		trackID, ok := trackIDParam(c)
		if !ok {
			return
		}

		var req types.CommentCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindingError(c, err)
			return
		}

		comment, err := interactionService.AddComment(c.Request.Context(), trackID, identity.UserID, req.Body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, comment)
	}
}

// @Summary List comments on a track
// @Description Newest first
// @Tags interactions
// @Produce json
// @Param id path int true "Track id"
// @Param limit query int false "Page size (1-100)"
// @Param offset query int false "Offset"
// @Success 200 {array} types.Comment
// @Failure 404 {object} types.ErrorResponse
// @Router /interactions/tracks/{id}/comments [get]
func handleListComments(interactionService InteractionServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		trackID, ok := trackIDParam(c)
		if !ok {
			return
		}

		comments, err := interactionService.ListComments(c.Request.Context(), trackID, queryInt(c, "limit", 0), queryInt(c, "offset", 0))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, comments)
	}
}
