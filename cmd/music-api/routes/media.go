package routes

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/stitchmusic/music-api/cmd/music-api/middleware"
	"github.com/stitchmusic/music-api/internal/tracks"
)

// MediaRoutes sets up audio and cover delivery routes
func MediaRoutes(api *gin.RouterGroup, trackService TrackServiceInterface) {
	api.GET("/tracks/:id/stream", handleMedia(trackService, tracks.MediaAudio))
	api.GET("/tracks/:id/cover", handleMedia(trackService, tracks.MediaCover))
}

// @Summary Stream a track's audio or cover
// @Description Redirects to a presigned or external URL, or streams the stored file
// @Tags media
// @Param id path int true "Track id"
// @Success 200
// @Success 307
// @Failure 404 {object} types.ErrorResponse
// @Router /tracks/{id}/stream [get]
// @Router /tracks/{id}/cover [get]
func handleMedia(trackService TrackServiceInterface, kind tracks.MediaKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		trackID, ok := trackIDParam(c)
		if !ok {
			return
		}

		media, err := trackService.ResolveMedia(c.Request.Context(), trackID, kind)
		if err != nil {
			respondError(c, err)
			return
		}

		if media.RedirectURL != "" {
			c.Redirect(http.StatusTemporaryRedirect, media.RedirectURL)
			return
		}
		defer media.Content.Close()

		c.Header("Content-Type", media.ContentType)
		c.Header("Content-Disposition", `inline; filename="`+media.Filename+`"`)

		if rs, ok := media.Content.(io.ReadSeeker); ok {
			http.ServeContent(c.Writer, c.Request, media.Filename, time.Time{}, rs)
			return
		}

		c.DataFromReader(http.StatusOK, -1, media.ContentType, media.Content, nil)
		log.Debug().
			Str("request_id", middleware.GetRequestID(c)).
			Int64("track_id", trackID).
			Msg("media streamed")
	}
}
