package routes

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/stitchmusic/music-api/cmd/music-api/middleware"
	shared "github.com/stitchmusic/music-api/internal/middleware"
	"github.com/stitchmusic/music-api/pkg/types"
)

const (
	audioPart = "file"
	coverPart = "cover"

	multipartOverhead = 1 << 20
)

// UploadRoutes sets up the upload lifecycle routes under /tracks
func UploadRoutes(api *gin.RouterGroup, uploadService UploadServiceInterface, authService middleware.AuthServiceInterface, maxUploadSize int64) {
	tracks := api.Group("/tracks", middleware.AuthMiddleware(authService))

	// An audio file and a cover may share one request
	bodyLimit := shared.UploadLimitMiddleware(2*maxUploadSize + multipartOverhead)

	tracks.POST("/upload/initiate", handleInitiateUpload(uploadService))
	tracks.POST("/upload/finalize", handleFinalizeUpload(uploadService))
	tracks.POST("/upload/cleanup", handleCleanupUploads(uploadService))
	tracks.POST("/upload/direct", bodyLimit, handleDirectUpload(uploadService))
	tracks.POST("/:id/upload/replace", bodyLimit, handleReplaceAudio(uploadService))
}

// LocalUploadRoutes serves the presigned upload URLs handed out by the
// local storage backend. Only register it when that backend is active.
func LocalUploadRoutes(api *gin.RouterGroup, uploadService UploadServiceInterface, authService middleware.AuthServiceInterface, maxUploadSize int64) {
	api.PUT("/uploads/*key",
		middleware.AuthMiddleware(authService),
		shared.UploadLimitMiddleware(maxUploadSize),
		handleReceiveUpload(uploadService),
	)
}

// @Summary Start an upload
// @Description Creates an upload session and returns where to send the bytes
// @Tags uploads
// @Accept json
// @Produce json
// @Param upload body types.UploadInitiateRequest true "File description"
// @Success 201 {object} types.UploadInitiateResponse
// @Failure 400 {object} types.ErrorResponse
// @Security BearerAuth
// @Router /tracks/upload/initiate [post]
func handleInitiateUpload(uploadService UploadServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := requireIdentity(c)
		if !ok {
			return
		}

		var req types.UploadInitiateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindingError(c, err)
			return
		}

		resp, err := uploadService.InitiateUpload(c.Request.Context(), identity.UserID, &req)
		if err != nil {
			respondError(c, err)
			return
		}

		log.Info().
			Str("request_id", middleware.GetRequestID(c)).
			Int64("user_id", identity.UserID).
			Str("upload_id", resp.UploadID).
			Msg("upload initiated")
		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary Finalize an upload
// @Description Turns a transferred upload into a track
// @Tags uploads
// @Accept json
// @Produce json
// @Param upload body types.UploadFinalizeRequest true "Upload and track details"
// @Success 201 {object} types.Track
// @Failure 400 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Security BearerAuth
// @Router /tracks/upload/finalize [post]
func handleFinalizeUpload(uploadService UploadServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := requireIdentity(c)
		if !ok {
			return
		}

		var req types.UploadFinalizeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindingError(c, err)
			return
		}

		track, err := uploadService.FinalizeUpload(c.Request.Context(), identity.UserID, &req)
		if err != nil {
			respondError(c, err)
			return
		}

		log.Info().
			Str("request_id", middleware.GetRequestID(c)).
			Int64("user_id", identity.UserID).
			Str("upload_id", req.UploadID).
			Int64("track_id", track.ID).
			Msg("upload finalized")
		c.JSON(http.StatusCreated, track)
	}
}

// @Summary Remove expired uploads
// @Description Reaps the caller's expired upload sessions
// @Tags uploads
// @Success 204
// @Security BearerAuth
// @Router /tracks/upload/cleanup [post]
func handleCleanupUploads(uploadService UploadServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := requireIdentity(c)
		if !ok {
			return
		}

		if _, err := uploadService.CleanupExpiredUploads(c.Request.Context(), identity.UserID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary Upload a track in one request
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Audio file"
// @Param cover formData file false "Cover image"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param coverUrl formData string false "External cover URL"
// @Success 201 {object} types.Track
// @Failure 400 {object} types.ErrorResponse
// @Security BearerAuth
// @Router /tracks/upload/direct [post]
func handleDirectUpload(uploadService UploadServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := requireIdentity(c)
		if !ok {
			return
		}

		var meta types.TrackMetadata
		if err := c.ShouldBind(&meta); err != nil {
			respondBindingError(c, err)
			return
		}

		audio, closeAudio, err := openFormFile(c, audioPart)
		if err != nil {
			respondBindingError(c, err)
			return
		}
		if audio == nil {
			respondError(c, errMissingFile)
			return
		}
		defer closeAudio()

		cover, closeCover, err := openFormFile(c, coverPart)
		if err != nil {
			respondBindingError(c, err)
			return
		}
		if cover != nil {
			defer closeCover()
		}

		track, err := uploadService.DirectUpload(c.Request.Context(), identity.UserID, &meta, audio, cover)
		if err != nil {
			respondError(c, err)
			return
		}

		log.Info().
			Str("request_id", middleware.GetRequestID(c)).
			Int64("user_id", identity.UserID).
			Int64("track_id", track.ID).
			Int64("bytes", audio.Size).
			Msg("direct upload stored")
		c.JSON(http.StatusCreated, track)
	}
}

// @Summary Replace a track's audio
// @Description Owner only; the previous file is removed after the new one is saved
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Track id"
// @Param file formData file true "Audio file"
// @Success 200 {object} types.Track
// @Failure 400 {object} types.ErrorResponse
// @Failure 403 {object} types.ErrorResponse
// @Security BearerAuth
// @Router /tracks/{id}/upload/replace [post]
func handleReplaceAudio(uploadService UploadServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := requireIdentity(c)
		if !ok {
			return
		}
		trackID, ok := trackIDParam(c)
		if !ok {
			return
		}

		audio, closeAudio, err := openFormFile(c, audioPart)
		if err != nil {
			respondBindingError(c, err)
			return
		}
		if audio == nil {
			respondError(c, errMissingFile)
			return
		}
		defer closeAudio()

		track, err := uploadService.ReplaceAudio(c.Request.Context(), trackID, identity.UserID, audio)
		if err != nil {
			respondError(c, err)
			return
		}

		log.Info().
			Str("request_id", middleware.GetRequestID(c)).
			Int64("user_id", identity.UserID).
			Int64("track_id", trackID).
			Msg("track audio replaced")
		c.JSON(http.StatusOK, track)
	}
}

// @Summary Receive upload bytes
// @Description Target of the presigned URL issued when files are stored locally
// @Tags uploads
// @Accept octet-stream
// @Produce json
// @Param key path string true "Storage key"
// @Success 200 {object} map[string]string
// @Failure 400 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Security BearerAuth
// @Router /uploads/{key} [put]
func handleReceiveUpload(uploadService UploadServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := requireIdentity(c)
		if !ok {
			return
		}

		key := strings.TrimPrefix(c.Param("key"), "/")
		file := &types.FileUpload{
			Filename:    key[strings.LastIndex(key, "/")+1:],
			ContentType: c.ContentType(),
			Size:        c.Request.ContentLength,
			Content:     c.Request.Body,
		}

		if err := uploadService.ReceiveUpload(c.Request.Context(), identity.UserID, key, file); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"storageKey": key})
	}
}

// openFormFile opens an optional multipart file part. A missing part yields
// a nil upload and no error.
func openFormFile(c *gin.Context, name string) (*types.FileUpload, func(), error) {
	header, err := c.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return fileUpload(header)
}

func fileUpload(header *multipart.FileHeader) (*types.FileUpload, func(), error) {
	f, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return &types.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     f,
	}, func() { f.Close() }, nil
}
