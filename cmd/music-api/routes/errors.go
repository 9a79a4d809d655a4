package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/stitchmusic/music-api/cmd/music-api/middleware"
	"github.com/stitchmusic/music-api/internal/auth"
	shared "github.com/stitchmusic/music-api/internal/middleware"
	"github.com/stitchmusic/music-api/pkg/apierror"
	"github.com/stitchmusic/music-api/pkg/types"
)

var (
	errValidation     = apierror.New(apierror.KindValidation, "VALIDATION_FAILED", "request validation failed")
	errInvalidTrackID = apierror.New(apierror.KindValidation, "VALIDATION_FAILED", "invalid track id")
	errMissingFile    = apierror.New(apierror.KindValidation, "VALIDATION_FAILED", "file is required")
)

// respondError translates err to its HTTP status and {code, message} body.
// Server-side failures are logged with full detail.
func respondError(c *gin.Context, err error) {
	apiErr := apierror.From(err)
	event := log.Debug()
	if apiErr.Status() >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.
		Err(err).
		Str("request_id", middleware.GetRequestID(c)).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("code", apiErr.Code).
		Msg("request failed")

	shared.AbortWithError(c, err)
}

// respondBindingError reports a malformed request body. A body cut off by
// the upload limit is reported as too large instead.
func respondBindingError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(c, err)
		return
	}
	log.Debug().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("request binding failed")
	c.AbortWithStatusJSON(http.StatusBadRequest, types.ErrorResponse{
		Code:    errValidation.Code,
		Message: err.Error(),
	})
}

// requireIdentity returns the caller; the auth middleware guarantees one on protected routes
func requireIdentity(c *gin.Context) (*types.Identity, bool) {
	identity, ok := middleware.GetIdentityFromContext(c)
	if !ok {
		respondError(c, auth.ErrUnauthorized)
		return nil, false
	}
	return identity, true
}

func trackIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, errInvalidTrackID)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
