// Package middleware holds gin middleware shared by the HTTP entrypoints.
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stitchmusic/music-api/pkg/apierror"
	"github.com/stitchmusic/music-api/pkg/types"
)

// ErrRequestTooLarge is returned when a request body exceeds its limit
var ErrRequestTooLarge = apierror.New(apierror.KindValidation, "FILE_TOO_LARGE", "request body exceeds the maximum upload size")

// AbortWithError writes the {code, message} body for err and aborts the chain.
// Errors without a code are reported as a generic internal error.
func AbortWithError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		err = ErrRequestTooLarge
	}

	apiErr := apierror.From(err)
	c.AbortWithStatusJSON(apiErr.Status(), types.ErrorResponse{
		Code:    apiErr.Code,
		Message: apiErr.Message,
	})
}
