package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// UploadLimitMiddleware caps the request body at maxBytes. Requests that
// declare a larger Content-Length are rejected before any byte is read;
// others fail when the reader crosses the limit.
func UploadLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			log.Warn().
				Int64("content_length", c.Request.ContentLength).
				Int64("limit", maxBytes).
				Str("path", c.Request.URL.Path).
				Msg("request body too large")
			AbortWithError(c, ErrRequestTooLarge)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
