package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/stitchmusic/music-api/internal/auth"
	shared "github.com/stitchmusic/music-api/internal/middleware"
	"github.com/stitchmusic/music-api/pkg/types"
)

const (
	identityKey = "identity"

	// UserIDHeader carries a caller id when header authentication is enabled
	UserIDHeader = "X-User-Id"
)

// AuthMiddleware resolves the caller from a bearer token, or from the
// development identity header when that is enabled
func AuthMiddleware(authService AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok && authService.TokenAuthEnabled() {
			identity, err := authService.ValidateToken(c.Request.Context(), token)
			if err != nil {
				log.Warn().
					Err(err).
					Str("request_id", GetRequestID(c)).
					Str("path", c.Request.URL.Path).
					Msg("token rejected")
				shared.AbortWithError(c, err)
				return
			}
			c.Set(identityKey, identity)
			c.Next()
			return
		}

		if authService.HeaderAuthEnabled() {
			if raw := c.GetHeader(UserIDHeader); raw != "" {
				userID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
				if err != nil || userID <= 0 {
					shared.AbortWithError(c, auth.ErrUnauthorized)
					return
				}
				c.Set(identityKey, &types.Identity{
					UserID: userID,
					Claims: map[string]any{"sub": strconv.FormatInt(userID, 10)},
				})
				c.Next()
				return
			}
		}

		if !authService.TokenAuthEnabled() && !authService.HeaderAuthEnabled() {
			shared.AbortWithError(c, auth.ErrKeySetNotConfigured)
			return
		}
		shared.AbortWithError(c, auth.ErrUnauthorized)
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

// GetIdentityFromContext extracts the authenticated caller from gin context
func GetIdentityFromContext(c *gin.Context) (*types.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	identity, ok := value.(*types.Identity)
	return identity, ok
}
