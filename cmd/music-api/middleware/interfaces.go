package middleware

import (
	"context"

	"github.com/stitchmusic/music-api/pkg/types"
)

// AuthServiceInterface defines the contract for authentication services
type AuthServiceInterface interface {
	ValidateToken(ctx context.Context, token string) (*types.Identity, error)
	TokenAuthEnabled() bool
	HeaderAuthEnabled() bool
}
