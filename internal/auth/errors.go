package auth

import "github.com/stitchmusic/music-api/pkg/apierror"

// Token verification failures. All are terminal for the request except
// ErrKeyNotFound, which the service retries once after a key-set refresh.
var (
	ErrInvalidTokenFormat   = apierror.New(apierror.KindAuthentication, "INVALID_TOKEN", "invalid token")
	ErrUnsupportedAlgorithm = apierror.New(apierror.KindAuthentication, "UNSUPPORTED_ALGORITHM", "unsupported token signing algorithm")
	ErrKeyNotFound          = apierror.New(apierror.KindAuthentication, "JWKS_KEY_NOT_FOUND", "signing key not found")
	ErrInvalidSignature     = apierror.New(apierror.KindAuthentication, "INVALID_SIGNATURE", "invalid token signature")
	ErrTokenExpired         = apierror.New(apierror.KindAuthentication, "TOKEN_EXPIRED", "token expired")
	ErrInvalidAudience      = apierror.New(apierror.KindAuthentication, "INVALID_AUDIENCE", "invalid token audience")
	ErrInvalidSubject       = apierror.New(apierror.KindAuthentication, "INVALID_SUB", "token subject is not a user id")
	ErrUnauthorized         = apierror.New(apierror.KindAuthentication, "UNAUTHORIZED", "authentication required")
)

// Remote user check failures
var (
	ErrRemoteUserNotFound = apierror.New(apierror.KindAuthentication, "AUTH_USER_NOT_FOUND", "user not found at identity provider")
	ErrRemoteUserMismatch = apierror.New(apierror.KindAuthentication, "AUTH_USER_MISMATCH", "token subject does not match identity provider user")
)

// Configuration and transient provider failures
var (
	ErrKeySetNotConfigured = apierror.New(apierror.KindUnavailable, "AUTH_NOT_CONFIGURED", "authentication is not configured")
	ErrKeySetUnavailable   = apierror.New(apierror.KindUnavailable, "JWKS_UNAVAILABLE", "signing keys unavailable")
	ErrUserInfoUnavailable = apierror.New(apierror.KindUnavailable, "AUTH_PROVIDER_UNAVAILABLE", "identity provider unavailable")
)
