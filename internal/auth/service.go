package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/stitchmusic/music-api/pkg/config"
	"github.com/stitchmusic/music-api/pkg/types"
)

// KeySource supplies signing keys, with a forced refresh for unknown key ids
type KeySource interface {
	Configured() bool
	Get(ctx context.Context) (*jose.JSONWebKeySet, error)
	Refresh(ctx context.Context) (*jose.JSONWebKeySet, error)
}

// Service resolves bearer tokens into caller identities
type Service struct {
	keys   KeySource
	config *config.AuthConfig
	client *http.Client
	now    func() time.Time
}

// NewService creates a new authentication service
func NewService(keys KeySource, config *config.AuthConfig) *Service {
	return &Service{
		keys:   keys,
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		now:    time.Now,
	}
}

// TokenAuthEnabled reports whether bearer tokens can be verified
func (s *Service) TokenAuthEnabled() bool {
	return s.keys != nil && s.keys.Configured()
}

// HeaderAuthEnabled reports whether the development identity header is honoured
func (s *Service) HeaderAuthEnabled() bool {
	return s.config.AllowHeaderAuth
}

// ValidateToken verifies a bearer token and returns the caller's identity
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*types.Identity, error) {
	if !s.TokenAuthEnabled() {
		return nil, ErrKeySetNotConfigured
	}

	keys, err := s.keys.Get(ctx)
	if err != nil {
		return nil, err
	}

	opts := VerifyOptions{Audience: s.config.JWKSAudience, Now: s.now()}
	claims, err := Verify(tokenString, keys, opts)
	if errors.Is(err, ErrKeyNotFound) {
		// The provider may have rotated keys since the set was cached
		log.Debug().Err(err).Msg("signing key not in cached key set, refreshing")
		if keys, err = s.keys.Refresh(ctx); err != nil {
			return nil, err
		}
		claims, err = Verify(tokenString, keys, opts)
	}
	if err != nil {
		return nil, err
	}

	userID, err := subjectUserID(claims)
	if err != nil {
		return nil, err
	}

	if s.config.UserInfoURL != "" {
		if err := s.checkRemoteUser(ctx, tokenString, userID); err != nil {
			return nil, err
		}
	}

	return &types.Identity{UserID: userID, Claims: claims}, nil
}

// subjectUserID reads the numeric user id from sub, falling back to user_id
func subjectUserID(claims jwt.MapClaims) (int64, error) {
	raw, ok := claims["sub"]
	if !ok || raw == nil || raw == "" {
		raw, ok = claims["user_id"]
	}
	if !ok || raw == nil {
		return 0, fmt.Errorf("%w: missing subject", ErrInvalidTokenFormat)
	}
	return parseUserID(raw)
}

func parseUserID(raw interface{}) (int64, error) {
	var (
		id  int64
		err error
	)
	switch v := raw.(type) {
	case string:
		id, err = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which is out of range
		if v != math.Trunc(v) || v < 1 || v >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %v", ErrInvalidSubject, v)
		}
		id = int64(v)
	case json.Number:
		id, err = v.Int64()
	default:
		return 0, fmt.Errorf("%w: %T", ErrInvalidSubject, raw)
	}
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSubject, raw)
	}
	return id, nil
}

// checkRemoteUser confirms the subject exists at the identity provider
func (s *Service) checkRemoteUser(ctx context.Context, tokenString string, userID int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.UserInfoURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUserInfoUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+tokenString)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("url", s.config.UserInfoURL).Msg("identity provider request failed")
		return fmt.Errorf("%w: %v", ErrUserInfoUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Int64("user_id", userID).Msg("identity provider rejected user")
		return ErrRemoteUserNotFound
	}

	var profile struct {
		ID interface{} `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil || profile.ID == nil {
		return ErrRemoteUserMismatch
	}
	remoteID, err := parseUserID(profile.ID)
	if err != nil || remoteID != userID {
		return ErrRemoteUserMismatch
	}
	return nil
}
