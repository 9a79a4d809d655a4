package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

// SigningAlgorithm is the only accepted token signing algorithm
const SigningAlgorithm = "RS256"

// VerifyOptions are the claim checks applied after the signature is verified
type VerifyOptions struct {
	Audience string
	Now      time.Time
}

// Verify checks a bearer token against a key set and returns its claims.
// Claims are read only from the signature-verified token.
func Verify(tokenString string, keys *jose.JSONWebKeySet, opts VerifyOptions) (jwt.MapClaims, error) {
	parser := jwt.NewParser()

	unverified, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTokenFormat, err)
	}

	alg, _ := unverified.Header["alg"].(string)
	if alg != SigningAlgorithm {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}

	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("%w: missing kid", ErrInvalidTokenFormat)
	}

	publicKey := findRSAKey(keys, kid)
	if publicKey == nil {
		return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
	}

	token, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
		return publicKey, nil
	},
		jwt.WithValidMethods([]string{SigningAlgorithm}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidTokenFormat, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidTokenFormat
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil || !now.Before(exp.Time) {
		return nil, ErrTokenExpired
	}

	if opts.Audience != "" {
		aud, err := claims.GetAudience()
		if err != nil || !slices.Contains(aud, opts.Audience) {
			return nil, ErrInvalidAudience
		}
	}

	return claims, nil
}

func findRSAKey(keys *jose.JSONWebKeySet, kid string) *rsa.PublicKey {
	if keys == nil {
		return nil
	}
	for _, k := range keys.Key(kid) {
		if pub, ok := k.Key.(*rsa.PublicKey); ok {
			return pub
		}
	}
	return nil
}
