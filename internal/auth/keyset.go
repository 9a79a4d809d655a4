package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/rs/zerolog/log"
	"github.com/stitchmusic/music-api/pkg/config"
)

// KeySetCacheKey is the shared cache key for the signing-key document
const KeySetCacheKey = "auth:jwks"

const maxKeySetSize = 1 << 20

// SharedCache is the distributed tier of the key-set cache
type SharedCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// sharedKeySet is the shared-tier document. FetchedAt travels with the keys so
// every process expires its copy at the same moment.
type sharedKeySet struct {
	FetchedAt time.Time       `json:"fetchedAt"`
	Keys      json.RawMessage `json:"keys"`
}

type cachedKeySet struct {
	keys      *jose.JSONWebKeySet
	expiresAt time.Time
}

// KeySetCache memoizes the identity provider's signing keys in two tiers:
// process-local memory, then the shared cache, then the network.
type KeySetCache struct {
	url    string
	ttl    time.Duration
	shared SharedCache
	client *http.Client
	now    func() time.Time

	// Concurrent refreshes may overwrite each other; any recent set is acceptable
	local atomic.Pointer[cachedKeySet]
}

// NewKeySetCache creates a key-set cache. shared may be nil.
func NewKeySetCache(cfg *config.AuthConfig, shared SharedCache) *KeySetCache {
	return &KeySetCache{
		url:    cfg.JWKSURL,
		ttl:    cfg.JWKSCacheTTL,
		shared: shared,
		client: &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}
}

// Configured reports whether a key-set URL is set
func (c *KeySetCache) Configured() bool {
	return c.url != ""
}

// Get returns the current key set, fetching it if neither tier holds a fresh copy
func (c *KeySetCache) Get(ctx context.Context) (*jose.JSONWebKeySet, error) {
	if !c.Configured() {
		return nil, ErrKeySetNotConfigured
	}

	if cached := c.local.Load(); cached != nil && c.now().Before(cached.expiresAt) {
		return cached.keys, nil
	}

	if c.shared != nil {
		var doc sharedKeySet
		err := c.shared.Get(ctx, KeySetCacheKey, &doc)
		switch {
		case err != nil:
			log.Debug().Err(err).Msg("key set not in shared cache")
		case !c.now().Before(doc.FetchedAt.Add(c.ttl)):
			log.Debug().Time("fetched_at", doc.FetchedAt).Msg("shared key set is stale")
		default:
			keys, parseErr := parseKeySet(doc.Keys)
			if parseErr == nil {
				c.storeLocal(keys, doc.FetchedAt)
				return keys, nil
			}
			log.Warn().Err(parseErr).Msg("discarding malformed key set from shared cache")
		}
	}

	return c.Refresh(ctx)
}

// Refresh fetches the key set from the network and replaces both tiers
func (c *KeySetCache) Refresh(ctx context.Context) (*jose.JSONWebKeySet, error) {
	if !c.Configured() {
		return nil, ErrKeySetNotConfigured
	}

	raw, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	keys, err := parseKeySet(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}

	fetchedAt := c.now()
	if c.shared != nil {
		doc := sharedKeySet{FetchedAt: fetchedAt, Keys: raw}
		if err := c.shared.Set(ctx, KeySetCacheKey, doc, c.ttl); err != nil {
			log.Warn().Err(err).Msg("failed to store key set in shared cache")
		}
	}
	c.storeLocal(keys, fetchedAt)

	log.Info().Str("url", c.url).Int("keys", len(keys.Keys)).Msg("key set refreshed")
	return keys, nil
}

// Warm performs an initial fetch at startup. Failure is logged, never returned.
func (c *KeySetCache) Warm(ctx context.Context) {
	if !c.Configured() {
		log.Info().Msg("no key set url configured, skipping key set warm-up")
		return
	}
	if _, err := c.Get(ctx); err != nil {
		log.Warn().Err(err).Str("url", c.url).Msg("key set warm-up failed, first request will retry")
	}
}

// storeLocal caches keys until fetchedAt+ttl, however late this process saw them
func (c *KeySetCache) storeLocal(keys *jose.JSONWebKeySet, fetchedAt time.Time) {
	c.local.Store(&cachedKeySet{keys: keys, expiresAt: fetchedAt.Add(c.ttl)})
}

func (c *KeySetCache) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("url", c.url).Msg("failed to fetch key set")
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Str("url", c.url).Msg("unexpected key set response")
		return nil, fmt.Errorf("%w: status %d", ErrKeySetUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxKeySetSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}
	return body, nil
}

func parseKeySet(raw []byte) (*jose.JSONWebKeySet, error) {
	var keys jose.JSONWebKeySet
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("failed to parse key set: %w", err)
	}
	if len(keys.Keys) == 0 {
		return nil, errors.New("key set contains no keys")
	}
	return &keys, nil
}
