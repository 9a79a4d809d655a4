package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Stitch Music API", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/api", cfg.Server.APIPrefix)
	assert.Equal(t, time.Hour, cfg.Auth.JWKSCacheTTL)
	assert.Equal(t, 15*time.Minute, cfg.Storage.UploadSessionTTL)
	assert.Equal(t, 15*time.Minute, cfg.Storage.PresignTTL)
	assert.Equal(t, int64(50*1024*1024), cfg.Storage.MaxUploadSize)
	assert.Contains(t, cfg.Storage.AllowedAudioTypes, "audio/mpeg")
	assert.True(t, cfg.Auth.AllowHeaderAuth)
	assert.False(t, cfg.Storage.UseObjectStore())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("MUSIC_SERVER_PORT", "9090")
	t.Setenv("MUSIC_DB_HOST", "db.internal")
	t.Setenv("MUSIC_REDIS_PORT", "6380")
	t.Setenv("MUSIC_S3_BUCKET", "tracks")
	t.Setenv("MUSIC_S3_REGION", "eu-west-1")
	t.Setenv("MUSIC_JWKS_URL", "https://auth.example.com/.well-known/jwks.json")
	t.Setenv("MUSIC_JWKS_CACHE_TTL", "120s")
	t.Setenv("MUSIC_ALLOWED_AUDIO_TYPES", "audio/mpeg,audio/flac")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "localhost:6380", cfg.Redis.RedisAddr())
	assert.True(t, cfg.Storage.UseObjectStore())
	assert.Equal(t, "https://auth.example.com/.well-known/jwks.json", cfg.Auth.JWKSURL)
	assert.Equal(t, 2*time.Minute, cfg.Auth.JWKSCacheTTL)
	assert.Equal(t, []string{"audio/mpeg", "audio/flac"}, cfg.Storage.AllowedAudioTypes)
}

func TestLoad_ProductionDisablesHeaderAuth(t *testing.T) {
	t.Setenv("MUSIC_ENVIRONMENT", "production")
	t.Setenv("MUSIC_ALLOW_HEADER_AUTH", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.App.IsProduction())
	assert.False(t, cfg.Auth.AllowHeaderAuth)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "invalid version",
			mutate:  func(c *Config) { c.App.Version = "not-a-version" },
			wantErr: "invalid app version",
		},
		{
			name:    "zero upload size",
			mutate:  func(c *Config) { c.Storage.MaxUploadSize = 0 },
			wantErr: "max upload size",
		},
		{
			name:    "zero session ttl",
			mutate:  func(c *Config) { c.Storage.UploadSessionTTL = 0 },
			wantErr: "TTLs must be positive",
		},
		{
			name:    "zero jwks ttl",
			mutate:  func(c *Config) { c.Auth.JWKSCacheTTL = 0 },
			wantErr: "jwks cache ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseURL(t *testing.T) {
	d := &DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=n sslmode=disable", d.DatabaseURL())
}
