package storage

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestAudioKey(t *testing.T) {
	assert.Equal(t, "uploads/42/abc/My_Song.mp3", AudioKey(42, "abc", "My Song.mp3"))
	assert.Equal(t, "uploads/42/abc/passwd", AudioKey(42, "abc", "../../etc/passwd"))
	assert.Equal(t, "covers/42/abc/cover.png", CoverKey(42, "abc", "cover.png"))

	// Same inputs always give the same key
	assert.Equal(t, AudioKey(1, "s", "a.wav"), AudioKey(1, "s", "a.wav"))
}

func TestAudioKey_FitsColumn(t *testing.T) {
	sessionID := strings.Repeat("f", 32)
	longName := strings.Repeat("노래", 100) + ".mp3"

	for _, key := range []string{
		AudioKey(math.MaxInt64, sessionID, longName),
		CoverKey(math.MinInt64, sessionID, longName),
	} {
		assert.LessOrEqual(t, len(key), 255)
		assert.True(t, utf8.ValidString(key))
		_, ok := ParseKey(key)
		assert.True(t, ok)
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		key  string
		want ParsedKey
		ok   bool
	}{
		{"uploads/42/abc/song.mp3", ParsedKey{AudioPrefix, 42, "abc", "song.mp3"}, true},
		{"covers/7/s1/c.png", ParsedKey{CoverPrefix, 7, "s1", "c.png"}, true},
		{"uploads/x/abc/song.mp3", ParsedKey{}, false},
		{"uploads/42/song.mp3", ParsedKey{}, false},
		{"other/42/abc/song.mp3", ParsedKey{}, false},
		{"uploads/42//song.mp3", ParsedKey{}, false},
		{"https://cdn.example.com/a.png", ParsedKey{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := ParseKey(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, IsManagedKey(tt.key))
		})
	}
}
