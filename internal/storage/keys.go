package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stitchmusic/music-api/pkg/utils"
)

// Key prefixes for the two kinds of stored media
const (
	AudioPrefix = "uploads"
	CoverPrefix = "covers"
)

// AudioKey derives the storage key for an audio file. The key is a pure
// function of (owner, session, filename), so a track's blob can be found
// without a lookup table.
func AudioKey(ownerID int64, sessionID, filename string) string {
	return buildKey(AudioPrefix, ownerID, sessionID, filename)
}

// CoverKey derives the storage key for a cover image
func CoverKey(ownerID int64, sessionID, filename string) string {
	return buildKey(CoverPrefix, ownerID, sessionID, filename)
}

func buildKey(prefix string, ownerID int64, sessionID, filename string) string {
	return fmt.Sprintf("%s/%d/%s/%s", prefix, ownerID, sessionID, utils.SanitizeFilename(filename))
}

// ParsedKey holds the components of a derived storage key
type ParsedKey struct {
	Prefix    string
	OwnerID   int64
	SessionID string
	Filename  string
}

// ParseKey extracts the components of a key built by AudioKey or CoverKey
func ParseKey(key string) (ParsedKey, bool) {
	parts := strings.Split(key, "/")
	if len(parts) != 4 {
		return ParsedKey{}, false
	}
	if parts[0] != AudioPrefix && parts[0] != CoverPrefix {
		return ParsedKey{}, false
	}
	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || parts[2] == "" || parts[3] == "" {
		return ParsedKey{}, false
	}
	return ParsedKey{
		Prefix:    parts[0],
		OwnerID:   ownerID,
		SessionID: parts[2],
		Filename:  parts[3],
	}, true
}

// IsManagedKey reports whether ref points into this service's storage rather
// than at an external URL
func IsManagedKey(ref string) bool {
	_, ok := ParseKey(ref)
	return ok
}
