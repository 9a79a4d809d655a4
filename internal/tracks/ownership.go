package tracks

import (
	"fmt"

	"github.com/stitchmusic/music-api/pkg/types"
)

// AssertOwner fails with ErrForbidden unless userID owns the track.
// Every mutating track operation goes through this check.
func AssertOwner(track *types.Track, userID int64) error {
	if track == nil || track.OwnerUserID != userID {
		var trackID int64
		if track != nil {
			trackID = track.ID
		}
		return fmt.Errorf("%w: track %d, user %d", ErrForbidden, trackID, userID)
	}
	return nil
}
