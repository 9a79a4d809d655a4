package tracks

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/stitchmusic/music-api/internal/storage"
	"github.com/stitchmusic/music-api/pkg/types"
	"github.com/stitchmusic/music-api/pkg/utils"
	"gorm.io/gorm"
)

const maxSwapAttempts = 3

// checkFile rejects a file on declared size or content type before any byte is stored
func (s *Service) checkFile(file *types.FileUpload, allowed []string) error {
	if file.Size > s.config.MaxUploadSize {
		return fmt.Errorf("%w: %s, limit %s", ErrFileTooLarge,
			utils.FormatBytes(file.Size), utils.FormatBytes(s.config.MaxUploadSize))
	}
	if !utils.ContentTypeAllowed(file.ContentType, allowed) {
		return fmt.Errorf("%w: %q", ErrUnsupportedMedia, file.ContentType)
	}
	return nil
}

func (s *Service) store(ctx context.Context, key string, file *types.FileUpload) error {
	_, err := s.Storage.Store(ctx, key, limitReader(file.Content, s.config.MaxUploadSize), utils.NormalizeContentType(file.ContentType))
	return err
}

// DirectUpload stores an audio file (and optional cover) and creates a ready
// track in one step, without an upload session
func (s *Service) DirectUpload(ctx context.Context, ownerID int64, meta *types.TrackMetadata, audio, cover *types.FileUpload) (*types.Track, error) {
	if err := checkCoverRef(ownerID, meta.CoverURL); err != nil {
		return nil, err
	}
	if err := s.checkFile(audio, s.config.AllowedAudioTypes); err != nil {
		return nil, err
	}
	if cover != nil {
		if err := s.checkFile(cover, s.config.AllowedImageTypes); err != nil {
			return nil, err
		}
	}

	sessionID := s.newID()
	audioKey := storage.AudioKey(ownerID, sessionID, audio.Filename)
	if err := s.store(ctx, audioKey, audio); err != nil {
		return nil, err
	}
	stored := []string{audioKey}

	track := newTrack(ownerID, meta, types.TrackStatusReady)
	track.AudioURL = &audioKey

	if cover != nil {
		coverKey := storage.CoverKey(ownerID, sessionID, cover.Filename)
		if err := s.store(ctx, coverKey, cover); err != nil {
			s.deleteKeys(ctx, stored)
			return nil, err
		}
		stored = append(stored, coverKey)
		track.CoverURL = &coverKey
	}

	if err := s.DB.WithContext(ctx).Create(track).Error; err != nil {
		s.deleteKeys(ctx, stored)
		return nil, fmt.Errorf("failed to create track: %w", err)
	}

	log.Info().
		Int64("track_id", track.ID).
		Int64("owner_id", ownerID).
		Str("storage_key", audioKey).
		Int64("size", audio.Size).
		Msg("track uploaded directly")
	return track, nil
}

// ReplaceAudio swaps a track's audio file; owner only. The new object is
// written and committed before the old one is removed, so a failure at any
// step leaves the track pointing at a readable file.
func (s *Service) ReplaceAudio(ctx context.Context, trackID, userID int64, audio *types.FileUpload) (*types.Track, error) {
	track, err := s.Get(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(track, userID); err != nil {
		return nil, err
	}
	if err := s.checkFile(audio, s.config.AllowedAudioTypes); err != nil {
		return nil, err
	}

	newKey := storage.AudioKey(track.OwnerUserID, s.newID(), audio.Filename)
	if err := s.store(ctx, newKey, audio); err != nil {
		return nil, err
	}

	superseded, err := s.swapAudio(ctx, trackID, newKey)
	if err != nil {
		s.deleteKeys(ctx, []string{newKey})
		return nil, err
	}
	if superseded != nil && *superseded != newKey {
		s.deleteManaged(ctx, track.OwnerUserID, superseded)
	}

	log.Info().Int64("track_id", trackID).Str("storage_key", newKey).Msg("track audio replaced")
	return s.Get(ctx, trackID)
}

// swapAudio points the track at newKey and returns the reference it replaced.
// The update only applies if audio_url still holds the value read in the same
// transaction, so two concurrent replaces each supersede a distinct file.
func (s *Service) swapAudio(ctx context.Context, trackID int64, newKey string) (*string, error) {
	var superseded *string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for attempt := 0; attempt < maxSwapAttempts; attempt++ {
			current, err := s.loadTrack(tx, trackID)
			if err != nil {
				return err
			}

			query := tx.Model(&types.Track{}).Where("id = ?", trackID)
			if current.AudioURL == nil {
				query = query.Where("audio_url IS NULL")
			} else {
				query = query.Where("audio_url = ?", *current.AudioURL)
			}
			result := query.Updates(map[string]interface{}{
				"audio_url":  newKey,
				"status":     types.TrackStatusReady,
				"updated_at": s.now(),
			})
			if result.Error != nil {
				return fmt.Errorf("failed to update track audio: %w", result.Error)
			}
			if result.RowsAffected == 1 {
				superseded = current.AudioURL
				return nil
			}
		}
		return fmt.Errorf("%w: %d", ErrTrackChanged, trackID)
	})
	return superseded, err
}

func (s *Service) deleteKeys(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.Storage.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to remove stored file after error")
		}
	}
}
