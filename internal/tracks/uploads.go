package tracks

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/stitchmusic/music-api/internal/storage"
	"github.com/stitchmusic/music-api/pkg/types"
	"github.com/stitchmusic/music-api/pkg/utils"
	"gorm.io/gorm"
)

// InitiateUpload opens an upload session and returns where to send the bytes.
// Declared size and content type are recorded here and enforced against the
// actual bytes when they arrive.
func (s *Service) InitiateUpload(ctx context.Context, ownerID int64, req *types.UploadInitiateRequest) (*types.UploadInitiateResponse, error) {
	uploadID := s.newID()
	filename := utils.SanitizeFilename(req.Filename)
	contentType := utils.NormalizeContentType(req.ContentType)
	key := storage.AudioKey(ownerID, uploadID, filename)

	presigned, err := s.Storage.PresignUpload(ctx, key, contentType, s.config.PresignTTL)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &types.UploadSession{
		UploadID:    uploadID,
		OwnerUserID: ownerID,
		Filename:    filename,
		ContentType: contentType,
		FileSize:    req.FileSize,
		StorageKey:  key,
		Status:      types.UploadStatusInitiated,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.config.UploadSessionTTL),
	}
	if err := s.DB.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create upload session: %w", err)
	}

	log.Info().
		Str("upload_id", uploadID).
		Int64("owner_id", ownerID).
		Str("storage_key", key).
		Int64("declared_size", req.FileSize).
		Time("expires_at", session.ExpiresAt).
		Msg("upload initiated")

	return &types.UploadInitiateResponse{
		UploadID:     uploadID,
		PresignedURL: presigned.URL,
		ExpiresIn:    presigned.ExpiresIn,
		StorageKey:   presigned.StorageKey,
	}, nil
}

// FinalizeUpload consumes an initiated session and creates its track. The
// status transition and the track insert commit together or not at all.
func (s *Service) FinalizeUpload(ctx context.Context, ownerID int64, req *types.UploadFinalizeRequest) (*types.Track, error) {
	if err := checkCoverRef(ownerID, req.CoverURL); err != nil {
		return nil, err
	}

	var (
		track   *types.Track
		expired bool
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.activeSession(tx, "upload_id = ? AND owner_user_id = ?", req.UploadID, ownerID)
		if err != nil {
			if errors.Is(err, ErrUploadExpired) {
				// Commit the expiry, then report it
				expired = true
				return nil
			}
			return err
		}

		if err := transition(tx, session, types.UploadStatusCompleted); err != nil {
			return err
		}

		track = newTrack(ownerID, &types.TrackMetadata{
			Title:       req.Title,
			Description: req.Description,
			CoverURL:    req.CoverURL,
		}, types.TrackStatusProcessing)
		key := session.StorageKey
		track.AudioURL = &key

		if err := tx.Create(track).Error; err != nil {
			return fmt.Errorf("failed to create track: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		log.Info().Str("upload_id", req.UploadID).Int64("owner_id", ownerID).Msg("upload session expired at finalize")
		return nil, fmt.Errorf("%w: %s", ErrUploadExpired, req.UploadID)
	}

	log.Info().
		Str("upload_id", req.UploadID).
		Int64("owner_id", ownerID).
		Int64("track_id", track.ID).
		Msg("upload finalized")
	return track, nil
}

// activeSession loads a session and checks it can still accept work. A session
// whose stored status is initiated but whose expiry has passed is moved to
// expired here and ErrUploadExpired is returned.
func (s *Service) activeSession(tx *gorm.DB, query string, args ...interface{}) (*types.UploadSession, error) {
	var session types.UploadSession
	if err := tx.Where(query, args...).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, fmt.Errorf("failed to load upload session: %w", err)
	}

	if session.Status != types.UploadStatusInitiated {
		return nil, fmt.Errorf("%w: status %s", ErrUploadInvalidState, session.Status)
	}

	if session.IsExpired(s.now()) {
		if err := transition(tx, &session, types.UploadStatusExpired); err != nil {
			return nil, err
		}
		return nil, ErrUploadExpired
	}
	return &session, nil
}

// transition moves a session out of initiated. The status guard makes a
// concurrent second transition fail instead of overwriting the first.
func transition(tx *gorm.DB, session *types.UploadSession, to types.UploadStatus) error {
	result := tx.Model(&types.UploadSession{}).
		Where("id = ? AND status = ?", session.ID, types.UploadStatusInitiated).
		Update("status", to)
	if result.Error != nil {
		return fmt.Errorf("failed to update upload session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: concurrent update", ErrUploadInvalidState)
	}
	session.Status = to
	return nil
}

// CleanupExpiredUploads deletes the owner's sessions that are still initiated
// and past expiry, and returns how many were removed
func (s *Service) CleanupExpiredUploads(ctx context.Context, ownerID int64) (int64, error) {
	now := s.now()
	db := s.DB.WithContext(ctx)

	var stale []types.UploadSession
	if err := db.Where("owner_user_id = ? AND status = ? AND expires_at < ?", ownerID, types.UploadStatusInitiated, now).
		Find(&stale).Error; err != nil {
		return 0, fmt.Errorf("failed to find expired uploads: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(stale))
	for i, session := range stale {
		ids[i] = session.ID
	}

	result := db.Where("id IN ? AND status = ? AND expires_at < ?", ids, types.UploadStatusInitiated, now).
		Delete(&types.UploadSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired uploads: %w", result.Error)
	}

	for _, session := range stale {
		key := session.StorageKey
		s.deleteManaged(ctx, ownerID, &key)
	}

	log.Info().Int64("owner_id", ownerID).Int64("removed", result.RowsAffected).Msg("expired uploads cleaned up")
	return result.RowsAffected, nil
}

// ReceiveUpload accepts the bytes for an initiated session when the local
// backend acts as the upload target. It enforces what InitiateUpload recorded.
func (s *Service) ReceiveUpload(ctx context.Context, userID int64, key string, file *types.FileUpload) error {
	parsed, ok := storage.ParseKey(key)
	if !ok || parsed.Prefix != storage.AudioPrefix {
		return fmt.Errorf("%w: %q", ErrInvalidStorageKey, key)
	}
	if parsed.OwnerID != userID {
		return ErrUploadNotFound
	}

	var (
		session *types.UploadSession
		expired bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		session, err = s.activeSession(tx, "storage_key = ? AND owner_user_id = ?", key, userID)
		if errors.Is(err, ErrUploadExpired) {
			expired = true
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if expired {
		return fmt.Errorf("%w: %s", ErrUploadExpired, parsed.SessionID)
	}

	if !utils.ContentTypeAllowed(file.ContentType, s.config.AllowedAudioTypes) {
		return fmt.Errorf("%w: %s", ErrUnsupportedMedia, file.ContentType)
	}

	limit := s.config.MaxUploadSize
	if session.FileSize > 0 && session.FileSize < limit {
		limit = session.FileSize
	}
	if file.Size > limit {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, file.Size, limit)
	}

	if _, err := s.Storage.Store(ctx, key, limitReader(file.Content, limit), utils.NormalizeContentType(file.ContentType)); err != nil {
		return err
	}

	log.Info().Str("upload_id", session.UploadID).Int64("owner_id", userID).Str("storage_key", key).Msg("upload received")
	return nil
}

// limitReader fails with ErrFileTooLarge once more than n bytes are read
func limitReader(r io.Reader, n int64) io.Reader {
	return &maxBytesReader{r: r, remaining: n}
}

type maxBytesReader struct {
	r         io.Reader
	remaining int64
}

func (m *maxBytesReader) Read(p []byte) (int, error) {
	if m.remaining < 0 {
		return 0, ErrFileTooLarge
	}
	if int64(len(p)) > m.remaining+1 {
		p = p[:m.remaining+1]
	}
	n, err := m.r.Read(p)
	m.remaining -= int64(n)
	if m.remaining < 0 {
		return n + int(m.remaining), ErrFileTooLarge
	}
	return n, err
}
