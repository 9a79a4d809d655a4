package tracks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stitchmusic/music-api/internal/common"
	"github.com/stitchmusic/music-api/internal/storage"
	"github.com/stitchmusic/music-api/pkg/config"
	"github.com/stitchmusic/music-api/pkg/types"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Service handles tracks, their upload lifecycle and stored media
type Service struct {
	DB      *common.Database
	Storage storage.BlobStorage
	config  *config.StorageConfig
	now     func() time.Time
	newID   func() string
}

// NewService creates a new track service
func NewService(db *common.Database, blobs storage.BlobStorage, cfg *config.StorageConfig) *Service {
	return &Service{
		DB:      db,
		Storage: blobs,
		config:  cfg,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
}

// List returns tracks newest first
func (s *Service) List(ctx context.Context, filter *types.TrackFilter) ([]*types.Track, error) {
	query := s.DB.WithContext(ctx).Model(&types.Track{})
	if filter != nil && filter.OwnerUserID != nil {
		query = query.Where("owner_user_id = ?", *filter.OwnerUserID)
	}

	limit, offset := DefaultPageSize, 0
	if filter != nil {
		limit, offset = clampPage(filter.Limit, filter.Offset)
	}

	var tracks []*types.Track
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	return tracks, nil
}

// Get returns a single track
func (s *Service) Get(ctx context.Context, trackID int64) (*types.Track, error) {
	return s.loadTrack(s.DB.WithContext(ctx), trackID)
}

func (s *Service) loadTrack(db *gorm.DB, trackID int64) (*types.Track, error) {
	var track types.Track
	if err := db.First(&track, trackID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrTrackNotFound, trackID)
		}
		return nil, fmt.Errorf("failed to get track: %w", err)
	}
	return &track, nil
}

// Create stores a metadata-only track
func (s *Service) Create(ctx context.Context, ownerID int64, meta *types.TrackMetadata) (*types.Track, error) {
	if err := checkCoverRef(ownerID, meta.CoverURL); err != nil {
		return nil, err
	}
	track := newTrack(ownerID, meta, types.TrackStatusReady)
	if err := s.DB.WithContext(ctx).Create(track).Error; err != nil {
		return nil, fmt.Errorf("failed to create track: %w", err)
	}

	log.Info().Int64("track_id", track.ID).Int64("owner_id", ownerID).Msg("track created")
	return track, nil
}

// Update applies a partial update; owner only
func (s *Service) Update(ctx context.Context, trackID, userID int64, req *types.TrackUpdateRequest) (*types.Track, error) {
	track, err := s.Get(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(track, userID); err != nil {
		return nil, err
	}
	if err := checkCoverRef(track.OwnerUserID, req.CoverURL); err != nil {
		return nil, err
	}

	if req.Title != nil {
		track.Title = strings.TrimSpace(*req.Title)
	}
	setIfPresent(&track.Description, req.Description)
	setIfPresent(&track.CoverURL, req.CoverURL)
	setIfPresent(&track.Genre, req.Genre)
	setIfPresent(&track.Tags, req.Tags)
	setIfPresent(&track.AIProvider, req.AIProvider)
	setIfPresent(&track.AIModel, req.AIModel)
	if req.DurationSeconds != nil {
		track.DurationSeconds = req.DurationSeconds
	}
	if req.BPM != nil {
		track.BPM = req.BPM
	}

	if err := s.DB.WithContext(ctx).Save(track).Error; err != nil {
		return nil, fmt.Errorf("failed to update track: %w", err)
	}
	return track, nil
}

// Delete removes a track with its likes and comments; owner only. Stored
// media is removed afterwards on a best-effort basis.
func (s *Service) Delete(ctx context.Context, trackID, userID int64) error {
	track, err := s.Get(ctx, trackID)
	if err != nil {
		return err
	}
	if err := AssertOwner(track, userID); err != nil {
		return err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("track_id = ?", trackID).Delete(&types.Like{}).Error; err != nil {
			return fmt.Errorf("failed to delete likes: %w", err)
		}
		if err := tx.Where("track_id = ?", trackID).Delete(&types.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		if err := tx.Delete(&types.Track{}, trackID).Error; err != nil {
			return fmt.Errorf("failed to delete track: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Int64("track_id", trackID).Int64("user_id", userID).Msg("track deleted")
	s.deleteManaged(ctx, track.OwnerUserID, track.AudioURL)
	s.deleteManaged(ctx, track.OwnerUserID, track.CoverURL)
	return nil
}

// MediaKind selects which stored file of a track to resolve
type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaCover MediaKind = "cover"
)

// Media is a resolved track file: either a URL to redirect to, or content to stream
type Media struct {
	RedirectURL string
	Content     io.ReadCloser
	ContentType string
	Filename    string
}

// ResolveMedia finds a track's audio or cover. External URLs and object-store
// files resolve to a redirect; local files are opened for streaming.
func (s *Service) ResolveMedia(ctx context.Context, trackID int64, kind MediaKind) (*Media, error) {
	track, err := s.Get(ctx, trackID)
	if err != nil {
		return nil, err
	}

	ref, missing := track.AudioURL, ErrAudioNotFound
	if kind == MediaCover {
		ref, missing = track.CoverURL, ErrCoverNotFound
	}
	if ref == nil || *ref == "" {
		return nil, missing
	}

	if isExternalURL(*ref) {
		return &Media{RedirectURL: *ref}, nil
	}
	if !storage.IsManagedKey(*ref) {
		return nil, fmt.Errorf("%w: unrecognized reference", missing)
	}

	if s.Storage.Kind() == storage.KindS3 {
		url, err := s.Storage.PresignDownload(ctx, *ref, s.config.PresignTTL)
		if err != nil {
			return nil, err
		}
		return &Media{RedirectURL: url}, nil
	}

	content, err := s.Storage.Retrieve(ctx, *ref)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", missing, err)
		}
		return nil, err
	}

	filename := path.Base(*ref)
	contentType := mime.TypeByExtension(path.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Media{Content: content, ContentType: contentType, Filename: filename}, nil
}

// deleteManaged removes a stored object if ref points into ownerID's part of
// our storage. Failures are logged and swallowed.
func (s *Service) deleteManaged(ctx context.Context, ownerID int64, ref *string) {
	if ref == nil {
		return
	}
	parsed, ok := storage.ParseKey(*ref)
	if !ok {
		return
	}
	if parsed.OwnerID != ownerID {
		log.Warn().Str("key", *ref).Int64("owner_id", ownerID).Msg("not deleting file stored under another user")
		return
	}
	if err := s.Storage.Delete(ctx, *ref); err != nil {
		log.Warn().Err(err).Str("key", *ref).Msg("failed to delete stored file")
	}
}

// checkCoverRef accepts an empty cover, an external URL, or a key under the
// owner's own storage. A key pointing at someone else's file would otherwise
// be deleted along with this track.
func checkCoverRef(ownerID int64, ref *string) error {
	if ref == nil || *ref == "" || isExternalURL(*ref) {
		return nil
	}
	parsed, ok := storage.ParseKey(*ref)
	if !ok || parsed.OwnerID != ownerID {
		return fmt.Errorf("%w: %q", ErrInvalidCoverURL, *ref)
	}
	return nil
}

func newTrack(ownerID int64, meta *types.TrackMetadata, status types.TrackStatus) *types.Track {
	return &types.Track{
		OwnerUserID: ownerID,
		Title:       strings.TrimSpace(meta.Title),
		Description: meta.Description,
		CoverURL:    meta.CoverURL,
		Genre:       meta.Genre,
		Tags:        meta.Tags,
		AIProvider:  meta.AIProvider,
		AIModel:     meta.AIModel,
		Status:      status,
	}
}

func setIfPresent(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func isExternalURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
