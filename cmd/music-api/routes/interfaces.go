package routes

import (
	"context"

	"github.com/stitchmusic/music-api/internal/tracks"
	"github.com/stitchmusic/music-api/pkg/types"
)

// TrackServiceInterface defines the contract for track CRUD and media
type TrackServiceInterface interface {
	List(ctx context.Context, filter *types.TrackFilter) ([]*types.Track, error)
	Get(ctx context.Context, trackID int64) (*types.Track, error)
	Create(ctx context.Context, ownerID int64, meta *types.TrackMetadata) (*types.Track, error)
	Update(ctx context.Context, trackID, userID int64, req *types.TrackUpdateRequest) (*types.Track, error)
	Delete(ctx context.Context, trackID, userID int64) error
	ResolveMedia(ctx context.Context, trackID int64, kind tracks.MediaKind) (*tracks.Media, error)
}

// UploadServiceInterface defines the contract for the upload lifecycle
type UploadServiceInterface interface {
	InitiateUpload(ctx context.Context, ownerID int64, req *types.UploadInitiateRequest) (*types.UploadInitiateResponse, error)
	FinalizeUpload(ctx context.Context, ownerID int64, req *types.UploadFinalizeRequest) (*types.Track, error)
	CleanupExpiredUploads(ctx context.Context, ownerID int64) (int64, error)
	DirectUpload(ctx context.Context, ownerID int64, meta *types.TrackMetadata, audio, cover *types.FileUpload) (*types.Track, error)
	ReplaceAudio(ctx context.Context, trackID, userID int64, audio *types.FileUpload) (*types.Track, error)
	ReceiveUpload(ctx context.Context, userID int64, key string, file *types.FileUpload) error
}

// InteractionServiceInterface defines the contract for likes and comments
type InteractionServiceInterface interface {
	Like(ctx context.Context, trackID, userID int64) (*types.LikeActionResponse, error)
	Unlike(ctx context.Context, trackID, userID int64) (*types.LikeActionResponse, error)
	CountLikes(ctx context.Context, trackID int64) (*types.LikeCountResponse, error)
	AddComment(ctx context.Context, trackID, userID int64, body string) (*types.Comment, error)
	ListComments(ctx context.Context, trackID int64, limit, offset int) ([]*types.Comment, error)
}

// Pinger is a dependency the health check can probe
type Pinger interface {
	Ping(ctx context.Context) error
}
