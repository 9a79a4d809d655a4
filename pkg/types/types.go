package types

import (
	"io"
	"time"
)

// TrackStatus is the processing state of a track
type TrackStatus string

const (
	TrackStatusReady      TrackStatus = "ready"
	TrackStatusProcessing TrackStatus = "processing"
)

// UploadStatus is the lifecycle state of an upload session.
// Transitions only go forward: initiated -> completed or initiated -> expired.
type UploadStatus string

const (
	UploadStatusInitiated UploadStatus = "initiated"
	UploadStatusCompleted UploadStatus = "completed"
	UploadStatusExpired   UploadStatus = "expired"
)

// Identity is the authenticated caller, resolved per request
type Identity struct {
	UserID int64          `json:"userId"`
	Claims map[string]any `json:"-"`
}

// Track represents a music track uploaded by a user
type Track struct {
	ID              int64       `json:"id" gorm:"primaryKey;autoIncrement"`
	OwnerUserID     int64       `json:"ownerUserId" gorm:"not null;index"`
	Title           string      `json:"title" gorm:"size:200;not null"`
	Description     *string     `json:"description"`
	Status          TrackStatus `json:"status" gorm:"size:32;not null;default:ready"`
	Genre           *string     `json:"genre" gorm:"size:100"`
	Tags            *string     `json:"tags" gorm:"size:200"`
	DurationSeconds *int        `json:"durationSeconds"`
	BPM             *int        `json:"bpm" gorm:"column:bpm"`
	AudioURL        *string     `json:"audioUrl" gorm:"size:255"`
	CoverURL        *string     `json:"coverUrl" gorm:"size:255"`
	AIProvider      *string     `json:"aiProvider" gorm:"column:ai_provider;size:50"`
	AIModel         *string     `json:"aiModel" gorm:"column:ai_model;size:100"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// UploadSession is an in-flight upload before a Track is finalized
type UploadSession struct {
	ID          int64        `json:"-" gorm:"primaryKey;autoIncrement"`
	UploadID    string       `json:"uploadId" gorm:"size:64;not null;uniqueIndex"`
	OwnerUserID int64        `json:"ownerUserId" gorm:"not null;index"`
	Filename    string       `json:"filename" gorm:"size:255;not null"`
	ContentType string       `json:"contentType" gorm:"size:100;not null"`
	FileSize    int64        `json:"fileSize" gorm:"not null"`
	StorageKey  string       `json:"storageKey" gorm:"size:255;not null;uniqueIndex"`
	Status      UploadStatus `json:"status" gorm:"size:32;not null;default:initiated;index"`
	CreatedAt   time.Time    `json:"createdAt"`
	ExpiresAt   time.Time    `json:"expiresAt" gorm:"not null;index"`
}

// IsExpired reports whether the session is past its expiry at the given time.
// The stored status may still read initiated; callers must check this first.
func (s *UploadSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Like is a user's like on a track
type Like struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TrackID   int64     `json:"trackId" gorm:"not null;uniqueIndex:uq_like_track_user"`
	UserID    int64     `json:"userId" gorm:"not null;uniqueIndex:uq_like_track_user"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is a user's comment on a track
type Comment struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TrackID   int64     `json:"trackId" gorm:"not null;index"`
	UserID    int64     `json:"userId" gorm:"not null;index"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

// TrackFilter for listing tracks
type TrackFilter struct {
	OwnerUserID *int64
	Limit       int
	Offset      int
}

// FileUpload is a file received from a client, not yet persisted
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// TrackMetadata is the user-supplied part of a track
type TrackMetadata struct {
	Title       string  `json:"title" form:"title" binding:"required,min=1,max=200"`
	Description *string `json:"description" form:"description" binding:"omitempty,max=2000"`
	CoverURL    *string `json:"coverUrl" form:"coverUrl" binding:"omitempty,max=255"`
	Genre       *string `json:"genre" form:"genre" binding:"omitempty,max=100"`
	Tags        *string `json:"tags" form:"tags" binding:"omitempty,max=200"`
	AIProvider  *string `json:"aiProvider" form:"aiProvider" binding:"omitempty,max=50"`
	AIModel     *string `json:"aiModel" form:"aiModel" binding:"omitempty,max=100"`
}

// TrackUpdateRequest is a partial update; nil fields are left unchanged
type TrackUpdateRequest struct {
	Title           *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description     *string `json:"description" binding:"omitempty,max=2000"`
	CoverURL        *string `json:"coverUrl" binding:"omitempty,max=255"`
	Genre           *string `json:"genre" binding:"omitempty,max=100"`
	Tags            *string `json:"tags" binding:"omitempty,max=200"`
	DurationSeconds *int    `json:"durationSeconds" binding:"omitempty,min=0"`
	BPM             *int    `json:"bpm" binding:"omitempty,min=0"`
	AIProvider      *string `json:"aiProvider" binding:"omitempty,max=50"`
	AIModel         *string `json:"aiModel" binding:"omitempty,max=100"`
}

// UploadInitiateRequest declares a file the client is about to transfer
type UploadInitiateRequest struct {
	Filename    string `json:"filename" binding:"required,min=1,max=255"`
	ContentType string `json:"contentType" binding:"required,min=1,max=100"`
	FileSize    int64  `json:"fileSize" binding:"required,gt=0"`
}

// UploadInitiateResponse tells the client where to send the bytes
type UploadInitiateResponse struct {
	UploadID     string `json:"uploadId"`
	PresignedURL string `json:"presignedUrl"`
	ExpiresIn    int    `json:"expiresIn"`
	StorageKey   string `json:"storageKey"`
}

// UploadFinalizeRequest turns a transferred upload into a track
type UploadFinalizeRequest struct {
	UploadID    string  `json:"uploadId" binding:"required,min=1,max=64"`
	Title       string  `json:"title" binding:"required,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	CoverURL    *string `json:"coverUrl" binding:"omitempty,max=255"`
}

// CommentCreateRequest is the body of a new comment
type CommentCreateRequest struct {
	Body string `json:"body" binding:"required,min=1,max=2000"`
}

// LikeActionResponse reports the like state after a like/unlike
type LikeActionResponse struct {
	TrackID int64 `json:"trackId"`
	Liked   bool  `json:"liked"`
}

// LikeCountResponse reports the number of likes on a track
type LikeCountResponse struct {
	TrackID int64 `json:"trackId"`
	Count   int64 `json:"count"`
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is returned by the health probe
type HealthResponse struct {
	Status      string            `json:"status"`
	Environment string            `json:"environment"`
	Version     string            `json:"version"`
	Services    map[string]string `json:"services,omitempty"`
	Time        time.Time         `json:"time"`
}
