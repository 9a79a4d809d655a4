package tracks

import "github.com/stitchmusic/music-api/pkg/apierror"

var (
	ErrTrackNotFound  = apierror.New(apierror.KindNotFound, "TRACK_NOT_FOUND", "track not found")
	ErrUploadNotFound = apierror.New(apierror.KindNotFound, "UPLOAD_NOT_FOUND", "upload session not found")
	ErrAudioNotFound  = apierror.New(apierror.KindNotFound, "AUDIO_NOT_FOUND", "track has no audio")
	ErrCoverNotFound  = apierror.New(apierror.KindNotFound, "COVER_NOT_FOUND", "track has no cover")

	ErrUploadInvalidState = apierror.New(apierror.KindValidation, "UPLOAD_INVALID_STATE", "upload session is not awaiting finalization")
	ErrUploadExpired      = apierror.New(apierror.KindValidation, "UPLOAD_EXPIRED", "upload session expired")
	ErrFileTooLarge       = apierror.New(apierror.KindValidation, "FILE_TOO_LARGE", "file exceeds the maximum upload size")
	ErrUnsupportedMedia   = apierror.New(apierror.KindValidation, "UNSUPPORTED_MEDIA_TYPE", "unsupported media type")
	ErrInvalidStorageKey  = apierror.New(apierror.KindValidation, "INVALID_STORAGE_KEY", "invalid upload destination")
	ErrEmptyComment       = apierror.New(apierror.KindValidation, "VALIDATION_FAILED", "comment body must not be empty")
	ErrTrackChanged       = apierror.New(apierror.KindValidation, "TRACK_CHANGED", "track was modified concurrently, retry")
	ErrInvalidCoverURL    = apierror.New(apierror.KindValidation, "INVALID_COVER_URL", "cover must be an http(s) URL or one of your stored files")

	ErrForbidden = apierror.New(apierror.KindAuthorization, "FORBIDDEN", "only the track owner can do this")
)
