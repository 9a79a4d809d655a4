package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"
	"github.com/stitchmusic/music-api/pkg/config"
)

// ObjectAPI is the subset of the S3 client used by S3Storage
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Presigner is the subset of the S3 presign client used by S3Storage
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Storage implements BlobStorage on an S3-compatible object store
type S3Storage struct {
	client     ObjectAPI
	presigner  Presigner
	bucket     string
	defaultTTL time.Duration
	timeout    time.Duration
}

// NewS3Storage builds an S3 client from configuration. Static credentials are
// used when provided, otherwise the default AWS credential chain.
func NewS3Storage(ctx context.Context, cfg *config.StorageConfig) (*S3Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	log.Info().
		Str("bucket", cfg.Bucket).
		Str("region", cfg.Region).
		Str("endpoint", cfg.Endpoint).
		Msg("s3 storage initialized")

	return NewS3StorageWithClient(client, s3.NewPresignClient(client), cfg.Bucket, cfg.PresignTTL, cfg.Timeout), nil
}

// NewS3StorageWithClient wires existing clients, mainly for tests
func NewS3StorageWithClient(client ObjectAPI, presigner Presigner, bucket string, defaultTTL, timeout time.Duration) *S3Storage {
	return &S3Storage{
		client:     client,
		presigner:  presigner,
		bucket:     bucket,
		defaultTTL: defaultTTL,
		timeout:    timeout,
	}
}

// Kind implements BlobStorage
func (s *S3Storage) Kind() Kind {
	return KindS3
}

func (s *S3Storage) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// isNotFound recognizes both NoSuchKey (GET) and the bare 404 code HEAD returns
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// Store uploads content and returns the object key
func (s *S3Storage) Store(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	body, size, release, err := seekableBody(content)
	if err != nil {
		return "", err
	}
	defer release()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		log.Error().Err(err).Str("bucket", s.bucket).Str("key", key).Msg("failed to put object")
		return "", fmt.Errorf("%w: put %s: %v", ErrStorageUnavailable, key, err)
	}

	log.Info().Str("bucket", s.bucket).Str("key", key).Str("content_type", contentType).Msg("object stored successfully")
	return key, nil
}

// seekableBody returns content as a seekable reader with its remaining length.
// The SDK must rewind the body to sign it, and refuses to stream one it cannot
// rewind over plain HTTP. Anything that is not already seekable is spooled to a
// temp file; release removes it.
func seekableBody(content io.Reader) (io.ReadSeeker, int64, func(), error) {
	if rs, ok := content.(io.ReadSeeker); ok {
		if size, err := remaining(rs); err == nil {
			return rs, size, func() {}, nil
		}
	}

	spool, err := os.CreateTemp("", "music-upload-*")
	if err != nil {
		return nil, 0, nil, fmt.Errorf("%w: spool upload: %v", ErrStorageUnavailable, err)
	}
	release := func() {
		spool.Close()
		os.Remove(spool.Name())
	}

	size, err := io.Copy(spool, content)
	if err != nil {
		release()
		return nil, 0, nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		release()
		return nil, 0, nil, fmt.Errorf("%w: rewind spool: %v", ErrStorageUnavailable, err)
	}
	return spool, size, release, nil
}

func remaining(rs io.ReadSeeker) (int64, error) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return 0, err
	}
	return end - start, nil
}

// Retrieve streams an object. The timeout is not applied because the body
// outlives this call.
func (s *S3Storage) Retrieve(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		log.Error().Err(err).Str("bucket", s.bucket).Str("key", key).Msg("failed to get object")
		return nil, fmt.Errorf("%w: get %s: %v", ErrStorageUnavailable, key, err)
	}
	return out.Body, nil
}

// Delete removes an object; S3 treats deleting a missing key as success
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		log.Error().Err(err).Str("bucket", s.bucket).Str("key", key).Msg("failed to delete object")
		return fmt.Errorf("%w: delete %s: %v", ErrStorageUnavailable, key, err)
	}

	log.Info().Str("bucket", s.bucket).Str("key", key).Msg("object deleted successfully")
	return nil
}

// Exists issues a HEAD request for key
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: head %s: %v", ErrStorageUnavailable, key, err)
	}
	return true, nil
}

// PresignUpload signs a PUT bound to key and content type
func (s *S3Storage) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (*PresignedUpload, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to presign upload")
		return nil, fmt.Errorf("%w: presign put %s: %v", ErrStorageUnavailable, key, err)
	}

	return &PresignedUpload{
		URL:        req.URL,
		ExpiresIn:  int(ttl.Seconds()),
		StorageKey: key,
	}, nil
}

// PresignDownload signs a GET for key
func (s *S3Storage) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to presign download")
		return "", fmt.Errorf("%w: presign get %s: %v", ErrStorageUnavailable, key, err)
	}
	return req.URL, nil
}
