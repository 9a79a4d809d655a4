package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// LocalStorage implements BlobStorage on the local filesystem. Uploads are
// received by the API itself at baseURL/<key>.
type LocalStorage struct {
	basePath   string
	baseURL    string
	defaultTTL time.Duration
	mutex      sync.RWMutex
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath, baseURL string, defaultTTL time.Duration) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		log.Error().Err(err).Str("path", basePath).Msg("failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}

	log.Info().Str("path", abs).Msg("local storage initialized")
	return &LocalStorage{
		basePath:   abs,
		baseURL:    strings.TrimRight(baseURL, "/"),
		defaultTTL: defaultTTL,
	}, nil
}

// Kind implements BlobStorage
func (ls *LocalStorage) Kind() Kind {
	return KindLocal
}

// resolve maps a key to a path under basePath, rejecting anything that escapes it
func (ls *LocalStorage) resolve(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	fullPath := filepath.Join(ls.basePath, filepath.FromSlash(key))
	if fullPath == ls.basePath || !strings.HasPrefix(fullPath, ls.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return fullPath, nil
}

// Store saves content with an atomic temp-file write and returns the key
func (ls *LocalStorage) Store(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	startTime := time.Now()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	fullPath, err := ls.resolve(key)
	if err != nil {
		return "", err
	}

	ls.mutex.Lock()
	defer ls.mutex.Unlock()

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Error().Err(err).Str("key", key).Str("dir", dir).Msg("failed to create directory")
		return "", fmt.Errorf("%w: failed to create directory: %v", ErrStorageUnavailable, err)
	}

	tempPath := fmt.Sprintf("%s.tmp.%d", fullPath, time.Now().UnixNano())
	tempFile, err := os.Create(tempPath)
	if err != nil {
		log.Error().Err(err).Str("key", key).Str("temp_path", tempPath).Msg("failed to create temporary file")
		return "", fmt.Errorf("%w: failed to create temporary file: %v", ErrStorageUnavailable, err)
	}

	defer func() {
		tempFile.Close()
		if _, err := os.Stat(tempPath); err == nil {
			os.Remove(tempPath)
		}
	}()

	hasher := sha256.New()
	bytesWritten, err := io.Copy(io.MultiWriter(tempFile, hasher), content)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to write content to temporary file")
		return "", fmt.Errorf("failed to write content: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to sync temporary file")
		return "", fmt.Errorf("%w: failed to sync temporary file: %v", ErrStorageUnavailable, err)
	}
	tempFile.Close()

	if err := os.Rename(tempPath, fullPath); err != nil {
		log.Error().Err(err).Str("key", key).Str("temp_path", tempPath).Msg("failed to move temporary file to final location")
		return "", fmt.Errorf("%w: failed to move file to final location: %v", ErrStorageUnavailable, err)
	}

	log.Info().
		Str("key", key).
		Str("content_type", contentType).
		Int64("bytes_written", bytesWritten).
		Str("checksum", hex.EncodeToString(hasher.Sum(nil))).
		Dur("duration", time.Since(startTime)).
		Msg("file stored successfully")

	return key, nil
}

// Retrieve opens the file stored under key
func (ls *LocalStorage) Retrieve(ctx context.Context, key string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	fullPath, err := ls.resolve(key)
	if err != nil {
		return nil, err
	}

	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("key", key).Msg("file not found")
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		log.Error().Err(err).Str("key", key).Msg("failed to open file")
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes the file stored under key
func (ls *LocalStorage) Delete(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	fullPath, err := ls.resolve(key)
	if err != nil {
		return err
	}

	ls.mutex.Lock()
	defer ls.mutex.Unlock()

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("key", key).Msg("file already deleted or does not exist")
			return nil
		}
		log.Error().Err(err).Str("key", key).Msg("failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	log.Info().Str("key", key).Msg("file deleted successfully")
	return nil
}

// Exists checks whether a file is stored under key
func (ls *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	fullPath, err := ls.resolve(key)
	if err != nil {
		return false, err
	}

	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		log.Error().Err(err).Str("key", key).Msg("failed to check file existence")
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return true, nil
}

// PresignUpload points the client at the API's own upload receiver. Access
// is enforced there by upload session ownership, not by a signature.
func (ls *LocalStorage) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (*PresignedUpload, error) {
	if _, err := ls.resolve(key); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = ls.defaultTTL
	}
	return &PresignedUpload{
		URL:        ls.baseURL + "/" + key,
		ExpiresIn:  int(ttl.Seconds()),
		StorageKey: key,
	}, nil
}

// PresignDownload returns the filesystem path; local files are streamed by the API
func (ls *LocalStorage) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return ls.resolve(key)
}
