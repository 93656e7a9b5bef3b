package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/storage"
)

type blobStore interface {
	SaveStream(key string, r io.Reader, limit int64) (int64, error)
	Open(key string) (*os.File, error)
	Delete(key string) error
}

// Upload carries an incoming file.
type Upload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// StoredFile describes a blob written to the upload store.
type StoredFile struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// UploadServiceConfig holds upload limits.
type UploadServiceConfig struct {
	MaxFileSize   int64
	AllowedMIMEs  []string
	PublicBaseURL string
}

// UploadService validates files by their content and writes them to the blob store.
type UploadService struct {
	store   blobStore
	cfg     UploadServiceConfig
	mimeSet map[string]struct{}
	logger  *zap.Logger
	now     func() time.Time
}

// NewUploadService constructs the service with defaults.
func NewUploadService(store blobStore, cfg UploadServiceConfig, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "/media"
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	return &UploadService{store: store, cfg: cfg, mimeSet: mimeSet, logger: logger, now: time.Now}
}

// Store writes upload under folder and returns its public URL.
func (s *UploadService) Store(folder string, upload Upload) (*StoredFile, error) {
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}

	detected, err := mimetype.DetectReader(upload.Content)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to inspect file")
	}
	contentType := strings.ToLower(strings.SplitN(detected.String(), ";", 2)[0])
	if _, ok := s.mimeSet[contentType]; !ok {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, "file type "+contentType+" is not allowed")
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return nil, appErrors.Internal(err, "failed to reset upload stream")
	}

	key := path.Join(sanitizeFolder(folder), s.now().UTC().Format("2006/01"), uuid.NewString()+detected.Extension())
	written, err := s.store.SaveStream(key, upload.Content, s.cfg.MaxFileSize)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
		}
		s.logger.Error("store upload failed", zap.String("key", key), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to store file")
	}
	return &StoredFile{Key: key, URL: s.URL(key), ContentType: contentType, Size: written}, nil
}

// URL is the public address of key.
func (s *UploadService) URL(key string) string {
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
}

// Open returns the blob stored under key and its content type.
func (s *UploadService) Open(key string) (*os.File, string, error) {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	file, err := s.store.Open(key)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidPath) || errors.Is(err, os.ErrNotExist) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "File not found")
		}
		return nil, "", appErrors.Internal(err, "failed to open file")
	}
	detected, err := mimetype.DetectReader(file)
	if err == nil {
		_, err = file.Seek(0, io.SeekStart)
	}
	if err != nil {
		_ = file.Close()
		return nil, "", appErrors.Internal(err, "failed to read file")
	}
	return file, detected.String(), nil
}

// Remove deletes a blob; failures are logged only.
func (s *UploadService) Remove(key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(key); err != nil {
		s.logger.Warn("delete upload failed", zap.String("key", key), zap.Error(err))
	}
}

func sanitizeFolder(folder string) string {
	folder = strings.Trim(path.Clean("/"+strings.ToLower(folder)), "/")
	if folder == "" || folder == "." {
		return "misc"
	}
	return folder
}
