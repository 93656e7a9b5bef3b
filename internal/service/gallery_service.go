package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type galleryRepository interface {
	List(ctx context.Context, limit int) ([]models.GalleryImage, error)
	FindByID(ctx context.Context, id string) (*models.GalleryImage, error)
	Create(ctx context.Context, image *models.GalleryImage) error
	Delete(ctx context.Context, id string) error
}

// GalleryUploadRequest is the form metadata accompanying a gallery upload.
type GalleryUploadRequest struct {
	Title       string `form:"title" json:"title" validate:"required,max=200"`
	Description string `form:"description" json:"description" validate:"max=2000"`
	Category    string `form:"category" json:"category" validate:"max=50"`
}

// GalleryService manages gallery images and their blobs.
type GalleryService struct {
	repo      galleryRepository
	uploads   *UploadService
	validator *Validator
	cache     *CacheService
	logger    *zap.Logger
}

// NewGalleryService constructs the service.
func NewGalleryService(repo galleryRepository, uploads *UploadService, validate *Validator, cache *CacheService, logger *zap.Logger) *GalleryService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GalleryService{repo: repo, uploads: uploads, validator: validate, cache: cache, logger: logger}
}

// List returns every gallery image in display order.
func (s *GalleryService) List(ctx context.Context) ([]models.GalleryImage, error) {
	images, err := s.repo.List(ctx, 0)
	if err != nil {
		s.logger.Error("list gallery failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to list gallery")
	}
	return orEmpty(images), nil
}

// Upload stores the blob and then its row. The blob is removed again when the
// row cannot be written.
func (s *GalleryService) Upload(ctx context.Context, req GalleryUploadRequest, upload Upload, userID string) (*models.GalleryImage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	stored, err := s.uploads.Store("gallery", upload)
	if err != nil {
		return nil, err
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "general"
	}
	image := &models.GalleryImage{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		ImageURL:    stored.URL,
		StorageKey:  stored.Key,
		Category:    category,
		UploadedBy:  optionalString(userID),
	}
	if err := s.repo.Create(ctx, image); err != nil {
		s.uploads.Remove(stored.Key)
		s.logger.Error("create gallery image failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to save gallery image")
	}
	s.cache.Invalidate(ctx, cacheKeyHomepage)
	return image, nil
}

// Delete removes the row and its blob.
func (s *GalleryService) Delete(ctx context.Context, id string) error {
	image, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Image not found")
		}
		return appErrors.Internal(err, "failed to load gallery image")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Image not found")
		}
		s.logger.Error("delete gallery image failed", zap.String("id", id), zap.Error(err))
		return appErrors.Internal(err, "failed to delete gallery image")
	}
	s.uploads.Remove(image.StorageKey)
	s.cache.Invalidate(ctx, cacheKeyHomepage)
	return nil
}
