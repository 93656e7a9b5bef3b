package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-portal-api/internal/models"
)

const galleryColumns = `id, title, description, image_url, storage_key, category, display_order, uploaded_by, created_at`

// GalleryRepository persists gallery image metadata. Blobs live in the upload store.
type GalleryRepository struct {
	db *sqlx.DB
}

// NewGalleryRepository constructs the repository.
func NewGalleryRepository(db *sqlx.DB) *GalleryRepository {
	return &GalleryRepository{db: db}
}

// List returns images in display order; limit <= 0 returns all.
func (r *GalleryRepository) List(ctx context.Context, limit int) ([]models.GalleryImage, error) {
	query := `SELECT ` + galleryColumns + ` FROM gallery_images ORDER BY display_order ASC, created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	var images []models.GalleryImage
	if err := r.db.SelectContext(ctx, &images, query, args...); err != nil {
		return nil, fmt.Errorf("list gallery: %w", err)
	}
	return images, nil
}

// FindByID returns an image by id.
func (r *GalleryRepository) FindByID(ctx context.Context, id string) (*models.GalleryImage, error) {
	var image models.GalleryImage
	if err := r.db.GetContext(ctx, &image, `SELECT `+galleryColumns+` FROM gallery_images WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find gallery image: %w", err)
	}
	return &image, nil
}

// Create inserts an image and places it after the current last one.
func (r *GalleryRepository) Create(ctx context.Context, image *models.GalleryImage) error {
	if image.ID == "" {
		image.ID = uuid.NewString()
	}
	image.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO gallery_images (id, title, description, image_url, storage_key, category, display_order, uploaded_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, (SELECT COALESCE(MAX(display_order), 0) + 1 FROM gallery_images), $7, $8)
RETURNING display_order`
	err := r.db.GetContext(ctx, &image.DisplayOrder, query,
		image.ID, image.Title, image.Description, image.ImageURL, image.StorageKey, image.Category, image.UploadedBy, image.CreatedAt)
	if err != nil {
		return fmt.Errorf("create gallery image: %w", err)
	}
	return nil
}

// Delete removes an image row.
func (r *GalleryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM gallery_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete gallery image: %w", err)
	}
	return expectAffected(res, "delete gallery image")
}
