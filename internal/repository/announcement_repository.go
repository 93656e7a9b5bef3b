package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-portal-api/internal/models"
)

const announcementColumns = `id, title, content, priority, target_audience, published, publish_date, author_id, created_at, updated_at`

// AnnouncementRepository provides persistence for announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// List returns announcements, optionally restricted to an audience. An
// announcement targeted at "all" is visible to every audience.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.PublishedOnly {
		where = append(where, "published = TRUE")
	}
	if filter.Audience != nil && *filter.Audience != models.AudienceAll {
		args = append(args, string(*filter.Audience))
		where = append(where, fmt.Sprintf("($%d = ANY(target_audience) OR 'all' = ANY(target_audience))", len(args)))
	}

	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY COALESCE(publish_date, created_at) DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	var announcements []models.Announcement
	if err := r.db.SelectContext(ctx, &announcements, query, args...); err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return announcements, nil
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	announcement.CreatedAt = now
	announcement.UpdatedAt = now
	if announcement.Published && announcement.PublishDate == nil {
		announcement.PublishDate = &now
	}
	query := `INSERT INTO announcements (` + announcementColumns + `)
VALUES (:id, :title, :content, :priority, :target_audience, :published, :publish_date, :author_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// Delete removes an announcement. It returns sql.ErrNoRows when nothing matched.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM announcements WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return expectAffected(res, "delete announcement")
}

// CountPublished returns the number of published announcements.
func (r *AnnouncementRepository) CountPublished(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM announcements WHERE published = TRUE`); err != nil {
		return 0, fmt.Errorf("count announcements: %w", err)
	}
	return total, nil
}
