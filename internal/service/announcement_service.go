package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type announcementRepository interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) error
}

// AnnouncementService handles announcement workflows.
type AnnouncementService struct {
	repo      announcementRepository
	validator *Validator
	cache     *CacheService
	logger    *zap.Logger
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementRepository, validate *Validator, cache *CacheService, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, validator: validate, cache: cache, logger: logger}
}

// CreateAnnouncementRequest describes create payload.
type CreateAnnouncementRequest struct {
	Title          string   `json:"title" validate:"required,max=200"`
	Content        string   `json:"content" validate:"required"`
	Priority       string   `json:"priority" validate:"omitempty,announcement_priority"`
	TargetAudience []string `json:"target_audience" validate:"omitempty,dive,announcement_audience"`
	Published      bool     `json:"published"`
}

// List returns every announcement, newest first, for the admin view.
func (s *AnnouncementService) List(ctx context.Context) ([]models.Announcement, error) {
	return s.list(ctx, models.AnnouncementFilter{})
}

// Published returns up to limit published announcements visible to audience.
func (s *AnnouncementService) Published(ctx context.Context, audience models.Audience, limit int) ([]models.Announcement, error) {
	return s.list(ctx, models.AnnouncementFilter{Audience: &audience, PublishedOnly: true, Limit: limit})
}

func (s *AnnouncementService) list(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list announcements failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to list announcements")
	}
	if rows == nil {
		rows = []models.Announcement{}
	}
	return rows, nil
}

// Create stores a new announcement authored by authorID. Without an explicit
// audience it targets everyone; without a priority it is medium.
func (s *AnnouncementService) Create(ctx context.Context, req CreateAnnouncementRequest, authorID string) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title is a required field")
	}

	audience := uniqueAudience(req.TargetAudience)
	priority := models.AnnouncementPriority(req.Priority)
	if priority == "" {
		priority = models.PriorityMedium
	}
	announcement := &models.Announcement{
		Title:          title,
		Content:        req.Content,
		Priority:       priority,
		TargetAudience: pq.StringArray(audience),
		Published:      req.Published,
		AuthorID:       optionalString(authorID),
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		s.logger.Error("create announcement failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create announcement")
	}
	s.invalidate(ctx)
	return announcement, nil
}

// Delete removes an announcement by id.
func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Announcement not found")
		}
		s.logger.Error("delete announcement failed", zap.String("id", id), zap.Error(err))
		return appErrors.Internal(err, "failed to delete announcement")
	}
	s.invalidate(ctx)
	return nil
}

func (s *AnnouncementService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, cacheKeyHomepage)
	s.cache.InvalidatePattern(ctx, cachePatternDashboards)
}

func uniqueAudience(raw []string) []string {
	if len(raw) == 0 {
		return []string{string(models.AudienceAll)}
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, a := range raw {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
