package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type fakeAnnouncementRepo struct {
	items      []models.Announcement
	lastFilter models.AnnouncementFilter
}

func (f *fakeAnnouncementRepo) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, error) {
	f.lastFilter = filter
	var out []models.Announcement
	for _, a := range f.items {
		if filter.PublishedOnly && !a.Published {
			continue
		}
		if filter.Audience != nil && !visibleTo(a, *filter.Audience) {
			continue
		}
		out = append(out, a)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func visibleTo(a models.Announcement, audience models.Audience) bool {
	if audience == models.AudienceAll {
		return true
	}
	for _, t := range a.TargetAudience {
		if t == string(audience) || t == string(models.AudienceAll) {
			return true
		}
	}
	return false
}

func (f *fakeAnnouncementRepo) Create(ctx context.Context, a *models.Announcement) error {
	a.ID = "ann-" + a.Title
	f.items = append(f.items, *a)
	return nil
}

func (f *fakeAnnouncementRepo) Delete(ctx context.Context, id string) error {
	for i, a := range f.items {
		if a.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func TestCreateAnnouncementDefaults(t *testing.T) {
	repo := &fakeAnnouncementRepo{}
	svc := NewAnnouncementService(repo, nil, nil, zap.NewNop())

	created, err := svc.Create(context.Background(), CreateAnnouncementRequest{Title: " Sports day ", Content: "Friday", Published: true}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "Sports day", created.Title)
	assert.Equal(t, models.PriorityMedium, created.Priority)
	assert.Equal(t, []string{"all"}, []string(created.TargetAudience))
	require.NotNil(t, created.AuthorID)
	assert.Equal(t, "admin-1", *created.AuthorID)
}

func TestCreateAnnouncementRejectsUnknownAudience(t *testing.T) {
	svc := NewAnnouncementService(&fakeAnnouncementRepo{}, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateAnnouncementRequest{Title: "x", Content: "y", TargetAudience: []string{"parents", "aliens"}}, "admin-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErrors.FromError(err).Message, "must contain only all, students, parents, teachers")
}

func TestPublishedFiltersByAudience(t *testing.T) {
	repo := &fakeAnnouncementRepo{items: []models.Announcement{
		{ID: "1", Title: "everyone", Published: true, TargetAudience: []string{"all"}},
		{ID: "2", Title: "parents", Published: true, TargetAudience: []string{"parents"}},
		{ID: "3", Title: "students", Published: true, TargetAudience: []string{"students"}},
		{ID: "4", Title: "draft", Published: false, TargetAudience: []string{"parents"}},
	}}
	svc := NewAnnouncementService(repo, nil, nil, zap.NewNop())

	rows, err := svc.Published(context.Background(), models.AudienceParents, 20)
	require.NoError(t, err)
	titles := make([]string, 0, len(rows))
	for _, r := range rows {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"everyone", "parents"}, titles)
	assert.Equal(t, 20, repo.lastFilter.Limit)
}

func TestDeleteAnnouncementMissing(t *testing.T) {
	svc := NewAnnouncementService(&fakeAnnouncementRepo{}, nil, nil, zap.NewNop())

	err := svc.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestListReturnsEmptySlice(t *testing.T) {
	svc := NewAnnouncementService(&fakeAnnouncementRepo{}, nil, nil, zap.NewNop())

	rows, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
