package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type fakeWebsiteService struct {
	hit       bool
	themeReq  service.ThemeRequest
	themeBy   string
	themeErr  error
	sections  service.UpdateSectionsRequest
	deletedID string
}

func (f *fakeWebsiteService) Homepage(context.Context) (*dto.HomepageResponse, bool, error) {
	return &dto.HomepageResponse{Settings: models.SiteSettings{SchoolName: "Green Valley"}}, f.hit, nil
}

func (f *fakeWebsiteService) Builder(context.Context) (*dto.WebsiteBuilderResponse, error) {
	return &dto.WebsiteBuilderResponse{}, nil
}

func (f *fakeWebsiteService) SaveTheme(_ context.Context, req service.ThemeRequest, userID string) (*models.Theme, error) {
	f.themeReq, f.themeBy = req, userID
	if f.themeErr != nil {
		return nil, f.themeErr
	}
	return &models.Theme{ID: "theme-2", Name: req.Name}, nil
}

func (f *fakeWebsiteService) UpdateSettings(_ context.Context, s models.SiteSettings) (*models.SiteConfig, error) {
	return &models.SiteConfig{SiteSettings: s}, nil
}

func (f *fakeWebsiteService) UpdateSections(_ context.Context, req service.UpdateSectionsRequest) ([]models.HomepageSection, error) {
	f.sections = req
	return []models.HomepageSection{}, nil
}

func (f *fakeWebsiteService) CreateLink(_ context.Context, req service.LinkRequest) (*models.CustomLink, error) {
	return &models.CustomLink{ID: "link-1", Title: req.Title}, nil
}

func (f *fakeWebsiteService) DeleteLink(_ context.Context, id string) error {
	f.deletedID = id
	return appErrors.Clone(appErrors.ErrNotFound, "Link not found")
}

func (f *fakeWebsiteService) CreateButton(context.Context, service.ButtonRequest) (*models.CustomButton, error) {
	return &models.CustomButton{ID: "btn-1"}, nil
}

func (f *fakeWebsiteService) DeleteButton(_ context.Context, id string) error {
	f.deletedID = id
	return nil
}

func (f *fakeWebsiteService) CreateEvent(context.Context, service.EventRequest) (*models.Event, error) {
	return &models.Event{ID: "evt-1"}, nil
}

func (f *fakeWebsiteService) DeleteEvent(_ context.Context, id string) error {
	f.deletedID = id
	return nil
}

func websiteRouter(svc *fakeWebsiteService, p *models.Principal) http.Handler {
	h := NewWebsiteHandler(svc)
	r := newTestEngine(p)
	r.GET("/", h.Homepage)
	r.GET("/api/admin/website-builder", h.Builder)
	r.POST("/api/admin/website-builder/theme", h.SaveTheme)
	r.PUT("/api/admin/website-builder/settings", h.UpdateSettings)
	r.POST("/api/admin/website-builder/sections", h.UpdateSections)
	r.POST("/api/admin/website-builder/links", h.CreateLink)
	r.DELETE("/api/admin/website-builder/links/:id", h.DeleteLink)
	r.DELETE("/api/admin/website-builder/buttons/:id", h.DeleteButton)
	r.DELETE("/api/admin/website-builder/events/:id", h.DeleteEvent)
	return r
}

func TestHomepageIsPublicAndCached(t *testing.T) {
	w := doJSON(t, websiteRouter(&fakeWebsiteService{hit: true}, nil), http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, string(env.Data), "Green Valley")
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
}

func TestSaveThemeRecordsAuthor(t *testing.T) {
	svc := &fakeWebsiteService{}
	w := doJSON(t, websiteRouter(svc, adminPrincipal), http.MethodPost, "/api/admin/website-builder/theme",
		map[string]string{"theme_id": "6f1c1f44-1111-4c1f-9c7e-1a2b3c4d5e6f"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, adminPrincipal.ID, svc.themeBy)
	assert.Equal(t, "6f1c1f44-1111-4c1f-9c7e-1a2b3c4d5e6f", svc.themeReq.ThemeID)
}

func TestSaveThemeUnknownVersion(t *testing.T) {
	svc := &fakeWebsiteService{themeErr: appErrors.Clone(appErrors.ErrNotFound, "Theme not found")}
	w := doJSON(t, websiteRouter(svc, adminPrincipal), http.MethodPost, "/api/admin/website-builder/theme",
		map[string]string{"theme_id": "6f1c1f44-1111-4c1f-9c7e-1a2b3c4d5e6f"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateSectionsBindsBatch(t *testing.T) {
	svc := &fakeWebsiteService{}
	w := doJSON(t, websiteRouter(svc, adminPrincipal), http.MethodPost, "/api/admin/website-builder/sections",
		`{"sections":[{"section_key":"hero","is_visible":true,"display_order":1},{"section_key":"news","is_visible":false,"display_order":2}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.sections.Sections, 2)
	assert.False(t, svc.sections.Sections[1].IsVisible)
}

func TestDeleteLinkNotFound(t *testing.T) {
	svc := &fakeWebsiteService{}
	w := doJSON(t, websiteRouter(svc, adminPrincipal), http.MethodDelete, "/api/admin/website-builder/links/"+rowID, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, rowID, svc.deletedID)
}

func TestDeleteMalformedIDSkipsService(t *testing.T) {
	svc := &fakeWebsiteService{}
	for _, path := range []string{
		"/api/admin/website-builder/links/link-7",
		"/api/admin/website-builder/buttons/1",
		"/api/admin/website-builder/events/evt-3",
	} {
		w := doJSON(t, websiteRouter(svc, adminPrincipal), http.MethodDelete, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String(), path)
	}
	assert.Empty(t, svc.deletedID)
}

func TestDeleteEvent(t *testing.T) {
	svc := &fakeWebsiteService{}
	w := doJSON(t, websiteRouter(svc, adminPrincipal), http.MethodDelete, "/api/admin/website-builder/events/"+rowID, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}
