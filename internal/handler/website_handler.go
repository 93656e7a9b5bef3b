package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/middleware"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type websiteService interface {
	Homepage(ctx context.Context) (*dto.HomepageResponse, bool, error)
	Builder(ctx context.Context) (*dto.WebsiteBuilderResponse, error)
	SaveTheme(ctx context.Context, req service.ThemeRequest, userID string) (*models.Theme, error)
	UpdateSettings(ctx context.Context, settings models.SiteSettings) (*models.SiteConfig, error)
	UpdateSections(ctx context.Context, req service.UpdateSectionsRequest) ([]models.HomepageSection, error)
	CreateLink(ctx context.Context, req service.LinkRequest) (*models.CustomLink, error)
	DeleteLink(ctx context.Context, id string) error
	CreateButton(ctx context.Context, req service.ButtonRequest) (*models.CustomButton, error)
	DeleteButton(ctx context.Context, id string) error
	CreateEvent(ctx context.Context, req service.EventRequest) (*models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// WebsiteHandler serves the public homepage and the admin website builder.
type WebsiteHandler struct {
	service websiteService
}

// NewWebsiteHandler constructs the handler.
func NewWebsiteHandler(svc websiteService) *WebsiteHandler {
	return &WebsiteHandler{service: svc}
}

// Homepage godoc
// @Summary Public homepage
// @Tags Website
// @Produce json
// @Success 200 {object} response.Envelope
// @Router / [get]
func (h *WebsiteHandler) Homepage(c *gin.Context) {
	page, hit, err := h.service.Homepage(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, page, nil, middleware.ExtractMeta(c))
}

// Builder godoc
// @Summary Website builder state
// @Tags Website
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/admin/website-builder [get]
func (h *WebsiteHandler) Builder(c *gin.Context) {
	state, err := h.service.Builder(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, state)
}

// SaveTheme godoc
// @Summary Save or activate a theme
// @Description With theme_id the stored version is activated; otherwise the colours become a new active version
// @Tags Website
// @Accept json
// @Produce json
// @Param payload body service.ThemeRequest true "Theme"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /api/admin/website-builder/theme [post]
func (h *WebsiteHandler) SaveTheme(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req service.ThemeRequest
	if !bindJSON(c, &req, "Invalid theme payload") {
		return
	}
	theme, err := h.service.SaveTheme(c.Request.Context(), req, principal.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, theme)
}

// UpdateSettings godoc
// @Summary Update site settings
// @Tags Website
// @Accept json
// @Produce json
// @Param payload body models.SiteSettings true "Settings"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Router /api/admin/website-builder/settings [put]
func (h *WebsiteHandler) UpdateSettings(c *gin.Context) {
	var req models.SiteSettings
	if !bindJSON(c, &req, "Invalid settings payload") {
		return
	}
	cfg, err := h.service.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cfg)
}

// UpdateSections godoc
// @Summary Update homepage sections
// @Description The whole batch is applied in one transaction
// @Tags Website
// @Accept json
// @Produce json
// @Param payload body service.UpdateSectionsRequest true "Sections"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Router /api/admin/website-builder/sections [post]
func (h *WebsiteHandler) UpdateSections(c *gin.Context) {
	var req service.UpdateSectionsRequest
	if !bindJSON(c, &req, "Invalid sections payload") {
		return
	}
	sections, err := h.service.UpdateSections(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sections)
}

// CreateLink godoc
// @Summary Add custom link
// @Tags Website
// @Accept json
// @Produce json
// @Param payload body service.LinkRequest true "Link"
// @Success 201 {object} response.Envelope
// @Router /api/admin/website-builder/links [post]
func (h *WebsiteHandler) CreateLink(c *gin.Context) {
	var req service.LinkRequest
	if !bindJSON(c, &req, "Invalid link payload") {
		return
	}
	link, err := h.service.CreateLink(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// DeleteLink godoc
// @Summary Remove custom link
// @Tags Website
// @Param id path string true "Link ID"
// @Success 200 {object} response.Envelope
// @Router /api/admin/website-builder/links/{id} [delete]
func (h *WebsiteHandler) DeleteLink(c *gin.Context) {
	h.remove(c, h.service.DeleteLink)
}

// CreateButton godoc
// @Summary Add custom button
// @Tags Website
// @Accept json
// @Produce json
// @Param payload body service.ButtonRequest true "Button"
// @Success 201 {object} response.Envelope
// @Router /api/admin/website-builder/buttons [post]
func (h *WebsiteHandler) CreateButton(c *gin.Context) {
	var req service.ButtonRequest
	if !bindJSON(c, &req, "Invalid button payload") {
		return
	}
	button, err := h.service.CreateButton(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, button)
}

// DeleteButton godoc
// @Summary Remove custom button
// @Tags Website
// @Param id path string true "Button ID"
// @Success 200 {object} response.Envelope
// @Router /api/admin/website-builder/buttons/{id} [delete]
func (h *WebsiteHandler) DeleteButton(c *gin.Context) {
	h.remove(c, h.service.DeleteButton)
}

// CreateEvent godoc
// @Summary Add event
// @Tags Website
// @Accept json
// @Produce json
// @Param payload body service.EventRequest true "Event"
// @Success 201 {object} response.Envelope
// @Router /api/admin/website-builder/events [post]
func (h *WebsiteHandler) CreateEvent(c *gin.Context) {
	var req service.EventRequest
	if !bindJSON(c, &req, "Invalid event payload") {
		return
	}
	event, err := h.service.CreateEvent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// DeleteEvent godoc
// @Summary Remove event
// @Tags Website
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /api/admin/website-builder/events/{id} [delete]
func (h *WebsiteHandler) DeleteEvent(c *gin.Context) {
	h.remove(c, h.service.DeleteEvent)
}

func (h *WebsiteHandler) remove(c *gin.Context, del func(context.Context, string) error) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := del(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil)
}
