package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type announcementService interface {
	List(ctx context.Context) ([]models.Announcement, error)
	Create(ctx context.Context, req service.CreateAnnouncementRequest, authorID string) (*models.Announcement, error)
	Delete(ctx context.Context, id string) error
}

// AnnouncementHandler manages announcements.
type AnnouncementHandler struct {
	service announcementService
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(svc announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: svc}
}

// List godoc
// @Summary List announcements
// @Tags Announcements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/admin/announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Create godoc
// @Summary Create announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body service.CreateAnnouncementRequest true "Announcement"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Router /api/admin/announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req service.CreateAnnouncementRequest
	if !bindJSON(c, &req, "Invalid announcement payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), req, principal.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Delete godoc
// @Summary Delete announcement
// @Tags Announcements
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorBody
// @Router /api/admin/announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil)
}
