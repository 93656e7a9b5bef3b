package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/middleware"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type dashboardService interface {
	Admin(ctx context.Context) (*dto.AdminDashboardResponse, bool, error)
	Parent(ctx context.Context, userID, childID string) (*dto.ParentDashboardResponse, error)
	Student(ctx context.Context, userID string) (*dto.StudentDashboardResponse, error)
}

// DashboardHandler serves the role landing pages.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Admin godoc
// @Summary Admin dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	summary, hit, err := h.service.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}

// Parent godoc
// @Summary Parent dashboard
// @Tags Dashboard
// @Produce json
// @Param child query string false "Selected child ID; defaults to the first child"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorBody
// @Router /parent [get]
func (h *DashboardHandler) Parent(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	view, err := h.service.Parent(c.Request.Context(), principal.ID, strings.TrimSpace(c.Query("child")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Student godoc
// @Summary Student dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorBody
// @Router /student [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	view, err := h.service.Student(c.Request.Context(), principal.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}
