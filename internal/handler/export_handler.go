package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/service"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type exportService interface {
	Create(ctx context.Context, req dto.ExportRequest, userID string) (*dto.ExportJobResponse, error)
	Status(ctx context.Context, id string) (*dto.ExportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportHandler exposes asynchronous attendance exports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Create godoc
// @Summary Queue attendance export
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.ExportRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Router /api/admin/attendance/export [post]
func (h *ExportHandler) Create(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req dto.ExportRequest
	if !bindJSON(c, &req, "Invalid export payload") {
		return
	}
	job, err := h.service.Create(c.Request.Context(), req, principal.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Export status
// @Tags Exports
// @Produce json
// @Param id path string true "Export ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorBody
// @Router /api/admin/exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	status, err := h.service.Status(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, status)
}

// Download godoc
// @Summary Download export
// @Description Streams a finished export addressed by a signed token
// @Tags Exports
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.ErrorBody
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read export"))
		return
	}
	c.Header("Content-Type", download.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.Header("Cache-Control", "no-store")
	http.ServeContent(c.Writer, c.Request, download.Filename, info.ModTime(), download.File)
}
