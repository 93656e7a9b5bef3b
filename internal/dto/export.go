package dto

import (
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
)

// ExportRequest captures POST /api/admin/attendance/export payload.
type ExportRequest struct {
	StartDate string `json:"start_date" validate:"required,isodate"`
	EndDate   string `json:"end_date" validate:"required,isodate"`
	Class     string `json:"class" validate:"max=50"`
	Format    string `json:"format" validate:"required,oneof=csv pdf xlsx"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress and, once finished, a signed
// download link.
type ExportStatusResponse struct {
	ID          string              `json:"id"`
	Format      string              `json:"format"`
	Status      models.ExportStatus `json:"status"`
	Progress    int                 `json:"progress"`
	DownloadURL *string             `json:"downloadUrl,omitempty"`
	ExpiresAt   *time.Time          `json:"expiresAt,omitempty"`
	Error       *string             `json:"error,omitempty"`
}
