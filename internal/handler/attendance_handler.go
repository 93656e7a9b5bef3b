package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type attendanceService interface {
	Mark(ctx context.Context, req service.MarkAttendanceRequest, markedBy string) error
	History(ctx context.Context, startDate, endDate, class string) ([]models.AttendanceHistoryRow, error)
	ClassRoster(ctx context.Context, class, date string) (*models.ClassRoster, error)
}

// AttendanceHandler exposes bulk attendance marking and its read views.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Mark godoc
// @Summary Mark attendance
// @Description Upserts a batch keyed by (student_id, date). The batch is all-or-nothing.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Attendance batch"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Router /api/admin/attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req service.MarkAttendanceRequest
	if !bindJSON(c, &req, "Invalid attendance payload") {
		return
	}
	if err := h.service.Mark(c.Request.Context(), req, principal.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.Fields(c, http.StatusOK, nil)
}

// History godoc
// @Summary Attendance history
// @Tags Attendance
// @Produce json
// @Param startDate query string true "YYYY-MM-DD"
// @Param endDate query string true "YYYY-MM-DD"
// @Param class query string false "Class filter"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Router /api/admin/attendance/history [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	rows, err := h.service.History(c.Request.Context(),
		strings.TrimSpace(c.Query("startDate")),
		strings.TrimSpace(c.Query("endDate")),
		strings.TrimSpace(c.Query("class")))
	if err != nil {
		response.Error(c, err)
		return
	}
	if rows == nil {
		rows = []models.AttendanceHistoryRow{}
	}
	response.Fields(c, http.StatusOK, gin.H{"records": rows})
}

// Roster godoc
// @Summary Class roster with existing marks
// @Tags Attendance
// @Produce json
// @Param class query string true "Class"
// @Param date query string true "YYYY-MM-DD"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Router /api/admin/attendance/students [get]
func (h *AttendanceHandler) Roster(c *gin.Context) {
	roster, err := h.service.ClassRoster(c.Request.Context(),
		strings.TrimSpace(c.Query("class")),
		strings.TrimSpace(c.Query("date")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Fields(c, http.StatusOK, gin.H{
		"students":           roster.Students,
		"existingAttendance": roster.ExistingAttendance,
	})
}

// Page godoc
// @Summary Attendance marking page
// @Description Roster for the chosen class and date (today by default). Without a class the roster is empty.
// @Tags Attendance
// @Produce json
// @Param class query string false "Class"
// @Param date query string false "YYYY-MM-DD"
// @Success 200 {object} map[string]interface{}
// @Router /admin/attendance [get]
func (h *AttendanceHandler) Page(c *gin.Context) {
	class := strings.TrimSpace(c.Query("class"))
	date := strings.TrimSpace(c.DefaultQuery("date", time.Now().Format(models.DateLayout)))
	if class == "" {
		response.Fields(c, http.StatusOK, gin.H{
			"date":               date,
			"students":           []models.RosterStudent{},
			"existingAttendance": []models.AttendanceRecord{},
		})
		return
	}
	roster, err := h.service.ClassRoster(c.Request.Context(), class, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Fields(c, http.StatusOK, gin.H{
		"date":               date,
		"students":           roster.Students,
		"existingAttendance": roster.ExistingAttendance,
	})
}
