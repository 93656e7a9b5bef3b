package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type fakeAttendanceService struct {
	marked   service.MarkAttendanceRequest
	markedBy string
	markErr  error
	history  []models.AttendanceHistoryRow
	args     []string
	roster   *models.ClassRoster
	err      error
}

func (f *fakeAttendanceService) Mark(_ context.Context, req service.MarkAttendanceRequest, markedBy string) error {
	f.marked, f.markedBy = req, markedBy
	return f.markErr
}

func (f *fakeAttendanceService) History(_ context.Context, start, end, class string) ([]models.AttendanceHistoryRow, error) {
	f.args = []string{start, end, class}
	return f.history, f.err
}

func (f *fakeAttendanceService) ClassRoster(_ context.Context, class, date string) (*models.ClassRoster, error) {
	f.args = []string{class, date}
	return f.roster, f.err
}

func attendanceRouter(svc *fakeAttendanceService, p *models.Principal) http.Handler {
	h := NewAttendanceHandler(svc)
	r := newTestEngine(p)
	r.POST("/api/admin/attendance", h.Mark)
	r.GET("/api/admin/attendance/history", h.History)
	r.GET("/api/admin/attendance/students", h.Roster)
	r.GET("/admin/attendance", h.Page)
	return r
}

func TestAttendanceMarkSuccess(t *testing.T) {
	svc := &fakeAttendanceService{}
	body := `{"records":[{"student_id":"7d8a2c1e-4b7b-4c1f-9c7e-1a2b3c4d5e6f","date":"2024-03-04","status":"present"}]}`
	w := doJSON(t, attendanceRouter(svc, adminPrincipal), http.MethodPost, "/api/admin/attendance", body)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	assert.Equal(t, adminPrincipal.ID, svc.markedBy)
	require.Len(t, svc.marked.Records, 1)
	assert.Equal(t, "present", svc.marked.Records[0].Status)
}

func TestAttendanceMarkValidationFailure(t *testing.T) {
	svc := &fakeAttendanceService{markErr: appErrors.Clone(appErrors.ErrValidation, "Invalid attendance status: sick")}
	body := `{"records":[{"student_id":"7d8a2c1e-4b7b-4c1f-9c7e-1a2b3c4d5e6f","date":"2024-03-04","status":"sick"}]}`
	w := doJSON(t, attendanceRouter(svc, adminPrincipal), http.MethodPost, "/api/admin/attendance", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid attendance status: sick"}`, w.Body.String())
}

func TestAttendanceMarkRequiresPrincipal(t *testing.T) {
	svc := &fakeAttendanceService{}
	w := doJSON(t, attendanceRouter(svc, nil), http.MethodPost, "/api/admin/attendance", `{"records":[]}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, svc.markedBy)
}

func TestAttendanceHistoryRecords(t *testing.T) {
	svc := &fakeAttendanceService{}
	w := doJSON(t, attendanceRouter(svc, adminPrincipal), http.MethodGet,
		"/api/admin/attendance/history?startDate=2024-03-01&endDate=2024-03-31&class=5A", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"records":[]}`, w.Body.String())
	assert.Equal(t, []string{"2024-03-01", "2024-03-31", "5A"}, svc.args)
}

func TestAttendanceHistoryMissingRange(t *testing.T) {
	svc := &fakeAttendanceService{err: appErrors.Clone(appErrors.ErrValidation, "Start date and end date are required")}
	w := doJSON(t, attendanceRouter(svc, adminPrincipal), http.MethodGet, "/api/admin/attendance/history", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Start date and end date are required"}`, w.Body.String())
}

func TestAttendanceRosterShape(t *testing.T) {
	svc := &fakeAttendanceService{roster: &models.ClassRoster{
		Students:           []models.RosterStudent{},
		ExistingAttendance: []models.AttendanceRecord{},
	}}
	w := doJSON(t, attendanceRouter(svc, adminPrincipal), http.MethodGet, "/api/admin/attendance/students?class=5A&date=2024-03-04", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"students":[],"existingAttendance":[]}`, w.Body.String())
	assert.Equal(t, []string{"5A", "2024-03-04"}, svc.args)
}

func TestAttendancePageWithoutClass(t *testing.T) {
	svc := &fakeAttendanceService{}
	w := doJSON(t, attendanceRouter(svc, adminPrincipal), http.MethodGet, "/admin/attendance?date=2024-03-04", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"date":"2024-03-04","students":[],"existingAttendance":[]}`, w.Body.String())
	assert.Nil(t, svc.args)
}

func TestAttendancePageLoadsRoster(t *testing.T) {
	svc := &fakeAttendanceService{roster: &models.ClassRoster{}}
	w := doJSON(t, attendanceRouter(svc, adminPrincipal), http.MethodGet, "/admin/attendance?class=5A&date=2024-03-04", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"5A", "2024-03-04"}, svc.args)
}
