package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, entries []models.AttendanceEntry) error
	ListForClassDate(ctx context.Context, class string, date models.Date) ([]models.AttendanceRecord, error)
	History(ctx context.Context, filter models.AttendanceHistoryFilter) ([]models.AttendanceHistoryRow, error)
}

type attendanceStudentLookup interface {
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
	Roster(ctx context.Context, class string) ([]models.RosterStudent, error)
}

// AttendanceRecordInput is one row of a bulk marking request.
type AttendanceRecordInput struct {
	StudentID string  `json:"student_id" validate:"required,uuid_rfc4122"`
	Date      string  `json:"date" validate:"required,isodate"`
	Status    string  `json:"status" validate:"required,attendance_status"`
	Notes     *string `json:"notes" validate:"omitempty,max=500"`
}

// MarkAttendanceRequest is the bulk marking payload.
type MarkAttendanceRequest struct {
	Records []AttendanceRecordInput `json:"records" validate:"required,min=1,max=1000,dive"`
}

// AttendanceService records and reads daily attendance.
type AttendanceService struct {
	repo      attendanceRepository
	students  attendanceStudentLookup
	validator *Validator
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, students attendanceStudentLookup, validate *Validator, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, students: students, validator: validate, cache: cache, metrics: metrics, logger: logger}
}

// Mark upserts every record keyed on (student_id, date). The whole batch is
// validated first and written in one transaction, so it either fully applies
// or leaves storage untouched. Repeating a call converges to the same rows.
func (s *AttendanceService) Mark(ctx context.Context, req MarkAttendanceRequest, markedBy string) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	entries := make([]models.AttendanceEntry, 0, len(req.Records))
	seen := make(map[string]struct{}, len(req.Records))
	ids := make([]string, 0, len(req.Records))
	idSet := make(map[string]struct{}, len(req.Records))
	for _, rec := range req.Records {
		date, err := models.ParseDate(rec.Date)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "date must be a date in YYYY-MM-DD format")
		}
		// validated as a uuid above; lower-case form keys storage
		id := uuid.MustParse(rec.StudentID).String()
		key := id + "|" + date.String()
		if _, dup := seen[key]; dup {
			return appErrors.Clone(appErrors.ErrValidation, "Duplicate record for student "+id+" on "+date.String())
		}
		if _, known := idSet[id]; !known {
			idSet[id] = struct{}{}
			ids = append(ids, id)
		}
		seen[key] = struct{}{}
		entries = append(entries, models.AttendanceEntry{
			StudentID: id,
			Date:      date,
			Status:    models.AttendanceStatus(rec.Status),
			Notes:     rec.Notes,
			MarkedBy:  markedBy,
		})
	}

	found, err := s.students.ExistingIDs(ctx, ids)
	if err != nil {
		s.logger.Error("attendance student lookup failed", zap.Error(err))
		return appErrors.Internal(err, "Failed to save attendance")
	}
	if missing := missingIDs(ids, found); len(missing) > 0 {
		return appErrors.Clone(appErrors.ErrValidation, "Unknown student: "+strings.Join(missing, ", "))
	}

	if err := s.repo.Upsert(ctx, entries); err != nil {
		s.logger.Error("attendance upsert failed", zap.Int("records", len(entries)), zap.Error(err))
		return appErrors.Internal(err, "Failed to save attendance")
	}

	s.metrics.AddAttendanceRows(len(entries))
	s.cache.InvalidatePattern(ctx, cachePatternDashboards)
	s.logger.Info("attendance marked", zap.Int("records", len(entries)), zap.String("marked_by", markedBy))
	return nil
}

// History returns attendance rows between two inclusive dates.
func (s *AttendanceService) History(ctx context.Context, startDate, endDate, class string) ([]models.AttendanceHistoryRow, error) {
	if startDate == "" || endDate == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Start date and end date are required")
	}
	start, err := models.ParseDate(startDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must be a date in YYYY-MM-DD format")
	}
	end, err := models.ParseDate(endDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must be a date in YYYY-MM-DD format")
	}
	if end.Before(start.Time) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "End date must not be before start date")
	}

	rows, err := s.repo.History(ctx, models.AttendanceHistoryFilter{StartDate: start, EndDate: end, Class: strings.TrimSpace(class)})
	if err != nil {
		s.logger.Error("attendance history failed", zap.Error(err))
		return nil, appErrors.Internal(err, "Failed to fetch attendance history")
	}
	if rows == nil {
		rows = []models.AttendanceHistoryRow{}
	}
	return rows, nil
}

// ClassRoster returns a class's students with any attendance already
// recorded for the date.
func (s *AttendanceService) ClassRoster(ctx context.Context, class, date string) (*models.ClassRoster, error) {
	class = strings.TrimSpace(class)
	if class == "" || date == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Class and date are required")
	}
	day, err := models.ParseDate(date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be a date in YYYY-MM-DD format")
	}

	students, err := s.students.Roster(ctx, class)
	if err != nil {
		s.logger.Error("roster lookup failed", zap.String("class", class), zap.Error(err))
		return nil, appErrors.Internal(err, "Failed to fetch students")
	}
	existing, err := s.repo.ListForClassDate(ctx, class, day)
	if err != nil {
		s.logger.Error("existing attendance lookup failed", zap.String("class", class), zap.Error(err))
		return nil, appErrors.Internal(err, "Failed to fetch students")
	}
	if students == nil {
		students = []models.RosterStudent{}
	}
	if existing == nil {
		existing = []models.AttendanceRecord{}
	}
	return &models.ClassRoster{Students: students, ExistingAttendance: existing}, nil
}

func missingIDs(want, found []string) []string {
	present := make(map[string]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	var missing []string
	for _, id := range want {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
