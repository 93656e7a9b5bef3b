package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByStudentID(ctx context.Context, studentID, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// StudentRequest holds the editable student fields for create and update.
type StudentRequest struct {
	StudentID     string `json:"student_id" validate:"required,max=40"`
	FullName      string `json:"full_name" validate:"required,max=120"`
	Class         string `json:"class" validate:"required,max=20"`
	Section       string `json:"section" validate:"max=10"`
	RollNumber    string `json:"roll_number" validate:"max=20"`
	DateOfBirth   string `json:"date_of_birth" validate:"omitempty,isodate"`
	Gender        string `json:"gender" validate:"omitempty,oneof=male female other"`
	BloodGroup    string `json:"blood_group" validate:"max=5"`
	Address       string `json:"address" validate:"max=500"`
	Phone         string `json:"phone" validate:"max=40"`
	AdmissionDate string `json:"admission_date" validate:"omitempty,isodate"`
	PhotoURL      string `json:"photo_url" validate:"omitempty,max=1000"`
}

func (r StudentRequest) apply(student *models.Student) {
	student.StudentID = strings.TrimSpace(r.StudentID)
	student.FullName = strings.TrimSpace(r.FullName)
	student.Class = strings.TrimSpace(r.Class)
	student.Section = optionalString(r.Section)
	student.RollNumber = optionalString(r.RollNumber)
	student.DateOfBirth = optionalDate(r.DateOfBirth)
	student.Gender = optionalString(r.Gender)
	student.BloodGroup = optionalString(r.BloodGroup)
	student.Address = optionalString(r.Address)
	student.Phone = optionalString(r.Phone)
	student.AdmissionDate = optionalDate(r.AdmissionDate)
	student.PhotoURL = optionalString(r.PhotoURL)
}

// StudentService handles student records.
type StudentService struct {
	repo      studentRepository
	validator *Validator
	cache     *CacheService
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *Validator, cache *CacheService, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, cache: cache, logger: logger}
}

// List returns paginated students.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list students failed", zap.Error(err))
		return nil, nil, appErrors.Internal(err, "failed to list students")
	}
	pagination := models.NewPagination(filter.Page, filter.PageSize, total)
	return students, &pagination, nil
}

// Create inserts a student. A taken student_id is a validation error.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueStudentID(ctx, req.StudentID, ""); err != nil {
		return nil, err
	}

	student := &models.Student{}
	req.apply(student)
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, s.writeError("create", err)
	}
	s.cache.InvalidatePattern(ctx, cachePatternDashboards)
	return student, nil
}

// Update overwrites the editable fields of a student.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	if err := s.ensureUniqueStudentID(ctx, req.StudentID, id); err != nil {
		return nil, err
	}

	req.apply(student)
	if err := s.repo.Update(ctx, student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		return nil, s.writeError("update", err)
	}
	s.cache.InvalidatePattern(ctx, cachePatternDashboards)
	return student, nil
}

// Delete removes a student and, by cascade, its attendance, marks and fees.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		s.logger.Error("delete student failed", zap.String("id", id), zap.Error(err))
		return appErrors.Internal(err, "failed to delete student")
	}
	s.cache.InvalidatePattern(ctx, cachePatternDashboards)
	return nil
}

func (s *StudentService) ensureUniqueStudentID(ctx context.Context, code, excludeID string) error {
	exists, err := s.repo.ExistsByStudentID(ctx, strings.TrimSpace(code), excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check student id")
	}
	if exists {
		return errStudentIDTaken
	}
	return nil
}

func (s *StudentService) writeError(op string, err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return errStudentIDTaken
	}
	s.logger.Error(op+" student failed", zap.Error(err))
	return appErrors.Internal(err, "failed to "+op+" student")
}

var errStudentIDTaken = appErrors.Clone(appErrors.ErrValidation, "Student ID already exists")

func optionalString(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// optionalDate parses a validated YYYY-MM-DD value; empty yields nil.
func optionalDate(raw string) *models.Date {
	if raw == "" {
		return nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil
	}
	return &d
}
