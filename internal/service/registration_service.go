package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type registrationRepository interface {
	CreateStudentAccount(ctx context.Context, user *models.User, student *models.Student) error
	CreateParentAccount(ctx context.Context, user *models.User, parent *models.Parent, link *models.StudentParent) error
}

type registrationStudentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByStudentID(ctx context.Context, studentID, excludeID string) (bool, error)
}

// RegisterStudentRequest creates a student login together with its record.
type RegisterStudentRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	StudentRequest
}

// RegisterParentRequest creates a parent login, optionally linked to a student.
type RegisterParentRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FullName  string `json:"full_name" validate:"required,max=120"`
	Phone     string `json:"phone" validate:"max=40"`
	Relation  string `json:"relation" validate:"omitempty,oneof=father mother guardian"`
	StudentID string `json:"student_id" validate:"omitempty,uuid"`
}

// RegistrationService provisions accounts for students and parents.
type RegistrationService struct {
	repo      registrationRepository
	students  registrationStudentLookup
	validator *Validator
	cache     *CacheService
	logger    *zap.Logger
}

// NewRegistrationService constructs the service.
func NewRegistrationService(repo registrationRepository, students registrationStudentLookup, validate *Validator, cache *CacheService, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{repo: repo, students: students, validator: validate, cache: cache, logger: logger}
}

// RegisterStudent creates the student account and record atomically.
func (s *RegistrationService) RegisterStudent(ctx context.Context, req RegisterStudentRequest) (*models.Student, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	exists, err := s.students.ExistsByStudentID(ctx, strings.TrimSpace(req.StudentID), "")
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check student id")
	}
	if exists {
		return nil, errStudentIDTaken
	}

	user, err := newAccount(req.Email, req.Password, req.FullName, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	student := &models.Student{}
	req.StudentRequest.apply(student)

	if err := s.repo.CreateStudentAccount(ctx, user, student); err != nil {
		return nil, s.writeError("student", err)
	}
	s.cache.InvalidatePattern(ctx, cachePatternDashboards)
	return student, nil
}

// RegisterParent creates the parent account, profile and optional link atomically.
func (s *RegistrationService) RegisterParent(ctx context.Context, req RegisterParentRequest) (*models.Parent, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var link *models.StudentParent
	if req.StudentID != "" {
		if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "Student not found")
			}
			return nil, appErrors.Internal(err, "failed to load student")
		}
		link = &models.StudentParent{StudentID: req.StudentID, Relation: optionalString(req.Relation)}
	}

	user, err := newAccount(req.Email, req.Password, req.FullName, models.RoleParent)
	if err != nil {
		return nil, err
	}
	parent := &models.Parent{
		FullName: strings.TrimSpace(req.FullName),
		Phone:    optionalString(req.Phone),
		Relation: optionalString(req.Relation),
	}

	if err := s.repo.CreateParentAccount(ctx, user, parent, link); err != nil {
		return nil, s.writeError("parent", err)
	}
	s.cache.InvalidatePattern(ctx, cachePatternDashboards)
	return parent, nil
}

func (s *RegistrationService) writeError(kind string, err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return appErrors.Clone(appErrors.ErrValidation, "Email or student ID already registered")
	}
	s.logger.Error("register "+kind+" failed", zap.Error(err))
	return appErrors.Internal(err, "failed to register "+kind)
}

func newAccount(email, password, fullName string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}
	return &models.User{
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(fullName),
		Role:         role,
		Active:       true,
	}, nil
}

// normalizeEmail trims and lower-cases an address before validation and storage.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
