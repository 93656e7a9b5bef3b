package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) error
}

// CreateUserRequest is the admin payload for creating an account with an
// explicit role.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,max=120"`
	Role     string `json:"role" validate:"required,role"`
	Password string `json:"password" validate:"required,min=8"`
}

// UserService handles account management by admins.
type UserService struct {
	repo      userRepository
	validator *Validator
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *Validator, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}
	pagination := models.NewPagination(filter.Page, filter.PageSize, total)
	return users, &pagination, nil
}

// Create stores a new account. The role is parsed against the closed set.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid role")
	}

	user, err := newAccount(req.Email, req.Password, req.FullName, role)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Email already registered")
		}
		s.logger.Error("create user failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create user")
	}
	return user, nil
}
