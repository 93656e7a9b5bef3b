package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type fakeUserRepo struct {
	users   []models.User
	listErr error
	taken   map[string]bool
}

func (f *fakeUserRepo) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var out []models.User
	for _, u := range f.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	if f.taken[user.Email] {
		return fmt.Errorf("create user: %w", repository.ErrDuplicate)
	}
	user.ID = fmt.Sprintf("u%d", len(f.users)+1)
	f.users = append(f.users, *user)
	return nil
}

func TestUserServiceCreateUsesRequestedRole(t *testing.T) {
	repo := &fakeUserRepo{}
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    " Teacher@School.test ",
		FullName: "Ms Teacher",
		Role:     "teacher",
		Password: "longenough",
	})

	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, user.Role)
	assert.Equal(t, "teacher@school.test", user.Email)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("longenough")))
}

func TestUserServiceCreateRejectsUnknownRole(t *testing.T) {
	svc := NewUserService(&fakeUserRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "x@school.test",
		FullName: "X",
		Role:     "superuser",
		Password: "longenough",
	})

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Status, appErr.Status)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := &fakeUserRepo{taken: map[string]bool{"dup@school.test": true}}
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "dup@school.test",
		FullName: "Dup",
		Role:     "parent",
		Password: "longenough",
	})

	appErr := appErrors.FromError(err)
	assert.Equal(t, "Email already registered", appErr.Message)
}

func TestUserServiceListPaginates(t *testing.T) {
	teacher := models.RoleTeacher
	repo := &fakeUserRepo{users: []models.User{
		{ID: "1", Role: models.RoleAdmin},
		{ID: "2", Role: models.RoleTeacher},
		{ID: "3", Role: models.RoleTeacher},
	}}
	svc := NewUserService(repo, nil, nil)

	users, pagination, err := svc.List(context.Background(), models.UserFilter{Role: &teacher, Page: 1, PageSize: 10})

	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestUserServiceListFailureIsInternal(t *testing.T) {
	svc := NewUserService(&fakeUserRepo{listErr: errors.New("db down")}, nil, nil)

	_, _, err := svc.List(context.Background(), models.UserFilter{})

	assert.Equal(t, appErrors.ErrInternal.Status, appErrors.FromError(err).Status)
}
