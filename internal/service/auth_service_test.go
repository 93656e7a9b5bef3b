package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type fakeAuthRepo struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	createErr     error
	revokedAll    []string
}

func newFakeAuthRepo(users ...*models.User) *fakeAuthRepo {
	repo := &fakeAuthRepo{users: map[string]*models.User{}, refreshTokens: map[string]*models.RefreshToken{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) Create(ctx context.Context, user *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if user.ID == "" {
		user.ID = "new-user"
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeAuthRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range f.users {
		if filter.Role == nil || u.Role == *filter.Role {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (f *fakeAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	f.users[id].LastLoginAt = &ts
	return nil
}

func (f *fakeAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	f.refreshTokens[token.TokenHash] = token
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	if rt, ok := f.refreshTokens[tokenHash]; ok {
		return rt, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) RevokeRefreshToken(ctx context.Context, id string) error {
	for _, rt := range f.refreshTokens {
		if rt.ID == id {
			rt.Revoked = true
		}
	}
	return nil
}

func (f *fakeAuthRepo) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	f.revokedAll = append(f.revokedAll, userID)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "school-portal-api",
		Audience:           "school-portal",
	}
}

func hashedUser(t *testing.T, id, email, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: id, Email: email, PasswordHash: string(hash), FullName: "Test " + id, Role: role, Active: true}
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := newFakeAuthRepo(hashedUser(t, "u1", "admin@school.test", "password1", models.RoleAdmin))
	svc := NewAuthService(repo, NewValidator(), nil, zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.test", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.NotNil(t, repo.users["u1"].LastLoginAt)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestAuthServiceLoginNormalizesEmail(t *testing.T) {
	repo := newFakeAuthRepo(hashedUser(t, "u1", "admin@school.test", "password1", models.RoleAdmin))
	svc := NewAuthService(repo, NewValidator(), nil, zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "  Admin@School.TEST ", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "u1", res.User.ID)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newFakeAuthRepo(hashedUser(t, "u1", "admin@school.test", "password1", models.RoleAdmin))
	svc := NewAuthService(repo, NewValidator(), nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.test", Password: "nope"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ghost@school.test", Password: "nope"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	user := hashedUser(t, "u1", "old@school.test", "password1", models.RoleTeacher)
	user.Active = false
	svc := NewAuthService(newFakeAuthRepo(user), NewValidator(), nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "old@school.test", Password: "password1"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestAuthServiceSignUpAlwaysStudent(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, NewValidator(), nil, zap.NewNop(), testAuthConfig())

	res, err := svc.SignUp(context.Background(), models.SignUpRequest{Email: " New@School.test ", Password: "longenough", FullName: "New Kid"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, res.User.Role)
	assert.Equal(t, "new@school.test", repo.users["new-user"].Email)
}

func TestAuthServiceSignUpDuplicateEmail(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.createErr = repository.ErrDuplicate
	svc := NewAuthService(repo, NewValidator(), nil, zap.NewNop(), testAuthConfig())

	_, err := svc.SignUp(context.Background(), models.SignUpRequest{Email: "a@school.test", Password: "longenough", FullName: "A"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceRefreshRotates(t *testing.T) {
	repo := newFakeAuthRepo(hashedUser(t, "u1", "p@school.test", "password1", models.RoleParent))
	svc := NewAuthService(repo, NewValidator(), nil, zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "p@school.test", Password: "password1"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, appErrors.ErrUnauthenticated)
}

func TestAuthServiceValidateTokenRejectsForeignAudience(t *testing.T) {
	repo := newFakeAuthRepo(hashedUser(t, "u1", "p@school.test", "password1", models.RoleParent))
	issuerCfg := testAuthConfig()
	issuerCfg.Audience = "another-app"
	issuer := NewAuthService(repo, NewValidator(), nil, zap.NewNop(), issuerCfg)
	login, err := issuer.Login(context.Background(), models.LoginRequest{Email: "p@school.test", Password: "password1"})
	require.NoError(t, err)

	verifier := NewAuthService(repo, NewValidator(), nil, zap.NewNop(), testAuthConfig())
	_, err = verifier.ValidateToken(login.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthenticated)
}

func TestAuthServiceValidateTokenExpired(t *testing.T) {
	repo := newFakeAuthRepo(hashedUser(t, "u1", "p@school.test", "password1", models.RoleParent))
	svc := NewAuthService(repo, NewValidator(), nil, zap.NewNop(), testAuthConfig())
	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "p@school.test", Password: "password1"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(login.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthenticated)
}

func TestAuthServiceLogoutRevokesAll(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, NewValidator(), nil, zap.NewNop(), testAuthConfig())

	require.NoError(t, svc.Logout(context.Background(), "u1"))
	assert.Equal(t, []string{"u1"}, repo.revokedAll)
}
