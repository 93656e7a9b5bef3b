package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type stubTokens struct {
	claims map[string]*models.JWTClaims
}

func (s stubTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if c, ok := s.claims[token]; ok {
		return c, nil
	}
	return nil, appErrors.ErrUnauthenticated
}

type stubUsers struct {
	users map[string]*models.User
	err   error
}

func (s stubUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("sql: no rows in result set")
}

func sessionFixture(role models.Role) *SessionService {
	tokens := stubTokens{claims: map[string]*models.JWTClaims{"tok": {UserID: "u1"}}}
	users := stubUsers{users: map[string]*models.User{"u1": {ID: "u1", Email: "u1@school.test", Role: role, Active: true}}}
	return NewSessionService(tokens, users, zap.NewNop())
}

func TestResolveUsesStoredRole(t *testing.T) {
	svc := sessionFixture(models.RoleParent)

	principal, ok := svc.Resolve(context.Background(), "tok")
	require.True(t, ok)
	assert.Equal(t, models.RoleParent, principal.Role)
	assert.Equal(t, "u1", principal.ID)
}

func TestResolveAbsentCases(t *testing.T) {
	svc := sessionFixture(models.RoleAdmin)

	_, ok := svc.Resolve(context.Background(), "")
	assert.False(t, ok)
	_, ok = svc.Resolve(context.Background(), "forged")
	assert.False(t, ok)

	inactive := NewSessionService(
		stubTokens{claims: map[string]*models.JWTClaims{"tok": {UserID: "u1"}}},
		stubUsers{users: map[string]*models.User{"u1": {ID: "u1", Role: models.RoleAdmin, Active: false}}},
		nil,
	)
	_, ok = inactive.Resolve(context.Background(), "tok")
	assert.False(t, ok)

	broken := NewSessionService(
		stubTokens{claims: map[string]*models.JWTClaims{"tok": {UserID: "u1"}}},
		stubUsers{err: errors.New("connection refused")},
		nil,
	)
	_, ok = broken.Resolve(context.Background(), "tok")
	assert.False(t, ok)
}

func TestRequireRoleAllowsOnlyMembers(t *testing.T) {
	for _, role := range models.AllRoles {
		for _, allowedRole := range models.AllRoles {
			svc := sessionFixture(role)
			principal, err := svc.RequireRole(context.Background(), "tok", models.NewRoleSet(allowedRole))
			if role == allowedRole {
				require.NoError(t, err, "role %s", role)
				assert.Equal(t, role, principal.Role)
			} else {
				assert.ErrorIs(t, err, appErrors.ErrForbidden, "role %s allowed %s", role, allowedRole)
				assert.Nil(t, principal)
			}
		}
	}
}

func TestRequireRoleUnauthenticated(t *testing.T) {
	svc := sessionFixture(models.RoleAdmin)

	for _, token := range []string{"", "forged"} {
		_, err := svc.RequireRole(context.Background(), token, models.NewRoleSet(models.AllRoles...))
		assert.ErrorIs(t, err, appErrors.ErrUnauthenticated)
	}
}
