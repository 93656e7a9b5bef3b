package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

type principalLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// SessionService turns a request token into the current principal. The role
// always comes from the stored account, never from the token.
type SessionService struct {
	tokens tokenValidator
	users  principalLookup
	logger *zap.Logger
}

// NewSessionService constructs the resolver.
func NewSessionService(tokens tokenValidator, users principalLookup, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{tokens: tokens, users: users, logger: logger}
}

// Resolve returns the principal for token, or false when there is none. No
// failure is surfaced: every problem reads as "not logged in".
func (s *SessionService) Resolve(ctx context.Context, token string) (*models.Principal, bool) {
	if token == "" {
		return nil, false
	}
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		s.logger.Debug("session token rejected", zap.Error(err))
		return nil, false
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("session user not found", zap.String("user_id", claims.UserID))
		} else {
			s.logger.Warn("session user lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
		}
		return nil, false
	}
	if !user.Active || !user.Role.Valid() {
		s.logger.Debug("session user not eligible", zap.String("user_id", user.ID), zap.Bool("active", user.Active))
		return nil, false
	}

	principal := user.Principal()
	return &principal, true
}

// RequireRole resolves token and checks the principal's role against allowed.
func (s *SessionService) RequireRole(ctx context.Context, token string, allowed models.RoleSet) (*models.Principal, error) {
	principal, ok := s.Resolve(ctx, token)
	if !ok {
		return nil, appErrors.ErrUnauthenticated
	}
	return Authorize(principal, allowed)
}

// Authorize checks an already-resolved principal against allowed.
func Authorize(principal *models.Principal, allowed models.RoleSet) (*models.Principal, error) {
	if principal == nil {
		return nil, appErrors.ErrUnauthenticated
	}
	if !allowed.Contains(principal.Role) {
		return nil, appErrors.ErrForbidden
	}
	return principal, nil
}
