package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/logger"
)

// ContextPrincipalKey is the gin context key storing the resolved principal.
const ContextPrincipalKey = "principal"

// DefaultSessionCookie is the cookie name used when none is configured.
const DefaultSessionCookie = "session"

type sessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.Principal, bool)
}

// Session resolves the caller on every request and attaches the principal
// when there is one. It never blocks; guards decide what to do with absence.
func Session(resolver sessionResolver, cookieName string) gin.HandlerFunc {
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	return func(c *gin.Context) {
		if token := SessionToken(c, cookieName); token != "" {
			if principal, ok := resolver.Resolve(c.Request.Context(), token); ok {
				c.Set(ContextPrincipalKey, principal)
				c.Set(logger.ContextUserIDKey, principal.ID)
				c.Set(logger.ContextRoleKey, principal.Role.String())
			}
		}
		c.Next()
	}
}

// SessionToken reads a bearer token, falling back to the session cookie.
func SessionToken(c *gin.Context, cookieName string) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

// PrincipalFrom returns the principal attached by Session.
func PrincipalFrom(c *gin.Context) (*models.Principal, bool) {
	value, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*models.Principal)
	return principal, ok && principal != nil
}
