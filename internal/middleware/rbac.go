package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

// LoginPath is where page guards send anonymous visitors.
const LoginPath = "/auth/login"

// RequireRole guards API routes: 401 without a session, 403 for a role
// outside roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := models.NewRoleSet(roles...)
	return func(c *gin.Context) {
		principal, _ := PrincipalFrom(c)
		if _, err := service.Authorize(principal, allowed); err != nil {
			response.Error(c, err)
			return
		}
		c.Next()
	}
}

// RequirePageRole guards server-rendered pages by redirecting instead of
// returning an error body.
func RequirePageRole(roles ...models.Role) gin.HandlerFunc {
	allowed := models.NewRoleSet(roles...)
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			c.Redirect(http.StatusSeeOther, LoginPath)
			c.Abort()
			return
		}
		if !allowed.Contains(principal.Role) {
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RedirectIfAuthenticated sends a logged-in browser away from auth pages to
// its role home. API clients are let through.
func RedirectIfAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if ok && wantsHTML(c) {
			c.Redirect(http.StatusSeeOther, principal.Role.HomePath())
			c.Abort()
			return
		}
		c.Next()
	}
}

func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}
