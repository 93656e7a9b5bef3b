package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
)

type stubResolver struct {
	principals map[string]models.Principal
	calls      int
}

func (s *stubResolver) Resolve(_ context.Context, token string) (*models.Principal, bool) {
	s.calls++
	p, ok := s.principals[token]
	if !ok {
		return nil, false
	}
	return &p, true
}

func newResolver() *stubResolver {
	return &stubResolver{principals: map[string]models.Principal{
		"admin-token":   {ID: "u-admin", Role: models.RoleAdmin},
		"parent-token":  {ID: "u-parent", Role: models.RoleParent},
		"teacher-token": {ID: "u-teacher", Role: models.RoleTeacher},
	}}
}

func newRouter(resolver sessionResolver, guard gin.HandlerFunc, path string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session(resolver, "session"))
	r.GET(path, guard, func(c *gin.Context) {
		p, _ := PrincipalFrom(c)
		c.String(http.StatusOK, p.ID)
	})
	return r
}

func TestRequireRoleAPI(t *testing.T) {
	cases := []struct {
		name   string
		auth   string
		status int
		body   string
	}{
		{"anonymous", "", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"bad token", "Bearer nope", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"wrong role", "Bearer parent-token", http.StatusForbidden, `{"error":"Forbidden"}`},
		{"malformed header", "Token admin-token", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(newResolver(), RequireRole(models.RoleAdmin), "/api/admin/thing")
			req := httptest.NewRequest(http.MethodGet, "/api/admin/thing", nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
		})
	}
}

func TestRequireRoleAllowsListedRoles(t *testing.T) {
	r := newRouter(newResolver(), RequireRole(models.RoleAdmin, models.RoleTeacher), "/api/admin/thing")
	req := httptest.NewRequest(http.MethodGet, "/api/admin/thing", nil)
	req.Header.Set("Authorization", "Bearer teacher-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-teacher", w.Body.String())
}

func TestSessionReadsCookie(t *testing.T) {
	resolver := newResolver()
	r := newRouter(resolver, RequireRole(models.RoleAdmin), "/api/admin/thing")
	req := httptest.NewRequest(http.MethodGet, "/api/admin/thing", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "admin-token"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, resolver.calls)
}

func TestSessionResolvesEveryRequest(t *testing.T) {
	resolver := newResolver()
	r := newRouter(resolver, RequireRole(models.RoleAdmin), "/api/admin/thing")
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/thing", nil)
		req.Header.Set("Authorization", "Bearer admin-token")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, 2, resolver.calls)

	// a demoted account loses access on the next request
	resolver.principals["admin-token"] = models.Principal{ID: "u-admin", Role: models.RoleStudent}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/thing", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequirePageRoleRedirects(t *testing.T) {
	cases := []struct {
		name     string
		cookie   string
		status   int
		location string
	}{
		{"anonymous", "", http.StatusSeeOther, "/auth/login"},
		{"wrong role", "parent-token", http.StatusSeeOther, "/"},
		{"allowed", "admin-token", http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(newResolver(), RequirePageRole(models.RoleAdmin), "/admin")
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session", Value: tc.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.location, w.Header().Get("Location"))
		})
	}
}

func TestRedirectIfAuthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session(newResolver(), ""))
	r.GET("/auth/login", RedirectIfAuthenticated(), func(c *gin.Context) { c.String(http.StatusOK, "login") })

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req.Header.Set("Accept", "text/html")
	req.AddCookie(&http.Cookie{Name: "session", Value: "parent-token"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/parent", w.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req.Header.Set("Accept", "text/html")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer teacher-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResponseMetaCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var meta map[string]interface{}
	r.Use(WithResponseMeta())
	r.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
}
