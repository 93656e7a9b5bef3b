package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.LoginResponse, error)
	Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, userID string) error
}

// CookieSettings describes the browser session cookie.
type CookieSettings struct {
	Name   string
	Secure bool
	Domain string
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	cookie  CookieSettings
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookie CookieSettings) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "session"
	}
	return &AuthHandler{service: svc, cookie: cookie}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by email and password; also sets the session cookie
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setSession(c, res)
	response.OK(c, res)
}

// SignUp godoc
// @Summary Self sign-up
// @Description Creates a student account. Any role in the payload is ignored.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SignUpRequest true "Sign-up payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Router /auth/sign-up [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if !bindJSON(c, &req, "invalid sign-up payload") {
		return
	}

	res, err := h.service.SignUp(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setSession(c, res)
	response.Created(c, res)
}

// Refresh godoc
// @Summary Refresh access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RefreshTokenRequest true "Refresh payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.ErrorBody
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshTokenRequest
	if !bindJSON(c, &req, "invalid refresh payload") {
		return
	}

	res, err := h.service.Refresh(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setSession(c, res)
	response.OK(c, res)
}

// Logout godoc
// @Summary Logout
// @Description Revokes refresh tokens and clears the session cookie
// @Tags Authentication
// @Success 204
// @Failure 401 {object} response.ErrorBody
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	if err := h.service.Logout(c.Request.Context(), principal.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", h.cookie.Domain, h.cookie.Secure, true)
	response.NoContent(c)
}

// Me godoc
// @Summary Current principal
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.ErrorBody
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	response.OK(c, principal)
}

// Page answers GET on the auth pages for visitors without a session. Logged-in
// browsers never reach it; the router redirects them to their home first.
func (h *AuthHandler) Page(c *gin.Context) {
	response.OK(c, gin.H{"authenticated": false})
}

func (h *AuthHandler) setSession(c *gin.Context, res *models.LoginResponse) {
	maxAge := int(res.ExpiresIn)
	if maxAge <= 0 {
		maxAge = int((24 * time.Hour).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, res.AccessToken, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}
