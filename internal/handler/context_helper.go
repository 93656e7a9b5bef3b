package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/school-portal-api/internal/middleware"
	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

// principalOrAbort returns the session principal or writes a 401.
func principalOrAbort(c *gin.Context) (*models.Principal, bool) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return nil, false
	}
	return principal, true
}

// pathUUID reads a uuid path parameter, writing a 404 when it is malformed.
func pathUUID(c *gin.Context, name string) (string, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "Not found"))
		return "", false
	}
	return id.String(), true
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return fallback
}
