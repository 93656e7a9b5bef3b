package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type registrationService interface {
	RegisterStudent(ctx context.Context, req service.RegisterStudentRequest) (*models.Student, error)
	RegisterParent(ctx context.Context, req service.RegisterParentRequest) (*models.Parent, error)
}

// RegistrationHandler provisions student and parent logins.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Student godoc
// @Summary Register student
// @Description Creates the login account and student record in one transaction
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body service.RegisterStudentRequest true "Student registration"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Router /api/admin/register/student [post]
func (h *RegistrationHandler) Student(c *gin.Context) {
	var req service.RegisterStudentRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}
	student, err := h.service.RegisterStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Parent godoc
// @Summary Register parent
// @Description Creates the login account, parent record and optional student link in one transaction
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body service.RegisterParentRequest true "Parent registration"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Router /api/admin/register/parent [post]
func (h *RegistrationHandler) Parent(c *gin.Context) {
	var req service.RegisterParentRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}
	parent, err := h.service.RegisterParent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, parent)
}
