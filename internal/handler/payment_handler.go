package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type feeService interface {
	List(ctx context.Context, filter models.FeePaymentFilter) (*service.PaymentList, error)
	Create(ctx context.Context, req service.CreatePaymentRequest) (*models.FeePayment, error)
	MarkPaid(ctx context.Context, id string, req service.MarkPaidRequest) (*models.FeePayment, error)
	SendReminders(ctx context.Context, req service.SendReminderRequest) (*models.ReminderResult, error)
}

// PaymentHandler exposes fee payments and reminders.
type PaymentHandler struct {
	service feeService
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(svc feeService) *PaymentHandler {
	return &PaymentHandler{service: svc}
}

// List godoc
// @Summary List payments
// @Description Payments with a pending/paid summary
// @Tags Payments
// @Produce json
// @Param status query string false "pending, paid, overdue or partial"
// @Param student_id query string false "Student row ID"
// @Success 200 {object} response.Envelope
// @Router /api/admin/payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	filter := models.FeePaymentFilter{StudentID: strings.TrimSpace(c.Query("student_id"))}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.PaymentStatus(raw)
		filter.Status = &status
	}
	list, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Create godoc
// @Summary Create payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.CreatePaymentRequest true "Payment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Router /api/admin/payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req service.CreatePaymentRequest
	if !bindJSON(c, &req, "Invalid payment payload") {
		return
	}
	payment, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// MarkPaid godoc
// @Summary Mark payment paid
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param payload body service.MarkPaidRequest false "Settlement details"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /api/admin/payments/{id} [put]
func (h *PaymentHandler) MarkPaid(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req service.MarkPaidRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "Invalid payment payload") {
		return
	}
	payment, err := h.service.MarkPaid(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, payment)
}

// SendReminder godoc
// @Summary Send payment reminders
// @Description One reminder per outstanding payment, subject to the cooldown
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.SendReminderRequest true "Student"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /api/admin/payments/reminder [post]
func (h *PaymentHandler) SendReminder(c *gin.Context) {
	var req service.SendReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.StudentID) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Student ID is required"))
		return
	}
	result, err := h.service.SendReminders(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	skipped := result.Skipped
	if skipped == nil {
		skipped = []string{}
	}
	response.Fields(c, http.StatusOK, gin.H{"created": result.Created, "skipped": skipped})
}
