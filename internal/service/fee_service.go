package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type feeRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.FeePayment, error)
	ListOutstandingByStudent(ctx context.Context, studentID string) ([]models.FeePayment, error)
	List(ctx context.Context, filter models.FeePaymentFilter) ([]models.FeePaymentView, error)
	FindByID(ctx context.Context, id string) (*models.FeePayment, error)
	Create(ctx context.Context, payment *models.FeePayment) error
	MarkPaid(ctx context.Context, id string, paidAt time.Time, transactionID *string) error
	RemindedSince(ctx context.Context, paymentIDs []string, since time.Time) ([]string, error)
	CreateReminders(ctx context.Context, reminders []models.PaymentReminder) error
}

type feeStudentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// FeeConfig holds the reminder policy.
type FeeConfig struct {
	// ReminderCooldown suppresses a new reminder for a payment reminded within
	// this window. Zero disables suppression.
	ReminderCooldown time.Duration
	CurrencySymbol   string
}

// CreatePaymentRequest adds a fee row for a student.
type CreatePaymentRequest struct {
	StudentID string          `json:"student_id" validate:"required,uuid"`
	FeeType   string          `json:"fee_type" validate:"required,max=60"`
	Amount    decimal.Decimal `json:"amount"`
	DueDate   string          `json:"due_date" validate:"required,isodate"`
	Status    string          `json:"status" validate:"omitempty,payment_status"`
}

// MarkPaidRequest settles a payment.
type MarkPaidRequest struct {
	Status        string     `json:"status" validate:"omitempty,eq=paid"`
	PaymentDate   *time.Time `json:"payment_date"`
	TransactionID string     `json:"transaction_id" validate:"max=100"`
}

// SendReminderRequest asks for reminders for one student.
type SendReminderRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
}

// PaymentList is the admin payments payload.
type PaymentList struct {
	Payments []models.FeePaymentView `json:"payments"`
	Summary  models.PaymentSummary   `json:"summary"`
}

// FeeService manages fee payments and their reminders.
type FeeService struct {
	repo      feeRepository
	students  feeStudentLookup
	validator *Validator
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	config    FeeConfig
	now       func() time.Time
}

// NewFeeService constructs the fee service.
func NewFeeService(repo feeRepository, students feeStudentLookup, validate *Validator, cache *CacheService, metrics *MetricsService, logger *zap.Logger, config FeeConfig) *FeeService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.CurrencySymbol == "" {
		config.CurrencySymbol = "₹"
	}
	return &FeeService{repo: repo, students: students, validator: validate, cache: cache, metrics: metrics, logger: logger, config: config, now: time.Now}
}

// SummarizePayments totals outstanding (pending or overdue) and paid amounts.
// Partial payments count towards neither.
func SummarizePayments(payments []models.FeePayment) models.PaymentSummary {
	summary := models.PaymentSummary{TotalPending: decimal.Zero, TotalPaid: decimal.Zero}
	for _, p := range payments {
		switch {
		case p.Status.Outstanding():
			summary.TotalPending = summary.TotalPending.Add(p.Amount)
		case p.Status == models.PaymentStatusPaid:
			summary.TotalPaid = summary.TotalPaid.Add(p.Amount)
		}
	}
	return summary
}

// ForStudent returns a student's payments with their summary.
func (s *FeeService) ForStudent(ctx context.Context, studentID string) ([]models.FeePayment, models.PaymentSummary, error) {
	payments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("list student payments failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, models.PaymentSummary{}, appErrors.Internal(err, "failed to load payments")
	}
	if payments == nil {
		payments = []models.FeePayment{}
	}
	return payments, SummarizePayments(payments), nil
}

// List returns payments for the admin view along with their totals.
func (s *FeeService) List(ctx context.Context, filter models.FeePaymentFilter) (*PaymentList, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be one of pending, overdue, paid, partial")
	}
	views, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list payments failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load payments")
	}
	if views == nil {
		views = []models.FeePaymentView{}
	}
	payments := make([]models.FeePayment, len(views))
	for i := range views {
		payments[i] = views[i].FeePayment
	}
	return &PaymentList{Payments: views, Summary: SummarizePayments(payments)}, nil
}

// Create records a new fee for a student.
func (s *FeeService) Create(ctx context.Context, req CreatePaymentRequest) (*models.FeePayment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be greater than 0")
	}
	if !req.Amount.Equal(req.Amount.Round(2)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must have at most 2 decimal places")
	}
	if err := s.ensureStudent(ctx, req.StudentID); err != nil {
		return nil, err
	}
	due, _ := models.ParseDate(req.DueDate)
	status := models.PaymentStatus(req.Status)
	if status == "" {
		status = models.PaymentStatusPending
	}

	payment := &models.FeePayment{
		StudentID: req.StudentID,
		FeeType:   strings.TrimSpace(req.FeeType),
		Amount:    req.Amount,
		DueDate:   due,
		Status:    status,
	}
	if status == models.PaymentStatusPaid {
		paidAt := s.now().UTC()
		payment.PaymentDate = &paidAt
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		s.logger.Error("create payment failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create payment")
	}
	s.cache.InvalidatePattern(ctx, cachePatternDashboards)
	return payment, nil
}

// MarkPaid settles a payment. Paid is terminal: settling it again is a conflict.
func (s *FeeService) MarkPaid(ctx context.Context, id string, req MarkPaidRequest) (*models.FeePayment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	paidAt := s.now().UTC()
	if req.PaymentDate != nil {
		paidAt = req.PaymentDate.UTC()
	}

	if err := s.repo.MarkPaid(ctx, id, paidAt, optionalString(req.TransactionID)); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("mark payment paid failed", zap.String("id", id), zap.Error(err))
			return nil, appErrors.Internal(err, "failed to update payment")
		}
		if _, findErr := s.repo.FindByID(ctx, id); findErr != nil {
			if errors.Is(findErr, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "Payment not found")
			}
			return nil, appErrors.Internal(findErr, "failed to update payment")
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, "Payment is already paid")
	}

	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load payment")
	}
	s.cache.InvalidatePattern(ctx, cachePatternDashboards)
	return payment, nil
}

// SendReminders creates one reminder per outstanding payment of the student.
// Payments reminded within the cooldown are skipped and reported. All
// reminders are stored in one transaction.
func (s *FeeService) SendReminders(ctx context.Context, req SendReminderRequest) (*models.ReminderResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if err := s.ensureStudent(ctx, req.StudentID); err != nil {
		return nil, err
	}

	outstanding, err := s.repo.ListOutstandingByStudent(ctx, req.StudentID)
	if err != nil {
		s.logger.Error("load outstanding payments failed", zap.String("student_id", req.StudentID), zap.Error(err))
		return nil, appErrors.Internal(err, "Failed to send reminders")
	}
	result := &models.ReminderResult{Skipped: []string{}}
	if len(outstanding) == 0 {
		return result, nil
	}

	now := s.now().UTC()
	recent := map[string]struct{}{}
	if s.config.ReminderCooldown > 0 {
		ids := make([]string, len(outstanding))
		for i, p := range outstanding {
			ids[i] = p.ID
		}
		reminded, err := s.repo.RemindedSince(ctx, ids, now.Add(-s.config.ReminderCooldown))
		if err != nil {
			s.logger.Error("load recent reminders failed", zap.String("student_id", req.StudentID), zap.Error(err))
			return nil, appErrors.Internal(err, "Failed to send reminders")
		}
		for _, id := range reminded {
			recent[id] = struct{}{}
		}
	}

	today := models.NewDate(now)
	reminders := make([]models.PaymentReminder, 0, len(outstanding))
	for _, p := range outstanding {
		if _, skip := recent[p.ID]; skip {
			result.Skipped = append(result.Skipped, p.ID)
			s.metrics.RecordReminder("skipped")
			continue
		}
		reminders = append(reminders, models.PaymentReminder{
			StudentID:    req.StudentID,
			FeePaymentID: p.ID,
			ReminderDate: today,
			ReminderType: models.ReminderTypeFor(p.Status),
			Message:      s.reminderMessage(p),
			IsSent:       true,
		})
	}

	if err := s.repo.CreateReminders(ctx, reminders); err != nil {
		s.logger.Error("create reminders failed", zap.String("student_id", req.StudentID), zap.Error(err))
		return nil, appErrors.Internal(err, "Failed to send reminders")
	}
	for _, r := range reminders {
		s.metrics.RecordReminder(string(r.ReminderType))
	}
	result.Created = len(reminders)
	s.logger.Info("payment reminders created",
		zap.String("student_id", req.StudentID), zap.Int("created", result.Created), zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

func (s *FeeService) reminderMessage(p models.FeePayment) string {
	return fmt.Sprintf("Payment reminder for %s: %s%s due on %s", p.FeeType, s.config.CurrencySymbol, p.Amount.String(), p.DueDate.String())
}

func (s *FeeService) ensureStudent(ctx context.Context, id string) error {
	if s.students == nil {
		return nil
	}
	if _, err := s.students.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		return appErrors.Internal(err, "failed to load student")
	}
	return nil
}
