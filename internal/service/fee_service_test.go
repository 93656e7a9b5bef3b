package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type fakeFeeRepo struct {
	payments   map[string]*models.FeePayment
	order      []string
	reminders  []models.PaymentReminder
	remindedAt map[string]time.Time
	failInsert error
	inserts    int
}

func newFakeFeeRepo(payments ...models.FeePayment) *fakeFeeRepo {
	repo := &fakeFeeRepo{payments: map[string]*models.FeePayment{}, remindedAt: map[string]time.Time{}}
	for i := range payments {
		p := payments[i]
		repo.payments[p.ID] = &p
		repo.order = append(repo.order, p.ID)
	}
	return repo
}

func (f *fakeFeeRepo) ListByStudent(ctx context.Context, studentID string) ([]models.FeePayment, error) {
	var out []models.FeePayment
	for _, id := range f.order {
		if p := f.payments[id]; p.StudentID == studentID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeFeeRepo) ListOutstandingByStudent(ctx context.Context, studentID string) ([]models.FeePayment, error) {
	all, _ := f.ListByStudent(ctx, studentID)
	var out []models.FeePayment
	for _, p := range all {
		if p.Status.Outstanding() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeFeeRepo) List(ctx context.Context, filter models.FeePaymentFilter) ([]models.FeePaymentView, error) {
	var out []models.FeePaymentView
	for _, id := range f.order {
		p := f.payments[id]
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		out = append(out, models.FeePaymentView{FeePayment: *p})
	}
	return out, nil
}

func (f *fakeFeeRepo) FindByID(ctx context.Context, id string) (*models.FeePayment, error) {
	if p, ok := f.payments[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeFeeRepo) Create(ctx context.Context, payment *models.FeePayment) error {
	payment.ID = "pay-new"
	f.payments[payment.ID] = payment
	f.order = append(f.order, payment.ID)
	return nil
}

func (f *fakeFeeRepo) MarkPaid(ctx context.Context, id string, paidAt time.Time, transactionID *string) error {
	p, ok := f.payments[id]
	if !ok || p.Status == models.PaymentStatusPaid {
		return sql.ErrNoRows
	}
	p.Status = models.PaymentStatusPaid
	p.PaymentDate = &paidAt
	p.TransactionID = transactionID
	return nil
}

func (f *fakeFeeRepo) RemindedSince(ctx context.Context, paymentIDs []string, since time.Time) ([]string, error) {
	var out []string
	for _, id := range paymentIDs {
		if at, ok := f.remindedAt[id]; ok && !at.Before(since) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeFeeRepo) CreateReminders(ctx context.Context, reminders []models.PaymentReminder) error {
	f.inserts++
	if f.failInsert != nil {
		return f.failInsert
	}
	f.reminders = append(f.reminders, reminders...)
	return nil
}

func payment(id, feeType, amount, status string) models.FeePayment {
	due, _ := models.ParseDate("2024-07-01")
	return models.FeePayment{
		ID:        id,
		StudentID: studentA,
		FeeType:   feeType,
		Amount:    decimal.RequireFromString(amount),
		DueDate:   due,
		Status:    models.PaymentStatus(status),
	}
}

var feeNow = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

func feeFixture(cooldown time.Duration, payments ...models.FeePayment) (*FeeService, *fakeFeeRepo) {
	repo := newFakeFeeRepo(payments...)
	students := newFakeStudentRepo(models.Student{ID: studentA, StudentID: "S-1", FullName: "A", Class: "10A"})
	svc := NewFeeService(repo, students, NewValidator(), nil, nil, zap.NewNop(), FeeConfig{ReminderCooldown: cooldown, CurrencySymbol: "₹"})
	svc.now = func() time.Time { return feeNow }
	return svc, repo
}

func TestSummarizePaymentsEmpty(t *testing.T) {
	summary := SummarizePayments(nil)
	assert.True(t, summary.TotalPending.IsZero())
	assert.True(t, summary.TotalPaid.IsZero())
}

func TestSummarizePayments(t *testing.T) {
	summary := SummarizePayments([]models.FeePayment{
		payment("p1", "Tuition", "500", "pending"),
		payment("p2", "Transport", "300", "overdue"),
		payment("p3", "Library", "200", "paid"),
		payment("p4", "Lab", "150", "partial"),
	})
	assert.Equal(t, "800", summary.TotalPending.String())
	assert.Equal(t, "200", summary.TotalPaid.String())
}

func TestSummarizePaymentsIsExact(t *testing.T) {
	summary := SummarizePayments([]models.FeePayment{
		payment("p1", "A", "0.1", "pending"),
		payment("p2", "B", "0.2", "pending"),
	})
	assert.True(t, summary.TotalPending.Equal(decimal.RequireFromString("0.3")))
}

func TestSendRemindersOnePerOutstandingPayment(t *testing.T) {
	svc, repo := feeFixture(0,
		payment("p1", "Tuition", "1250.5", "pending"),
		payment("p2", "Transport", "300", "overdue"),
		payment("p3", "Library", "200", "paid"),
		payment("p4", "Exam", "75", "overdue"),
	)

	result, err := svc.SendReminders(context.Background(), SendReminderRequest{StudentID: studentA})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Created)
	assert.Empty(t, result.Skipped)
	require.Len(t, repo.reminders, 3)
	assert.Equal(t, 1, repo.inserts)

	byPayment := map[string]models.PaymentReminder{}
	for _, r := range repo.reminders {
		byPayment[r.FeePaymentID] = r
		assert.True(t, r.IsSent)
		assert.Equal(t, "2024-06-15", r.ReminderDate.String())
		assert.Equal(t, studentA, r.StudentID)
	}
	assert.Equal(t, models.ReminderTypePending, byPayment["p1"].ReminderType)
	assert.Equal(t, models.ReminderTypeOverdue, byPayment["p2"].ReminderType)
	assert.Equal(t, models.ReminderTypeOverdue, byPayment["p4"].ReminderType)
	assert.Equal(t, "Payment reminder for Tuition: ₹1250.5 due on 2024-07-01", byPayment["p1"].Message)
	assert.NotContains(t, byPayment, "p3")
}

func TestSendRemindersNothingOutstanding(t *testing.T) {
	svc, repo := feeFixture(0, payment("p1", "Tuition", "500", "paid"))

	result, err := svc.SendReminders(context.Background(), SendReminderRequest{StudentID: studentA})
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Zero(t, repo.inserts)
}

func TestSendRemindersRespectsCooldown(t *testing.T) {
	svc, repo := feeFixture(24*time.Hour,
		payment("p1", "Tuition", "500", "pending"),
		payment("p2", "Transport", "300", "overdue"),
	)
	repo.remindedAt["p1"] = feeNow.Add(-2 * time.Hour)
	repo.remindedAt["p2"] = feeNow.Add(-48 * time.Hour)

	result, err := svc.SendReminders(context.Background(), SendReminderRequest{StudentID: studentA})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, []string{"p1"}, result.Skipped)
	require.Len(t, repo.reminders, 1)
	assert.Equal(t, "p2", repo.reminders[0].FeePaymentID)
}

func TestSendRemindersWithoutCooldownRepeats(t *testing.T) {
	svc, repo := feeFixture(0, payment("p1", "Tuition", "500", "pending"))
	repo.remindedAt["p1"] = feeNow.Add(-time.Minute)
	ctx := context.Background()

	_, err := svc.SendReminders(ctx, SendReminderRequest{StudentID: studentA})
	require.NoError(t, err)
	_, err = svc.SendReminders(ctx, SendReminderRequest{StudentID: studentA})
	require.NoError(t, err)
	assert.Len(t, repo.reminders, 2)
}

func TestSendRemindersUnknownStudent(t *testing.T) {
	svc, repo := feeFixture(0)

	_, err := svc.SendReminders(context.Background(), SendReminderRequest{StudentID: ghost})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Zero(t, repo.inserts)
}

func TestSendRemindersFailureWritesNothing(t *testing.T) {
	svc, repo := feeFixture(0, payment("p1", "Tuition", "500", "pending"))
	repo.failInsert = errors.New("connection reset")

	_, err := svc.SendReminders(context.Background(), SendReminderRequest{StudentID: studentA})
	require.Error(t, err)
	assert.Equal(t, "Failed to send reminders", appErrors.FromError(err).Message)
	assert.Empty(t, repo.reminders)
}

func TestMarkPaid(t *testing.T) {
	svc, repo := feeFixture(0, payment("p1", "Tuition", "500", "overdue"))

	paid, err := svc.MarkPaid(context.Background(), "p1", MarkPaidRequest{Status: "paid", TransactionID: "TX-9"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, paid.Status)
	require.NotNil(t, paid.PaymentDate)
	assert.Equal(t, feeNow, *paid.PaymentDate)
	assert.Equal(t, "TX-9", *repo.payments["p1"].TransactionID)
}

func TestMarkPaidTwiceConflicts(t *testing.T) {
	svc, _ := feeFixture(0, payment("p1", "Tuition", "500", "paid"))

	_, err := svc.MarkPaid(context.Background(), "p1", MarkPaidRequest{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestMarkPaidMissing(t *testing.T) {
	svc, _ := feeFixture(0)

	_, err := svc.MarkPaid(context.Background(), "nope", MarkPaidRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCreatePaymentValidatesAmount(t *testing.T) {
	svc, _ := feeFixture(0)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePaymentRequest{StudentID: studentA, FeeType: "Tuition", Amount: decimal.Zero, DueDate: "2024-07-01"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(ctx, CreatePaymentRequest{StudentID: studentA, FeeType: "Tuition", Amount: decimal.RequireFromString("10.005"), DueDate: "2024-07-01"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	created, err := svc.Create(ctx, CreatePaymentRequest{StudentID: studentA, FeeType: " Tuition ", Amount: decimal.RequireFromString("99.99"), DueDate: "2024-07-01"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, created.Status)
	assert.Equal(t, "Tuition", created.FeeType)

	padded, err := svc.Create(ctx, CreatePaymentRequest{StudentID: studentA, FeeType: "Library", Amount: decimal.RequireFromString("100.500"), DueDate: "2024-07-01"})
	require.NoError(t, err)
	assert.True(t, padded.Amount.Equal(decimal.RequireFromString("100.5")))
}

func TestListPaymentsCarriesSummary(t *testing.T) {
	svc, _ := feeFixture(0,
		payment("p1", "Tuition", "500", "pending"),
		payment("p2", "Library", "200", "paid"),
	)

	list, err := svc.List(context.Background(), models.FeePaymentFilter{})
	require.NoError(t, err)
	assert.Len(t, list.Payments, 2)
	assert.Equal(t, "500", list.Summary.TotalPending.String())
	assert.Equal(t, "200", list.Summary.TotalPaid.String())

	bad := models.PaymentStatus("void")
	_, err = svc.List(context.Background(), models.FeePaymentFilter{Status: &bad})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
