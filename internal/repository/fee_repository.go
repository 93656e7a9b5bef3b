package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/school-portal-api/internal/models"
)

const feeColumns = `id, student_id, fee_type, amount, due_date, payment_date, status, transaction_id, created_at, updated_at`

// FeeRepository persists fee payments and their reminders.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs the repository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// ListByStudent returns every payment of a student ordered by due date.
func (r *FeeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.FeePayment, error) {
	query := `SELECT ` + feeColumns + ` FROM fee_payments WHERE student_id = $1 ORDER BY due_date ASC`
	var payments []models.FeePayment
	if err := r.db.SelectContext(ctx, &payments, query, studentID); err != nil {
		return nil, fmt.Errorf("list payments by student: %w", err)
	}
	return payments, nil
}

// ListOutstandingByStudent returns pending and overdue payments of a student.
func (r *FeeRepository) ListOutstandingByStudent(ctx context.Context, studentID string) ([]models.FeePayment, error) {
	query := `SELECT ` + feeColumns + ` FROM fee_payments WHERE student_id = $1 AND status IN ('pending', 'overdue') ORDER BY due_date ASC`
	var payments []models.FeePayment
	if err := r.db.SelectContext(ctx, &payments, query, studentID); err != nil {
		return nil, fmt.Errorf("list outstanding payments: %w", err)
	}
	return payments, nil
}

// List returns payments with the owning student's identity.
func (r *FeeRepository) List(ctx context.Context, filter models.FeePaymentFilter) ([]models.FeePaymentView, error) {
	query := `SELECT ` + prefixed("f", feeColumns) + `, s.student_id AS student_code, s.full_name AS student_name, s.class
FROM fee_payments f
JOIN students s ON s.id = f.student_id
WHERE 1=1`
	var args []interface{}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		query += fmt.Sprintf(" AND f.student_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND f.status = $%d", len(args))
	}
	query += " ORDER BY f.due_date DESC, s.full_name ASC"

	var payments []models.FeePaymentView
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// FindByID returns a payment by id.
func (r *FeeRepository) FindByID(ctx context.Context, id string) (*models.FeePayment, error) {
	query := `SELECT ` + feeColumns + ` FROM fee_payments WHERE id = $1`
	var payment models.FeePayment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &payment, nil
}

// Create inserts a payment.
func (r *FeeRepository) Create(ctx context.Context, payment *models.FeePayment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	query := `INSERT INTO fee_payments (` + feeColumns + `) VALUES (:id, :student_id, :fee_type, :amount, :due_date, :payment_date, :status, :transaction_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return wrapWrite("create payment", err)
	}
	return nil
}

// MarkPaid moves a not-yet-paid payment to paid. It returns sql.ErrNoRows
// when the payment does not exist or is already paid.
func (r *FeeRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time, transactionID *string) error {
	const query = `UPDATE fee_payments SET status = 'paid', payment_date = $2, transaction_id = COALESCE($3, transaction_id), updated_at = NOW()
WHERE id = $1 AND status IN ('pending', 'overdue', 'partial')`
	res, err := r.db.ExecContext(ctx, query, id, paidAt, transactionID)
	if err != nil {
		return fmt.Errorf("mark payment paid: %w", err)
	}
	return expectAffected(res, "mark payment paid")
}

// CountOutstanding returns the number of pending or overdue payments school-wide.
func (r *FeeRepository) CountOutstanding(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM fee_payments WHERE status IN ('pending', 'overdue')`); err != nil {
		return 0, fmt.Errorf("count outstanding payments: %w", err)
	}
	return total, nil
}

// RemindedSince returns which of paymentIDs already have a reminder created at or after since.
func (r *FeeRepository) RemindedSince(ctx context.Context, paymentIDs []string, since time.Time) ([]string, error) {
	if len(paymentIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT DISTINCT fee_payment_id FROM payment_reminders WHERE fee_payment_id = ANY($1::uuid[]) AND created_at >= $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(paymentIDs), since); err != nil {
		return nil, fmt.Errorf("recent reminders: %w", err)
	}
	return ids, nil
}

// CreateReminders inserts all reminders in a single statement and transaction.
func (r *FeeRepository) CreateReminders(ctx context.Context, reminders []models.PaymentReminder) error {
	if len(reminders) == 0 {
		return nil
	}
	const cols = 8
	now := time.Now().UTC()
	args := make([]interface{}, 0, len(reminders)*cols)
	for i := range reminders {
		rem := &reminders[i]
		if rem.ID == "" {
			rem.ID = uuid.NewString()
		}
		rem.CreatedAt = now
		args = append(args, rem.ID, rem.StudentID, rem.FeePaymentID, rem.ReminderDate, rem.ReminderType, rem.Message, rem.IsSent, rem.CreatedAt)
	}
	query := `INSERT INTO payment_reminders (id, student_id, fee_payment_id, reminder_date, reminder_type, message, is_sent, created_at) VALUES ` +
		placeholders(len(reminders), cols)

	return inTx(ctx, r.db, "create reminders", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert reminders: %w", err)
		}
		return nil
	})
}
