package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
)

var feeRowColumns = []string{"id", "student_id", "fee_type", "amount", "due_date", "payment_date", "status", "transaction_id", "created_at", "updated_at"}

func TestListOutstandingByStudentScansDecimal(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_id = $1 AND status IN ('pending', 'overdue')")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(feeRowColumns).
			AddRow("f1", "s1", "tuition", "1250.50", "2024-07-01", nil, "pending", nil, now, now).
			AddRow("f2", "s1", "transport", "300.25", "2024-05-01", nil, "overdue", nil, now, now))

	payments, err := repo.ListOutstandingByStudent(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "1250.5", payments[0].Amount.String())
	assert.Equal(t, "2024-05-01", payments[1].DueDate.String())
	assert.Equal(t, models.PaymentStatusOverdue, payments[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaidAlreadyPaid(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE fee_payments SET status = 'paid'")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkPaid(context.Background(), "f1", time.Now(), nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestMarkPaidStampsServerTime(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	paidAt := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	txn := "TXN-42"
	mock.ExpectExec(regexp.QuoteMeta("transaction_id = COALESCE($3, transaction_id), updated_at = NOW()")).
		WithArgs("f1", paidAt, "TXN-42").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkPaid(context.Background(), "f1", paidAt, &txn))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemindedSince(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	since := time.Now().Add(-24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT fee_payment_id FROM payment_reminders WHERE fee_payment_id = ANY($1::uuid[]) AND created_at >= $2")).
		WithArgs(sqlmock.AnyArg(), since).
		WillReturnRows(sqlmock.NewRows([]string{"fee_payment_id"}).AddRow("f2"))

	ids, err := repo.RemindedSince(context.Background(), []string{"f1", "f2"}, since)
	require.NoError(t, err)
	assert.Equal(t, []string{"f2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRemindersBatch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	day := mustDate(t, "2024-06-03")
	reminders := []models.PaymentReminder{
		{StudentID: "s1", FeePaymentID: "f1", ReminderDate: day, ReminderType: models.ReminderTypePending, Message: "m1", IsSent: true},
		{StudentID: "s1", FeePaymentID: "f2", ReminderDate: day, ReminderType: models.ReminderTypeOverdue, Message: "m2", IsSent: true},
		{StudentID: "s1", FeePaymentID: "f3", ReminderDate: day, ReminderType: models.ReminderTypePending, Message: "m3", IsSent: true},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payment_reminders (id, student_id, fee_payment_id, reminder_date, reminder_type, message, is_sent, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8), ($9,")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateReminders(context.Background(), reminders))
	for _, rem := range reminders {
		assert.NotEmpty(t, rem.ID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRemindersRollback(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payment_reminders").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.CreateReminders(context.Background(), []models.PaymentReminder{{StudentID: "s1", FeePaymentID: "f1", Message: "m"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
