package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of a fee payment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusOverdue PaymentStatus = "overdue"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPartial PaymentStatus = "partial"
)

// Valid reports whether s is a known status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusOverdue, PaymentStatusPaid, PaymentStatusPartial:
		return true
	}
	return false
}

// Outstanding reports whether the payment still counts as owed.
func (s PaymentStatus) Outstanding() bool {
	return s == PaymentStatusPending || s == PaymentStatusOverdue
}

// FeePayment is one fee owed by a student.
type FeePayment struct {
	ID            string          `db:"id" json:"id"`
	StudentID     string          `db:"student_id" json:"student_id"`
	FeeType       string          `db:"fee_type" json:"fee_type"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	DueDate       Date            `db:"due_date" json:"due_date"`
	PaymentDate   *time.Time      `db:"payment_date" json:"payment_date,omitempty"`
	Status        PaymentStatus   `db:"status" json:"status"`
	TransactionID *string         `db:"transaction_id" json:"transaction_id,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// FeePaymentView adds the owning student's identity for admin listings.
type FeePaymentView struct {
	FeePayment
	StudentCode string `db:"student_code" json:"student_code"`
	StudentName string `db:"student_name" json:"student_name"`
	Class       string `db:"class" json:"class"`
}

// FeePaymentFilter captures admin listing filters.
type FeePaymentFilter struct {
	StudentID string
	Status    *PaymentStatus
}

// PaymentSummary totals a list of payments in exact decimal arithmetic.
type PaymentSummary struct {
	TotalPending decimal.Decimal `json:"totalPending"`
	TotalPaid    decimal.Decimal `json:"totalPaid"`
}

// ReminderType classifies a reminder by its payment's status.
type ReminderType string

const (
	ReminderTypePending ReminderType = "pending"
	ReminderTypeOverdue ReminderType = "overdue"
)

// ReminderTypeFor maps a payment status to its reminder category.
func ReminderTypeFor(status PaymentStatus) ReminderType {
	if status == PaymentStatusOverdue {
		return ReminderTypeOverdue
	}
	return ReminderTypePending
}

// PaymentReminder is a persisted notice of an outstanding payment.
type PaymentReminder struct {
	ID           string       `db:"id" json:"id"`
	StudentID    string       `db:"student_id" json:"student_id"`
	FeePaymentID string       `db:"fee_payment_id" json:"fee_payment_id"`
	ReminderDate Date         `db:"reminder_date" json:"reminder_date"`
	ReminderType ReminderType `db:"reminder_type" json:"reminder_type"`
	Message      string       `db:"message" json:"message"`
	IsSent       bool         `db:"is_sent" json:"is_sent"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// ReminderResult reports what a reminder request did.
type ReminderResult struct {
	Created int      `json:"created"`
	Skipped []string `json:"skipped"`
}
