package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPaymentStatusOutstanding(t *testing.T) {
	assert.True(t, PaymentStatusPending.Outstanding())
	assert.True(t, PaymentStatusOverdue.Outstanding())
	assert.False(t, PaymentStatusPaid.Outstanding())
	assert.False(t, PaymentStatusPartial.Outstanding())
	assert.False(t, PaymentStatus("refunded").Valid())
}

func TestReminderTypeFor(t *testing.T) {
	assert.Equal(t, ReminderTypeOverdue, ReminderTypeFor(PaymentStatusOverdue))
	assert.Equal(t, ReminderTypePending, ReminderTypeFor(PaymentStatusPending))
}

func TestMarkPercentage(t *testing.T) {
	m := Mark{MarksObtained: decimal.NewFromInt(45), TotalMarks: decimal.NewFromInt(60)}
	assert.Equal(t, "75", m.Percentage().String())

	assert.True(t, Mark{MarksObtained: decimal.NewFromInt(1)}.Percentage().IsZero())
}
