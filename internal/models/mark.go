package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mark is a read-only exam result.
type Mark struct {
	ID            string          `db:"id" json:"id"`
	StudentID     string          `db:"student_id" json:"student_id"`
	Subject       string          `db:"subject" json:"subject"`
	ExamName      string          `db:"exam_name" json:"exam_name"`
	ExamDate      *Date           `db:"exam_date" json:"exam_date,omitempty"`
	MarksObtained decimal.Decimal `db:"marks_obtained" json:"marks_obtained"`
	TotalMarks    decimal.Decimal `db:"total_marks" json:"total_marks"`
	Grade         *string         `db:"grade" json:"grade,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Percentage returns the mark as a percentage of total, rounded to 2 places.
func (m Mark) Percentage() decimal.Decimal {
	if m.TotalMarks.IsZero() {
		return decimal.Zero
	}
	return m.MarksObtained.Div(m.TotalMarks).Mul(decimal.NewFromInt(100)).Round(2)
}

// MarkSummary holds recent marks and their average percentage.
type MarkSummary struct {
	Recent            []Mark          `json:"recent"`
	AveragePercentage decimal.Decimal `json:"averagePercentage"`
}
