package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-portal-api/internal/models"
)

const attendanceColumns = `id, student_id, date, status, notes, marked_by, created_at, updated_at`

// AttendanceRepository persists daily attendance keyed on (student_id, date).
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert writes every entry in one statement inside a transaction. Existing
// rows for a (student_id, date) key are overwritten, others inserted. Either
// all entries are stored or none are. Entries must not repeat a key.
func (r *AttendanceRepository) Upsert(ctx context.Context, entries []models.AttendanceEntry) error {
	if len(entries) == 0 {
		return nil
	}

	const cols = 7
	now := time.Now().UTC()
	args := make([]interface{}, 0, len(entries)*cols)
	for _, e := range entries {
		args = append(args, uuid.NewString(), e.StudentID, e.Date, e.Status, e.Notes, e.MarkedBy, now)
	}
	query := `INSERT INTO attendance (id, student_id, date, status, notes, marked_by, updated_at) VALUES ` +
		placeholders(len(entries), cols) + `
ON CONFLICT (student_id, date) DO UPDATE SET
	status = EXCLUDED.status,
	notes = EXCLUDED.notes,
	marked_by = EXCLUDED.marked_by,
	updated_at = EXCLUDED.updated_at`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance upsert: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance upsert: %w", err)
	}
	committed = true
	return nil
}

// ListForClassDate returns stored rows for students of class on date.
func (r *AttendanceRepository) ListForClassDate(ctx context.Context, class string, date models.Date) ([]models.AttendanceRecord, error) {
	query := `SELECT ` + prefixed("a", attendanceColumns) + ` FROM attendance a
JOIN students s ON s.id = a.student_id
WHERE s.class = $1 AND a.date = $2`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, class, date); err != nil {
		return nil, fmt.Errorf("list attendance for class: %w", err)
	}
	return records, nil
}

// History returns rows in the inclusive date range joined with student identity, newest first.
func (r *AttendanceRepository) History(ctx context.Context, filter models.AttendanceHistoryFilter) ([]models.AttendanceHistoryRow, error) {
	query := `SELECT ` + prefixed("a", attendanceColumns) + `, s.student_id AS student_code, s.full_name AS student_name, s.class, s.roll_number
FROM attendance a
JOIN students s ON s.id = a.student_id
WHERE a.date >= $1 AND a.date <= $2`
	args := []interface{}{filter.StartDate, filter.EndDate}
	if filter.Class != "" {
		args = append(args, filter.Class)
		query += fmt.Sprintf(" AND s.class = $%d", len(args))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		query += fmt.Sprintf(" AND a.student_id = $%d", len(args))
	}
	query += " ORDER BY a.date DESC, s.class ASC, s.roll_number ASC NULLS LAST"

	var rows []models.AttendanceHistoryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("attendance history: %w", err)
	}
	return rows, nil
}

// SummaryForStudent counts a student's records per status.
func (r *AttendanceRepository) SummaryForStudent(ctx context.Context, studentID string) (models.AttendanceSummary, error) {
	const query = `SELECT status, COUNT(*) AS total FROM attendance WHERE student_id = $1 GROUP BY status`
	var rows []struct {
		Status models.AttendanceStatus `db:"status"`
		Total  int                     `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return models.AttendanceSummary{}, fmt.Errorf("attendance summary: %w", err)
	}
	var summary models.AttendanceSummary
	for _, row := range rows {
		switch row.Status {
		case models.AttendanceStatusPresent:
			summary.Present = row.Total
		case models.AttendanceStatusAbsent:
			summary.Absent = row.Total
		case models.AttendanceStatusLate:
			summary.Late = row.Total
		case models.AttendanceStatusExcused:
			summary.Excused = row.Total
		}
		summary.Total += row.Total
	}
	return summary, nil
}

// RecentForStudent returns the latest limit rows for a student.
func (r *AttendanceRepository) RecentForStudent(ctx context.Context, studentID string, limit int) ([]models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE student_id = $1 ORDER BY date DESC LIMIT $2`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("recent attendance: %w", err)
	}
	return records, nil
}
