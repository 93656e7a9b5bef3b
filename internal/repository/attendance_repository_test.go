package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
)

func mustDate(t *testing.T, raw string) models.Date {
	t.Helper()
	d, err := models.ParseDate(raw)
	require.NoError(t, err)
	return d
}

func TestAttendanceUpsertSingleStatement(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := mustDate(t, "2024-06-03")
	note := "doctor visit"
	entries := []models.AttendanceEntry{
		{StudentID: "s1", Date: date, Status: models.AttendanceStatusPresent, MarkedBy: "admin-1"},
		{StudentID: "s2", Date: date, Status: models.AttendanceStatusExcused, Notes: &note, MarkedBy: "admin-1"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance (id, student_id, date, status, notes, marked_by, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7), ($8, $9, $10, $11, $12, $13, $14)")+
		`\s+ON CONFLICT \(student_id, date\) DO UPDATE SET`).
		WithArgs(sqlmock.AnyArg(), "s1", "2024-06-03", models.AttendanceStatusPresent, nil, "admin-1", sqlmock.AnyArg(),
			sqlmock.AnyArg(), "s2", "2024-06-03", models.AttendanceStatusExcused, note, "admin-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.Upsert(context.Background(), entries))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceUpsertRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance").WillReturnError(errors.New("violates foreign key"))
	mock.ExpectRollback()

	err := repo.Upsert(context.Background(), []models.AttendanceEntry{
		{StudentID: "ghost", Date: mustDate(t, "2024-06-03"), Status: models.AttendanceStatusAbsent, MarkedBy: "a"},
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceUpsertEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	require.NoError(t, repo.Upsert(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceHistoryWithClass(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	cols := []string{"id", "student_id", "date", "status", "notes", "marked_by", "created_at", "updated_at", "student_code", "student_name", "class", "roll_number"}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.date >= $1 AND a.date <= $2 AND s.class = $3 ORDER BY a.date DESC")).
		WithArgs("2024-06-01", "2024-06-30", "10-A").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("a1", "s1", now, "late", nil, "admin-1", now, now, "STU001", "Asha", "10-A", "1"))

	rows, err := repo.History(context.Background(), models.AttendanceHistoryFilter{
		StartDate: mustDate(t, "2024-06-01"),
		EndDate:   mustDate(t, "2024-06-30"),
		Class:     "10-A",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "STU001", rows[0].StudentCode)
	assert.Equal(t, models.AttendanceStatusLate, rows[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceSummaryForStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS total FROM attendance WHERE student_id = $1 GROUP BY status")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "total"}).AddRow("present", 18).AddRow("absent", 2))

	summary, err := repo.SummaryForStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 18, summary.Present)
	assert.Equal(t, 2, summary.Absent)
	assert.Equal(t, 20, summary.Total)
}
