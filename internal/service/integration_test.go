//go:build integration

package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	"github.com/noah-isme/school-portal-api/internal/testutil/testdb"
)

var pg *testdb.Handle

func TestMain(m *testing.M) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		panic(err)
	}
	pg = h
	code := m.Run()
	h.Close()
	os.Exit(code)
}

func seedStudent(t *testing.T, studentID, class string) (*models.User, *models.Student) {
	t.Helper()
	ctx := context.Background()
	user := &models.User{Email: studentID + "@school.test", PasswordHash: "x", FullName: "Teacher " + studentID, Role: models.RoleTeacher, Active: true}
	require.NoError(t, repository.NewUserRepository(pg.DB).Create(ctx, user))
	student := &models.Student{StudentID: studentID, FullName: "Student " + studentID, Class: class}
	require.NoError(t, repository.NewStudentRepository(pg.DB).Create(ctx, student))
	return user, student
}

func disabledCache() *CacheService {
	return NewCacheService(nil, nil, time.Minute, nil, false)
}

func TestIntegrationAttendanceUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	teacher, student := seedStudent(t, "S-100", "7A")
	svc := NewAttendanceService(repository.NewAttendanceRepository(pg.DB), repository.NewStudentRepository(pg.DB), nil, disabledCache(), nil, nil)

	mark := func(status string) {
		require.NoError(t, svc.Mark(ctx, MarkAttendanceRequest{Records: []AttendanceRecordInput{
			{StudentID: student.ID, Date: "2024-03-04", Status: status},
		}}, teacher.ID))
	}
	mark("absent")
	mark("late")

	roster, err := svc.ClassRoster(ctx, "7A", "2024-03-04")
	require.NoError(t, err)
	require.Len(t, roster.ExistingAttendance, 1)
	assert.Equal(t, models.AttendanceStatusLate, roster.ExistingAttendance[0].Status)
}

func TestIntegrationAttendanceBatchIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	teacher, student := seedStudent(t, "S-200", "8B")
	repo := repository.NewAttendanceRepository(pg.DB)
	date, _ := models.ParseDate("2024-03-05")

	err := repo.Upsert(ctx, []models.AttendanceEntry{
		{StudentID: student.ID, Date: date, Status: models.AttendanceStatusPresent, MarkedBy: teacher.ID},
		{StudentID: "00000000-0000-0000-0000-000000000000", Date: date, Status: models.AttendanceStatusPresent, MarkedBy: teacher.ID},
	})
	require.Error(t, err)

	rows, err := repo.ListForClassDate(ctx, "8B", date)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestIntegrationRemindersRespectCooldown(t *testing.T) {
	ctx := context.Background()
	_, student := seedStudent(t, "S-300", "9C")
	fees := repository.NewFeeRepository(pg.DB)
	due, _ := models.ParseDate("2024-04-01")
	for _, p := range []models.FeePayment{
		{StudentID: student.ID, FeeType: "tuition", Amount: decimal.RequireFromString("100.10"), DueDate: due, Status: models.PaymentStatusPending},
		{StudentID: student.ID, FeeType: "bus", Amount: decimal.RequireFromString("50.20"), DueDate: due, Status: models.PaymentStatusOverdue},
		{StudentID: student.ID, FeeType: "books", Amount: decimal.RequireFromString("25"), DueDate: due, Status: models.PaymentStatusPaid},
	} {
		payment := p
		require.NoError(t, fees.Create(ctx, &payment))
	}

	svc := NewFeeService(fees, repository.NewStudentRepository(pg.DB), nil, disabledCache(), nil, nil, FeeConfig{ReminderCooldown: time.Hour, CurrencySymbol: "$"})

	first, err := svc.SendReminders(ctx, SendReminderRequest{StudentID: student.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	second, err := svc.SendReminders(ctx, SendReminderRequest{StudentID: student.ID})
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Len(t, second.Skipped, 2)

	_, summary, err := svc.ForStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("150.30").Equal(summary.TotalPending), summary.TotalPending.String())
	assert.True(t, decimal.RequireFromString("25").Equal(summary.TotalPaid), summary.TotalPaid.String())
}
