package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type dashboardStudents struct {
	count    int
	byUser   map[string]models.Student
	children map[string][]models.Student
}

func (d *dashboardStudents) Count(ctx context.Context) (int, error) { return d.count, nil }

func (d *dashboardStudents) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	if s, ok := d.byUser[userID]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (d *dashboardStudents) ChildrenOfParentUser(ctx context.Context, userID string) ([]models.Student, error) {
	return d.children[userID], nil
}

type dashboardUsers map[models.Role]int

func (d dashboardUsers) CountByRole(ctx context.Context) (map[models.Role]int, error) { return d, nil }

type dashboardParents struct {
	byUser map[string]models.Parent
	count  int
}

func (d *dashboardParents) FindByUserID(ctx context.Context, userID string) (*models.Parent, error) {
	if p, ok := d.byUser[userID]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (d *dashboardParents) Count(ctx context.Context) (int, error) { return d.count, nil }

type dashboardAttendance map[string]models.AttendanceSummary

func (d dashboardAttendance) SummaryForStudent(ctx context.Context, studentID string) (models.AttendanceSummary, error) {
	return d[studentID], nil
}

func (d dashboardAttendance) RecentForStudent(ctx context.Context, studentID string, limit int) ([]models.AttendanceRecord, error) {
	return nil, nil
}

type dashboardMarks map[string][]models.Mark

func (d dashboardMarks) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.Mark, error) {
	return d[studentID], nil
}

type dashboardFees struct {
	*fakeFeeRepo
}

func (d dashboardFees) CountOutstanding(ctx context.Context) (int, error) {
	n := 0
	for _, p := range d.payments {
		if p.Status.Outstanding() {
			n++
		}
	}
	return n, nil
}

type dashboardAnnouncements struct {
	*fakeAnnouncementRepo
	published int
}

func (d dashboardAnnouncements) CountPublished(ctx context.Context) (int, error) {
	return d.published, nil
}

type dashboardTimetable map[string][]models.TimetableEntry

func (d dashboardTimetable) ForClass(ctx context.Context, class string, section *string) ([]models.TimetableEntry, error) {
	return d[class], nil
}

func mark(obtained, total string) models.Mark {
	return models.Mark{MarksObtained: decimal.RequireFromString(obtained), TotalMarks: decimal.RequireFromString(total)}
}

func dashboardFixture(cache *CacheService) (*DashboardService, *dashboardStudents) {
	childA := models.Student{ID: studentA, StudentID: "S-1", FullName: "Asha", Class: "10A"}
	childB := models.Student{ID: studentB, StudentID: "S-2", FullName: "Bilal", Class: "8B"}
	students := &dashboardStudents{
		count:    42,
		byUser:   map[string]models.Student{"user-student": childA},
		children: map[string][]models.Student{"user-parent": {childA, childB}},
	}
	fees := newFakeFeeRepo(
		payment("p1", "Tuition", "500", "pending"),
		payment("p2", "Transport", "300", "overdue"),
		payment("p3", "Library", "200", "paid"),
	)
	svc := NewDashboardService(DashboardServiceParams{
		Students:   students,
		Users:      dashboardUsers{models.RoleTeacher: 7, models.RoleAdmin: 1},
		Parents:    &dashboardParents{byUser: map[string]models.Parent{"user-parent": {ID: "par-1", UserID: "user-parent", FullName: "Rina"}}, count: 30},
		Attendance: dashboardAttendance{studentA: {Present: 7, Absent: 1, Total: 8}, studentB: {Present: 1, Absent: 2, Total: 3}},
		Marks:      dashboardMarks{studentA: {mark("45", "50"), mark("70", "100")}},
		Fees:       dashboardFees{fees},
		Announcements: dashboardAnnouncements{fakeAnnouncementRepo: &fakeAnnouncementRepo{items: []models.Announcement{
			{ID: "a1", Title: "all", Published: true, TargetAudience: []string{"all"}},
			{ID: "a2", Title: "parents", Published: true, TargetAudience: []string{"parents"}},
			{ID: "a3", Title: "students", Published: true, TargetAudience: []string{"students"}},
		}}, published: 3},
		Timetable: dashboardTimetable{"10A": {
			{ID: "tt1", Class: "10A", DayOfWeek: 1, PeriodNumber: 1, Subject: "Maths"},
			{ID: "tt2", Class: "10A", DayOfWeek: 1, PeriodNumber: 2, Subject: "History"},
			{ID: "tt3", Class: "10A", DayOfWeek: 2, PeriodNumber: 1, Subject: "Biology"},
		}},
		Cache:  cache,
		Logger: zap.NewNop(),
	})
	return svc, students
}

func TestAttendancePercentage(t *testing.T) {
	assert.Equal(t, 0, AttendancePercentage(models.AttendanceSummary{}))
	assert.Equal(t, 88, AttendancePercentage(models.AttendanceSummary{Present: 7, Total: 8}))
	assert.Equal(t, 13, AttendancePercentage(models.AttendanceSummary{Present: 1, Total: 8}))
	assert.Equal(t, 100, AttendancePercentage(models.AttendanceSummary{Present: 4, Total: 4}))
}

func TestSummarizeMarks(t *testing.T) {
	empty := SummarizeMarks(nil)
	assert.True(t, empty.AveragePercentage.IsZero())
	assert.NotNil(t, empty.Recent)

	summary := SummarizeMarks([]models.Mark{mark("45", "50"), mark("70", "100")})
	assert.Equal(t, "80", summary.AveragePercentage.String())
}

func TestAdminDashboardIsCached(t *testing.T) {
	repo := newMemoryCache()
	svc, students := dashboardFixture(newTestCache(repo))
	ctx := context.Background()

	first, hit, err := svc.Admin(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 42, first.Stats.TotalStudents)
	assert.Equal(t, 7, first.Stats.TotalTeachers)
	assert.Equal(t, 30, first.Stats.TotalParents)
	assert.Equal(t, 3, first.Stats.PublishedAnnouncements)
	assert.Equal(t, 2, first.Stats.OutstandingPayments)

	students.count = 99
	second, hit, err := svc.Admin(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42, second.Stats.TotalStudents)
}

func TestParentDashboardSelectsChild(t *testing.T) {
	svc, _ := dashboardFixture(nil)
	ctx := context.Background()

	resp, err := svc.Parent(ctx, "user-parent", "")
	require.NoError(t, err)
	require.NotNil(t, resp.SelectedChild)
	assert.Equal(t, studentA, resp.SelectedChild.Student.ID)
	assert.Equal(t, 88, resp.SelectedChild.Attendance.Percentage)
	assert.Equal(t, "800", resp.SelectedChild.PaymentSummary.TotalPending.String())
	assert.Equal(t, 2, resp.SelectedChild.PendingCount)
	assert.Len(t, resp.Children, 2)
	assert.Len(t, resp.Announcements, 2)

	resp, err = svc.Parent(ctx, "user-parent", studentB)
	require.NoError(t, err)
	assert.Equal(t, studentB, resp.SelectedChild.Student.ID)
	assert.Equal(t, 33, resp.SelectedChild.Attendance.Percentage)

	resp, err = svc.Parent(ctx, "user-parent", ghost)
	require.NoError(t, err)
	assert.Equal(t, studentA, resp.SelectedChild.Student.ID)
}

func TestParentDashboardWithoutProfile(t *testing.T) {
	svc, _ := dashboardFixture(nil)

	_, err := svc.Parent(context.Background(), "user-nobody", "")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestStudentDashboard(t *testing.T) {
	svc, _ := dashboardFixture(nil)

	resp, err := svc.Student(context.Background(), "user-student")
	require.NoError(t, err)
	assert.Equal(t, "Asha", resp.Student.FullName)
	assert.Equal(t, "80", resp.Marks.AveragePercentage.String())
	require.Len(t, resp.Announcements, 2)
	assert.Equal(t, "students", resp.Announcements[1].Title)
	require.Len(t, resp.Timetable, 2)
	assert.Equal(t, "Monday", resp.Timetable[0].Day)
	assert.Len(t, resp.Timetable[0].Periods, 2)
	assert.Equal(t, "Biology", resp.Timetable[1].Periods[0].Subject)

	_, err = svc.Student(context.Background(), "user-parent")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
