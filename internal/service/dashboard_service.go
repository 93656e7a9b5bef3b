package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

const (
	recentMarksLimit          = 5
	recentAttendanceLimit     = 10
	dashboardAnnouncementsMax = 20
)

type dashboardStudentRepository interface {
	Count(ctx context.Context) (int, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
	ChildrenOfParentUser(ctx context.Context, userID string) ([]models.Student, error)
}

type dashboardUserCounter interface {
	CountByRole(ctx context.Context) (map[models.Role]int, error)
}

type dashboardParentRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Parent, error)
	Count(ctx context.Context) (int, error)
}

type dashboardAttendanceRepository interface {
	SummaryForStudent(ctx context.Context, studentID string) (models.AttendanceSummary, error)
	RecentForStudent(ctx context.Context, studentID string, limit int) ([]models.AttendanceRecord, error)
}

type dashboardMarkRepository interface {
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.Mark, error)
}

type dashboardFeeRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.FeePayment, error)
	CountOutstanding(ctx context.Context) (int, error)
}

type dashboardAnnouncementRepository interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, error)
	CountPublished(ctx context.Context) (int, error)
}

type dashboardTimetableRepository interface {
	ForClass(ctx context.Context, class string, section *string) ([]models.TimetableEntry, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Students      dashboardStudentRepository
	Users         dashboardUserCounter
	Parents       dashboardParentRepository
	Attendance    dashboardAttendanceRepository
	Marks         dashboardMarkRepository
	Fees          dashboardFeeRepository
	Announcements dashboardAnnouncementRepository
	Timetable     dashboardTimetableRepository
	Cache         *CacheService
	Logger        *zap.Logger
	Config        DashboardServiceConfig
}

// DashboardService composes the role landing pages.
type DashboardService struct {
	students      dashboardStudentRepository
	users         dashboardUserCounter
	parents       dashboardParentRepository
	attendance    dashboardAttendanceRepository
	marks         dashboardMarkRepository
	fees          dashboardFeeRepository
	announcements dashboardAnnouncementRepository
	timetable     dashboardTimetableRepository
	cache         *CacheService
	logger        *zap.Logger
	cfg           DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students:      params.Students,
		users:         params.Users,
		parents:       params.Parents,
		attendance:    params.Attendance,
		marks:         params.Marks,
		fees:          params.Fees,
		announcements: params.Announcements,
		timetable:     params.Timetable,
		cache:         params.Cache,
		logger:        logger,
		cfg:           cfg,
	}
}

// Admin returns admin dashboard counts and indicates cache utilisation.
func (s *DashboardService) Admin(ctx context.Context) (*dto.AdminDashboardResponse, bool, error) {
	var cached dto.AdminDashboardResponse
	if s.cache.Get(ctx, cacheKeyAdminDashboard, &cached) {
		return &cached, true, nil
	}

	var stats dto.AdminStats
	var err error
	if stats.TotalStudents, err = s.students.Count(ctx); err != nil {
		return nil, false, s.internal("count students", err)
	}
	roles, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, false, s.internal("count users", err)
	}
	stats.TotalTeachers = roles[models.RoleTeacher]
	if stats.TotalParents, err = s.parents.Count(ctx); err != nil {
		return nil, false, s.internal("count parents", err)
	}
	if stats.PublishedAnnouncements, err = s.announcements.CountPublished(ctx); err != nil {
		return nil, false, s.internal("count announcements", err)
	}
	if stats.OutstandingPayments, err = s.fees.CountOutstanding(ctx); err != nil {
		return nil, false, s.internal("count outstanding payments", err)
	}

	summary := &dto.AdminDashboardResponse{Stats: stats}
	s.cache.Set(ctx, cacheKeyAdminDashboard, summary, s.cfg.CacheTTL)
	return summary, false, nil
}

// Parent returns the dashboard of the parent owning userID. childID selects
// one of the parent's linked students; an empty or foreign id falls back to
// the first child.
func (s *DashboardService) Parent(ctx context.Context, userID, childID string) (*dto.ParentDashboardResponse, error) {
	parent, err := s.parents.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Parent profile not found")
		}
		return nil, s.internal("load parent", err)
	}
	children, err := s.students.ChildrenOfParentUser(ctx, userID)
	if err != nil {
		return nil, s.internal("load children", err)
	}
	if children == nil {
		children = []models.Student{}
	}
	announcements, err := s.announcementsFor(ctx, models.AudienceParents)
	if err != nil {
		return nil, err
	}

	resp := &dto.ParentDashboardResponse{Parent: *parent, Children: children, Announcements: announcements}
	if selected := selectChild(children, childID); selected != nil {
		overview, err := s.overview(ctx, *selected)
		if err != nil {
			return nil, err
		}
		resp.SelectedChild = overview
	}
	return resp, nil
}

// Student returns the dashboard of the student owning userID.
func (s *DashboardService) Student(ctx context.Context, userID string) (*dto.StudentDashboardResponse, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student profile not found")
		}
		return nil, s.internal("load student", err)
	}
	overview, err := s.overview(ctx, *student)
	if err != nil {
		return nil, err
	}
	announcements, err := s.announcementsFor(ctx, models.AudienceStudents)
	if err != nil {
		return nil, err
	}
	periods, err := s.timetable.ForClass(ctx, student.Class, student.Section)
	if err != nil {
		return nil, s.internal("class timetable", err)
	}
	return &dto.StudentDashboardResponse{
		StudentOverview: *overview,
		Announcements:   announcements,
		Timetable:       models.GroupTimetable(periods),
	}, nil
}

func (s *DashboardService) overview(ctx context.Context, student models.Student) (*dto.StudentOverview, error) {
	summary, err := s.attendance.SummaryForStudent(ctx, student.ID)
	if err != nil {
		return nil, s.internal("attendance summary", err)
	}
	summary.Percentage = AttendancePercentage(summary)
	recent, err := s.attendance.RecentForStudent(ctx, student.ID, recentAttendanceLimit)
	if err != nil {
		return nil, s.internal("recent attendance", err)
	}
	if recent == nil {
		recent = []models.AttendanceRecord{}
	}
	marks, err := s.marks.ListByStudent(ctx, student.ID, recentMarksLimit)
	if err != nil {
		return nil, s.internal("recent marks", err)
	}
	payments, err := s.fees.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, s.internal("student payments", err)
	}
	if payments == nil {
		payments = []models.FeePayment{}
	}

	pending := 0
	for _, p := range payments {
		if p.Status.Outstanding() {
			pending++
		}
	}
	return &dto.StudentOverview{
		Student:          student,
		Attendance:       summary,
		RecentAttendance: recent,
		Marks:            SummarizeMarks(marks),
		Payments:         payments,
		PaymentSummary:   SummarizePayments(payments),
		PendingCount:     pending,
	}, nil
}

func (s *DashboardService) announcementsFor(ctx context.Context, audience models.Audience) ([]models.Announcement, error) {
	rows, err := s.announcements.List(ctx, models.AnnouncementFilter{Audience: &audience, PublishedOnly: true, Limit: dashboardAnnouncementsMax})
	if err != nil {
		return nil, s.internal("list announcements", err)
	}
	if rows == nil {
		rows = []models.Announcement{}
	}
	return rows, nil
}

func (s *DashboardService) internal(op string, err error) error {
	s.logger.Error("dashboard query failed", zap.String("op", op), zap.Error(err))
	return appErrors.Internal(err, "failed to load dashboard")
}

// AttendancePercentage is present days over recorded days, rounded half up to
// a whole percent. No records yields 0.
func AttendancePercentage(summary models.AttendanceSummary) int {
	if summary.Total <= 0 {
		return 0
	}
	return (summary.Present*200 + summary.Total) / (2 * summary.Total)
}

// SummarizeMarks averages the percentage of each mark, rounded to a whole percent.
func SummarizeMarks(marks []models.Mark) models.MarkSummary {
	if marks == nil {
		marks = []models.Mark{}
	}
	summary := models.MarkSummary{Recent: marks, AveragePercentage: decimal.Zero}
	if len(marks) == 0 {
		return summary
	}
	total := decimal.Zero
	for _, m := range marks {
		if m.TotalMarks.IsZero() {
			continue
		}
		total = total.Add(m.MarksObtained.Div(m.TotalMarks).Mul(decimal.NewFromInt(100)))
	}
	summary.AveragePercentage = total.Div(decimal.NewFromInt(int64(len(marks)))).Round(0)
	return summary
}

func selectChild(children []models.Student, childID string) *models.Student {
	if len(children) == 0 {
		return nil
	}
	for i := range children {
		if children[i].ID == childID {
			return &children[i]
		}
	}
	return &children[0]
}
