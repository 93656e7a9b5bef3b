package dto

import "github.com/noah-isme/school-portal-api/internal/models"

// AdminDashboardResponse captures the aggregated admin dashboard payload.
type AdminDashboardResponse struct {
	Stats AdminStats `json:"stats"`
}

// AdminStats are headline counts for the admin landing page.
type AdminStats struct {
	TotalStudents          int `json:"totalStudents"`
	TotalTeachers          int `json:"totalTeachers"`
	TotalParents           int `json:"totalParents"`
	PublishedAnnouncements int `json:"publishedAnnouncements"`
	OutstandingPayments    int `json:"outstandingPayments"`
}

// StudentOverview is the per-student block shared by parent and student dashboards.
type StudentOverview struct {
	Student          models.Student            `json:"student"`
	Attendance       models.AttendanceSummary  `json:"attendance"`
	RecentAttendance []models.AttendanceRecord `json:"recentAttendance"`
	Marks            models.MarkSummary        `json:"marks"`
	Payments         []models.FeePayment       `json:"payments"`
	PaymentSummary   models.PaymentSummary     `json:"paymentSummary"`
	PendingCount     int                       `json:"pendingCount"`
}

// ParentDashboardResponse is the parent landing page. SelectedChild is nil
// when no student is linked to the parent.
type ParentDashboardResponse struct {
	Parent        models.Parent         `json:"parent"`
	Children      []models.Student      `json:"children"`
	SelectedChild *StudentOverview      `json:"selectedChild"`
	Announcements []models.Announcement `json:"announcements"`
}

// StudentDashboardResponse is the student landing page.
type StudentDashboardResponse struct {
	StudentOverview
	Announcements []models.Announcement `json:"announcements"`
	Timetable     []models.TimetableDay `json:"timetable"`
}

// HomepageResponse is everything the public homepage renders.
type HomepageResponse struct {
	Settings        models.SiteSettings      `json:"settings"`
	Theme           models.Theme             `json:"theme"`
	Sections        []models.HomepageSection `json:"sections"`
	Announcements   []models.Announcement    `json:"announcements"`
	Gallery         []models.GalleryImage    `json:"gallery"`
	NavigationLinks []models.CustomLink      `json:"navigationLinks"`
	FooterLinks     []models.CustomLink      `json:"footerLinks"`
	QuickLinks      []models.CustomLink      `json:"quickLinks"`
	Buttons         []models.CustomButton    `json:"buttons"`
	Events          []models.Event           `json:"events"`
}

// WebsiteBuilderResponse is the admin website builder state.
type WebsiteBuilderResponse struct {
	Config   models.SiteConfig        `json:"config"`
	Theme    models.Theme             `json:"theme"`
	Themes   []models.Theme           `json:"themes"`
	Sections []models.HomepageSection `json:"sections"`
	Links    []models.CustomLink      `json:"links"`
	Buttons  []models.CustomButton    `json:"buttons"`
	Events   []models.Event           `json:"events"`
}
