package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/handler"
	"github.com/noah-isme/school-portal-api/internal/middleware"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-portal-api/pkg/middleware/requestid"
	"github.com/noah-isme/school-portal-api/pkg/observability"
)

// SessionResolver turns a request token into the current principal.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.Principal, bool)
}

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Registration  *handler.RegistrationHandler
	Students      *handler.StudentHandler
	Attendance    *handler.AttendanceHandler
	Payments      *handler.PaymentHandler
	Announcements *handler.AnnouncementHandler
	Media         *handler.MediaHandler
	Website       *handler.WebsiteHandler
	Dashboards    *handler.DashboardHandler
	Exports       *handler.ExportHandler
	Health        *handler.HealthHandler
}

// Options configures the router.
type Options struct {
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Sessions       SessionResolver
	CookieName     string
	AllowedOrigins []string
	EnableDocs     bool
	Handlers       Handlers
}

// New builds the gin engine with the global middleware chain and every route.
func New(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	h := opts.Handlers

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(observability.GinMiddleware())
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Session(opts.Sessions, opts.CookieName))

	r.GET("/health", h.Health.Live)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", h.Health.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/", h.Website.Homepage)
	r.GET("/media/*path", h.Media.Serve)
	r.GET("/exports/download/:token", h.Exports.Download)

	anyRole := middleware.RequireRole(models.AllRoles...)
	auth := r.Group("/auth")
	{
		guest := middleware.RedirectIfAuthenticated()
		auth.GET("/login", guest, h.Auth.Page)
		auth.GET("/sign-up", guest, h.Auth.Page)
		auth.POST("/login", guest, h.Auth.Login)
		auth.POST("/sign-up", guest, h.Auth.SignUp)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", anyRole, h.Auth.Logout)
		auth.GET("/me", anyRole, h.Auth.Me)
	}

	r.GET("/admin", middleware.RequirePageRole(models.RoleAdmin), h.Dashboards.Admin)
	r.GET("/admin/attendance", middleware.RequirePageRole(models.RoleAdmin), h.Attendance.Page)
	r.GET("/parent", middleware.RequirePageRole(models.RoleParent), h.Dashboards.Parent)
	r.GET("/student", middleware.RequirePageRole(models.RoleStudent), h.Dashboards.Student)

	api := r.Group("/api/admin", middleware.Audit(opts.Logger))

	admin := api.Group("", middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/attendance", h.Attendance.Mark)
		admin.GET("/attendance/history", h.Attendance.History)
		admin.GET("/attendance/students", h.Attendance.Roster)
		admin.POST("/attendance/export", h.Exports.Create)
		admin.GET("/exports/:id", h.Exports.Status)

		admin.GET("/users", h.Users.List)
		admin.POST("/users", h.Users.Create)

		admin.POST("/register/student", h.Registration.Student)
		admin.POST("/register/parent", h.Registration.Parent)

		admin.GET("/students", h.Students.List)
		admin.POST("/students", h.Students.Create)
		admin.PUT("/students/:id", h.Students.Update)
		admin.DELETE("/students/:id", h.Students.Delete)

		admin.GET("/payments", h.Payments.List)
		admin.POST("/payments", h.Payments.Create)
		admin.POST("/payments/reminder", h.Payments.SendReminder)
		admin.PUT("/payments/:id", h.Payments.MarkPaid)

		admin.GET("/announcements", h.Announcements.List)
		admin.POST("/announcements", h.Announcements.Create)
		admin.DELETE("/announcements/:id", h.Announcements.Delete)

		admin.GET("/gallery", h.Media.GalleryList)
		admin.POST("/gallery/upload", h.Media.GalleryUpload)
		admin.DELETE("/gallery/:id", h.Media.GalleryDelete)
		admin.POST("/upload", h.Media.Upload)

		admin.GET("/metrics/snapshot", h.Health.Snapshot)

		site := admin.Group("/website-builder")
		site.GET("", h.Website.Builder)
		site.POST("/theme", h.Website.SaveTheme)
		site.PUT("/settings", h.Website.UpdateSettings)
		site.POST("/sections", h.Website.UpdateSections)
		site.POST("/links", h.Website.CreateLink)
		site.DELETE("/links/:id", h.Website.DeleteLink)
		site.POST("/buttons", h.Website.CreateButton)
		site.DELETE("/buttons/:id", h.Website.DeleteButton)
		site.POST("/events", h.Website.CreateEvent)
		site.DELETE("/events/:id", h.Website.DeleteEvent)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return r
}
