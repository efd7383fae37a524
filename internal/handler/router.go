// Package handler serves the backend operations over HTTP with gin.
package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/auth"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/backend"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/httpmiddleware"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Config wires a router.
type Config struct {
	Backend     *backend.Backend
	Issuer      *auth.Issuer
	Logger      *zap.Logger
	Limiter     *httpmiddleware.TokenBucket
	CORSOrigins []string
	Checks      map[string]HealthCheck
	// Metrics is served at /metrics when set.
	Metrics http.Handler
}

// Handler adapts backend operations to gin handlers.
type Handler struct {
	b      *backend.Backend
	log    *zap.Logger
	checks map[string]HealthCheck
}

// NewRouter builds the engine with middleware, probes and the /api routes.
func NewRouter(cfg Config) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = httpmiddleware.NewTokenBucket(0, 0, nil)
	}
	h := &Handler{b: cfg.Backend, log: log, checks: cfg.Checks}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(log, "/healthz", "/metrics"))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(httpmiddleware.SecurityHeaders())

	r.GET("/healthz", h.Healthz)
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	api := r.Group("/api")

	public := api.Group("", limiter.GinMiddleware())
	public.POST("/auth/login", h.Login)
	public.POST("/auth/register", h.Register)
	public.POST("/auth/refresh", h.Refresh)

	member := api.Group("", auth.Bearer(cfg.Issuer), limiter.GinMiddleware())
	member.GET("/auth/me", h.Profile)
	member.POST("/auth/change-password", h.ChangePassword)
	member.GET("/meetings", h.ListMeetings)
	member.GET("/meetings/upcoming", h.UpcomingMeetings)
	member.GET("/meetings/:id", h.GetMeeting)
	member.GET("/announcements/active", h.ActiveAnnouncements)
	member.GET("/announcements/unread-count", h.UnreadAnnouncements)
	member.POST("/announcements/:id/read", h.MarkAnnouncementRead)
	member.GET("/projects", h.ListProjects)
	member.GET("/projects/:id", h.GetProject)
	member.GET("/notifications", h.ListNotifications)
	member.GET("/notifications/unread-count", h.UnreadNotifications)
	member.POST("/notifications/:id/read", h.MarkNotificationRead)
	member.GET("/documents", h.ListDocuments)
	member.POST("/documents", h.UploadDocument)
	member.GET("/documents/:id", h.DownloadDocument)

	parent := member.Group("/me", auth.RequireRole(string(model.RoleParent)))
	parent.GET("/children", h.MyChildren)
	parent.GET("/attendance", h.MyAttendance)
	parent.GET("/balance", h.MyBalance)
	parent.POST("/contributions", h.CreateContribution)
	parent.GET("/clearance", h.MyClearance)
	parent.POST("/clearance", h.RequestClearance)
	parent.POST("/projects/:id/join", h.JoinProject)
	parent.POST("/projects/:id/leave", h.LeaveProject)

	admin := member.Group("", auth.RequireRole(string(model.RoleAdmin)))
	admin.GET("/users", h.ListUsers)
	admin.POST("/users", h.CreateUser)
	admin.GET("/users/:id", h.GetUser)
	admin.PUT("/users/:id", h.UpdateUser)
	admin.PATCH("/users/:id/active", h.SetUserActive)
	admin.DELETE("/users/:id", h.DeleteUser)

	admin.GET("/students", h.ListStudents)
	admin.POST("/students", h.CreateStudent)
	admin.GET("/students/:id", h.GetStudent)
	admin.PUT("/students/:id", h.UpdateStudent)
	admin.PUT("/students/:id/parent", h.LinkStudent)
	admin.DELETE("/students/:id", h.DeleteStudent)

	admin.POST("/meetings", h.CreateMeeting)
	admin.PATCH("/meetings/:id/status", h.UpdateMeetingStatus)
	admin.GET("/meetings/:id/attendance", h.MeetingAttendance)
	admin.POST("/meetings/:id/attendance", h.RecordAttendance)

	admin.GET("/contributions", h.ListContributions)
	admin.POST("/contributions/:id/verify", h.VerifyContribution)

	admin.GET("/announcements", h.ListAnnouncements)
	admin.POST("/announcements", h.CreateAnnouncement)
	admin.POST("/announcements/:id/publish", h.PublishAnnouncement)
	admin.POST("/announcements/:id/archive", h.ArchiveAnnouncement)
	admin.PATCH("/announcements/:id/featured", h.FeatureAnnouncement)

	admin.POST("/projects", h.CreateProject)
	admin.PATCH("/projects/:id/status", h.UpdateProjectStatus)

	admin.GET("/clearances", h.ListClearances)
	admin.POST("/clearances/:id/approve", h.ApproveClearance)
	admin.POST("/clearances/:id/reject", h.RejectClearance)
	admin.GET("/clearances/:id/certificate", h.ClearanceCertificate)

	admin.GET("/reports/attendance", h.AttendanceReport)
	admin.GET("/reports/contributions", h.ContributionReport)
	admin.GET("/dashboard", h.Dashboard)
	admin.POST("/reminders", h.SendReminder)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Healthz reports each dependency; any failure turns the probe 503.
func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.checks {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}
