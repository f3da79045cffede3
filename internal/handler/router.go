// Package handler exposes the REST API over gin.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"buzzatt/internal/attendance"
	"buzzatt/internal/auth"
	"buzzatt/internal/httpmiddleware"
	"buzzatt/internal/logger"
	"buzzatt/internal/metrics"
	"buzzatt/internal/model"
)

// AuthService is the subset of auth.Service the API uses.
type AuthService interface {
	auth.Authenticator
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	Register(ctx context.Context, in auth.RegisterInput) (model.User, error)
	Logout(ctx context.Context, claims auth.Claims) error
}

// AttendanceService is the subset of attendance.Service the API uses.
type AttendanceService interface {
	SaveSession(ctx context.Context, creatorEmail string, p attendance.SessionPayload) (attendance.SaveResult, error)
	ListSessions(ctx context.Context, f attendance.Filter) (attendance.Report, error)
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the router.
type Deps struct {
	Auth         AuthService
	Attendance   AttendanceService
	DB           Pinger
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	AllowOrigins []string
	// HSTS adds Strict-Transport-Security to every response.
	HSTS bool
}

// Handler serves the API routes.
type Handler struct {
	auth       AuthService
	attendance AttendanceService
	db         Pinger
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &Handler{auth: d.Auth, attendance: d.Attendance, db: d.DB}

	r := gin.New()
	r.Use(httpmiddleware.RequestID(d.Logger))
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.FromContext(c.Request.Context()).Error("panic recovered", "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	}))
	r.Use(httpmiddleware.AccessLog("/health", "/metrics"))
	r.Use(httpmiddleware.Metrics(d.Metrics))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", httpmiddleware.RequestIDHeader},
		ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(httpmiddleware.SecurityHeaders(d.HSTS))

	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	r.GET("/health", h.health)

	authGroup := r.Group("/auth")
	authGroup.POST("/login", h.login)
	authGroup.POST("/register", h.register)
	authGroup.POST("/logout", auth.Bearer(d.Auth), h.logout)

	lecturer := r.Group("/lecturer/attendance", auth.Bearer(d.Auth), auth.RequireProfile(model.ProfileLecturer))
	lecturer.POST("/save-session", h.saveSession)
	lecturer.GET("/sessions", h.listSessions)

	return r
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		logger.FromContext(ctx).Error("health check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Database connection failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "connected"})
}
