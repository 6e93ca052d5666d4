// Package handler exposes the admin service over HTTP. Every JSON response
// uses the envelope {success, message|error, details?, data?}.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"evaladmin/internal/admin"
	"evaladmin/internal/apperr"
	"evaladmin/internal/auth"
	"evaladmin/internal/identity"
	"evaladmin/internal/imageproxy"
)

// Tokens configures the admin bearer tokens.
type Tokens struct {
	Issuer     string
	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) bool

type Config struct {
	Service        *admin.Service
	Admin          auth.Admin
	Tokens         Tokens
	Proxy          *imageproxy.Client
	Log            *zap.Logger
	MaxImageBytes  int64
	MaxImportBytes int64
	Health         map[string]HealthCheck
}

type Handler struct {
	svc    *admin.Service
	admin  auth.Admin
	tokens Tokens
	proxy  *imageproxy.Client
	log    *zap.Logger
	health map[string]HealthCheck

	maxImageBytes  int64
	maxImportBytes int64
}

func New(cfg Config) *Handler {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = 5 << 20
	}
	if cfg.MaxImportBytes <= 0 {
		cfg.MaxImportBytes = 10 << 20
	}
	return &Handler{
		svc:            cfg.Service,
		admin:          cfg.Admin,
		tokens:         cfg.Tokens,
		proxy:          cfg.Proxy,
		log:            cfg.Log,
		health:         cfg.Health,
		maxImageBytes:  cfg.MaxImageBytes,
		maxImportBytes: cfg.MaxImportBytes,
	}
}

// Register mounts every route on r. /v1 routes other than login and the
// image proxy require an admin bearer token.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.healthz)

	pub := r.Group("/v1")
	pub.POST("/auth/login", h.login)
	pub.GET("/images/proxy", h.proxyImage)

	v1 := r.Group("/v1", auth.AdminAuth(h.tokens.SigningKey, h.tokens.Issuer))
	v1.POST("/auth/password", h.updatePassword)

	v1.GET("/professors", h.listProfessors)
	v1.POST("/professors", h.createProfessor)
	v1.GET("/professors/:id", h.getProfessor)
	v1.PUT("/professors/:id", h.updateProfessor)
	v1.DELETE("/professors/:id", h.deleteProfessor)
	v1.POST("/professors/bulk-delete", h.deleteProfessors)
	v1.POST("/professors/:id/image", h.uploadImage)

	v1.GET("/students", h.listStudents)
	v1.POST("/students", h.createStudent)
	v1.GET("/students/:id", h.getStudent)
	v1.PUT("/students/:id", h.updateStudent)
	v1.DELETE("/students/:id", h.deleteStudent)
	v1.POST("/students/bulk-delete", h.deleteStudents)
	v1.GET("/students/:id/progress", h.studentProgress)
	v1.GET("/progress", h.allProgress)

	v1.GET("/questions", h.listQuestions)
	v1.POST("/questions", h.createQuestion)
	v1.PUT("/questions", h.updateQuestion)
	v1.DELETE("/questions", h.deleteQuestion)

	v1.GET("/departments", h.listDepartments)
	v1.POST("/departments", h.createDepartment)
	v1.PUT("/departments/:id", h.updateDepartment)
	v1.DELETE("/departments/:id", h.deleteDepartment)

	v1.POST("/imports/:kind", h.importSheet)

	v1.GET("/history", h.historyTree)
	v1.GET("/history/:year/:period/:department/:professor", h.professorHistory)
}

func ok(c *gin.Context, status int, message string, data any) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// fail maps err to a status code and a user-safe message.
func (h *Handler) fail(c *gin.Context, err error) {
	body := gin.H{"success": false}
	status := http.StatusInternalServerError

	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		if len(ve.Fields) > 0 {
			body["details"] = ve.Fields
		}
	case errors.Is(err, identity.ErrUserNotFound):
		status = http.StatusNotFound
		body["error"] = "no account exists for this email"
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperr.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	if _, set := body["error"]; !set {
		body["error"] = apperr.Sanitize(err)
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func badRequest(msg string) error { return apperr.NewValidationError(msg) }

func (h *Handler) healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.health {
		healthy := check(c.Request.Context())
		body[name] = healthy
		if !healthy {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}
