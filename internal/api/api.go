// Package api is the HTTP surface of the back office: session endpoints,
// CRUD per collection, the dashboard, the audit log, backups and raw storage
// inspection.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/celerix-dev/celerix-gestao/internal/backup"
	"github.com/celerix-dev/celerix-gestao/internal/metrics"
	"github.com/celerix-dev/celerix-gestao/internal/services"
	"github.com/celerix-dev/celerix-gestao/internal/session"
	"github.com/celerix-dev/celerix-gestao/internal/validation"
	"github.com/celerix-dev/celerix-gestao/pkg/engine"
)

type Handler struct {
	Store    engine.Store
	Services *services.Services
	Session  *session.Registry
	Backups  *backup.Service  // optional
	Metrics  *metrics.Metrics // optional
	Log      *slog.Logger
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	if h.Log == nil {
		h.Log = slog.Default()
	}
	h.Log = h.Log.With(slog.String("component", "api"))

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), h.requestLogger())
	if h.Metrics != nil {
		r.Use(h.observe())
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")
	api.POST("/session/login", h.Login)
	api.GET("/session", h.SessionStatus)

	auth := api.Group("", h.requireSession())
	auth.POST("/session/logout", h.Logout)
	auth.POST("/session/renew", h.Renew)

	s := h.Services
	registerResource(h, auth, "veiculos", s.Vehicles)
	registerResource(h, auth, "funcionarios", s.Employees)
	registerResource(h, auth, "departamentos", s.Departments)
	registerResource(h, auth, "combustiveis", s.FuelTypes)
	registerResource(h, auth, "abastecimentos", s.FuelRecords)
	registerResource(h, auth, "solicitacoes", s.Requests)
	registerResource(h, auth, "diarios", s.Diaries)

	auth.GET("/usuarios", h.ListUsers)
	auth.GET("/usuarios/:id", h.GetUser)
	auth.POST("/usuarios", h.CreateUser)
	auth.PUT("/usuarios/:id", h.UpdateUser)
	auth.DELETE("/usuarios/:id", h.DeleteUser)

	auth.GET("/logs", h.ListLogs)
	auth.GET("/dashboard", h.Dashboard)

	auth.GET("/backups", h.ListBackups)
	auth.POST("/backups", h.CreateBackup)
	auth.POST("/backups/:name/restore", h.RestoreBackup)

	auth.GET("/storage", h.GetAreas)
	auth.GET("/storage/:area", h.GetArea)
	auth.GET("/storage/:area/:key", h.GetItem)
	auth.PUT("/storage/:area/:key", h.SetItem)
	auth.DELETE("/storage/:area/:key", h.RemoveItem)

	return r
}

// listParams reads page, pageSize and q; every other query parameter is an
// exact-match filter.
func listParams(c *gin.Context) services.ListParams {
	p := services.ListParams{Filters: map[string]string{}}
	for name, values := range c.Request.URL.Query() {
		if len(values) == 0 {
			continue
		}
		v := strings.TrimSpace(values[0])
		switch name {
		case "page":
			p.Page, _ = strconv.Atoi(v)
		case "pageSize":
			p.PageSize, _ = strconv.Atoi(v)
		case "q":
			p.Query = v
		default:
			if v != "" {
				p.Filters[name] = v
			}
		}
	}
	return p
}

func (h *Handler) Dashboard(c *gin.Context) {
	var ref time.Time
	if raw := c.Query("data"); raw != "" {
		t, err := time.Parse(validation.DateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "data deve estar no formato DD/MM/AAAA"})
			return
		}
		ref = t
	}
	d, err := h.Services.Dashboard.Get(c.Request.Context(), ref)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) ListLogs(c *gin.Context) {
	page, err := h.Services.Logs.List(c.Request.Context(), listParams(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
