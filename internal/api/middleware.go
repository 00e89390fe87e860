package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/celerix-dev/celerix-gestao/internal/database"
	"github.com/celerix-dev/celerix-gestao/internal/session"
	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// requestID reuses an incoming X-Request-ID or issues a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.Log.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String(requestIDKey, c.GetString(requestIDKey)))
	}
}

func (h *Handler) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		h.Metrics.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// requireSession checks the caller's own session for every protected
// request and attributes writes to the signed-in user.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		m, ok := h.Session.Session(token, c.Request.URL.Path)
		var u schema.SessionUser
		if ok {
			u, ok = m.User()
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "sessão expirada ou inexistente",
				"redirect": session.LoginPath,
			})
			return
		}
		if m.Warning() {
			c.Header("X-Session-Warning", "true")
		}
		c.Set(sessionKey, m)
		c.Set(tokenKey, token)
		ctx := database.WithActor(c.Request.Context(), u.Username)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
