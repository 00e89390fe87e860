package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/celerix-dev/celerix-gestao/internal/backup"
	"github.com/celerix-dev/celerix-gestao/internal/database"
	"github.com/celerix-dev/celerix-gestao/internal/services"
	"github.com/celerix-dev/celerix-gestao/internal/session"
	"github.com/celerix-dev/celerix-gestao/internal/validation"
	"github.com/celerix-dev/celerix-gestao/pkg/engine"
)

// fail writes err with the status its kind maps to.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "dados inválidos", "campos": verr.Fields})
	case errors.Is(err, database.ErrNotFound),
		errors.Is(err, backup.ErrNotFound),
		errors.Is(err, engine.ErrKeyNotFound),
		errors.Is(err, engine.ErrAreaNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrInvalidKey),
		errors.Is(err, engine.ErrInvalidValue),
		errors.Is(err, backup.ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrLastAdmin):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "usuário ou senha inválidos"})
	case errors.Is(err, session.ErrUserInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "usuário inativo"})
	case errors.Is(err, session.ErrNoSession):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "redirect": session.LoginPath})
	default:
		h.Log.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erro interno"})
	}
}
