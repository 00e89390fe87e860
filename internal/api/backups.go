package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) backupsEnabled(c *gin.Context) bool {
	if h.Backups == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backups não configurados"})
		return false
	}
	return true
}

func (h *Handler) ListBackups(c *gin.Context) {
	if !h.backupsEnabled(c) {
		return
	}
	list, err := h.Backups.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateBackup(c *gin.Context) {
	if !h.backupsEnabled(c) {
		return
	}
	info, err := h.Backups.Create(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, info)
}

func (h *Handler) RestoreBackup(c *gin.Context) {
	if !h.backupsEnabled(c) {
		return
	}
	if err := h.Backups.Restore(c.Request.Context(), c.Param("name")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "restaurado"})
}
