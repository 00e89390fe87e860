package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/celerix-dev/celerix-gestao/internal/database"
	"github.com/celerix-dev/celerix-gestao/internal/session"
	"github.com/celerix-dev/celerix-gestao/pkg/engine"
)

// hiddenKey reports whether a raw read must not expose key: session records
// carry other callers' tokens.
func hiddenKey(key string) bool {
	return strings.HasPrefix(key, session.TokenKeyPrefix) || key == session.UserKey
}

// redact strips the password hashes from the root database blob.
func redact(area, key, value string) (string, error) {
	if area != engine.AreaLocal || key != database.RootKey {
		return value, nil
	}
	var root map[string]json.RawMessage
	if err := json.Unmarshal([]byte(value), &root); err != nil {
		return "", err
	}
	var users []map[string]json.RawMessage
	if raw, ok := root["usuarios"]; ok {
		if err := json.Unmarshal(raw, &users); err != nil {
			return "", err
		}
	}
	for _, u := range users {
		delete(u, "senhaHash")
	}
	if users != nil {
		raw, err := json.Marshal(users)
		if err != nil {
			return "", err
		}
		root["usuarios"] = raw
	}
	out, err := json.Marshal(root)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (h *Handler) GetAreas(c *gin.Context) {
	areas, err := h.Store.Areas()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, areas)
}

// GetArea returns every key of an area with its value decoded. Session
// records are left out and password hashes are stripped.
func (h *Handler) GetArea(c *gin.Context) {
	data, err := h.Store.Dump(c.Param("area"))
	if err != nil {
		h.fail(c, err)
		return
	}
	area := c.Param("area")
	out := make(map[string]json.RawMessage, len(data))
	for k, v := range data {
		if hiddenKey(k) {
			continue
		}
		if v, err = redact(area, k, v); err != nil {
			h.fail(c, err)
			return
		}
		out[k] = json.RawMessage(v)
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetItem(c *gin.Context) {
	area, key := c.Param("area"), c.Param("key")
	if hiddenKey(key) {
		h.fail(c, engine.ErrKeyNotFound)
		return
	}
	val, err := h.Store.GetItem(area, key)
	if err == nil {
		val, err = redact(area, key, val)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(val))
}

// SetItem stores the raw request body. It must be valid JSON.
func (h *Handler) SetItem(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.SetItem(c.Param("area"), c.Param("key"), string(body)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) RemoveItem(c *gin.Context) {
	if err := h.Store.RemoveItem(c.Param("area"), c.Param("key")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
