package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/celerix-dev/celerix-gestao/internal/session"
)

const (
	// SessionCookie carries the session token for browser clients.
	SessionCookie = "gestao_sessao"
	sessionKey    = "session"
	tokenKey      = "session_token"
)

type loginInput struct {
	Login    string `json:"usuario" binding:"required"`
	Password string `json:"senha" binding:"required"`
	Remember bool   `json:"lembrar"`
}

// sessionToken reads the token from the session cookie or, for non-browser
// clients, from an Authorization: Bearer header.
func sessionToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	token, _ := c.Cookie(SessionCookie)
	return token
}

func setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookie, token, maxAge, "/", "", c.Request.TLS != nil, true)
}

func (h *Handler) Login(c *gin.Context) {
	var in loginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, u, err := h.Session.Login(c.Request.Context(), h.Services.Users, in.Login, in.Password, in.Remember)
	if err != nil {
		h.fail(c, err)
		return
	}
	maxAge := 0
	if in.Remember {
		maxAge = int(u.ExpiresAt.Sub(u.LoginTimestamp).Seconds())
	}
	setSessionCookie(c, token, maxAge)
	c.JSON(http.StatusOK, gin.H{"token": token, "usuario": u})
}

func (h *Handler) SessionStatus(c *gin.Context) {
	m, ok := h.Session.Session(sessionToken(c), c.Request.URL.Path)
	if !ok {
		state := session.StateUnauthenticated
		if m != nil {
			state = m.State()
		}
		c.JSON(http.StatusOK, gin.H{
			"estado":      state,
			"autenticado": false,
			"aviso":       false,
			"persistente": false,
			"restante":    0,
			"redirect":    session.LoginPath,
		})
		return
	}

	resp := gin.H{
		"estado":      m.State(),
		"autenticado": true,
		"aviso":       m.Warning(),
		"persistente": m.Persistent(),
		"restante":    int64(m.Remaining().Seconds()),
	}
	if u, ok := m.User(); ok {
		resp["usuario"] = u
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Renew(c *gin.Context) {
	m := c.MustGet(sessionKey).(*session.Manager)
	u, err := m.Renew()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) Logout(c *gin.Context) {
	h.Session.Logout(c.GetString(tokenKey))
	setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"redirect": session.LoginPath})
}
