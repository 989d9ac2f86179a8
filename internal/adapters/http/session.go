package http

import (
	"net/http"
	"time"

	"github.com/dkeye/clicker/internal/app"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type SessionRequest struct {
	Username string `json:"username"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login creates a guest identity for this browser, or renames the existing one.
func (h *Handlers) Login(c *gin.Context) {
	var req SessionRequest
	if err := bindOptional(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	sess := sessions.Default(c)
	sid, _ := sess.Get(sessionKey).(string)
	if sid == "" {
		sid = uuid.NewString()
	}
	u := h.Users.GetOrCreate(sid)
	if req.Username != "" {
		renamed, err := h.Users.Rename(sid, req.Username)
		if err != nil {
			h.fail(c, app.Reject(err))
			return
		}
		u = renamed
	}

	sess.Set(sessionKey, sid)
	if err := sess.Save(); err != nil {
		h.fail(c, err)
		return
	}
	log.Info().Str("module", "adapters.http").Str("user", string(u.ID)).Msg("guest session")
	c.JSON(http.StatusOK, u)
}

func (h *Handlers) Me(c *gin.Context) {
	u, err := h.Orch.Guards.User(c.Request)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Token issues a bearer token for the current user.
func (h *Handlers) Token(c *gin.Context) {
	u, err := h.Orch.Guards.User(c.Request)
	if err != nil {
		h.fail(c, err)
		return
	}
	now := time.Now()
	token, err := h.Signer.Sign(u, now)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{Token: token, ExpiresAt: now.Add(h.Signer.TTL()).UTC()})
}
