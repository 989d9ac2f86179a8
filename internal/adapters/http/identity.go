package http

import (
	"net/http"
	"strings"

	"github.com/dkeye/clicker/internal/app"
	"github.com/dkeye/clicker/internal/auth"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const sessionKey = "sid"

// Identity resolves the caller from a bearer header, an access_token query
// parameter (EventSource and WebSocket can't set headers) or the session
// cookie, in that order. A presented but invalid token is rejected outright.
func Identity(users *app.Users, signer *auth.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, presented := bearerToken(c)
		if presented {
			u, err := signer.Parse(token)
			if err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("invalid token")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token", "intent": app.IntentUnauthorized})
				return
			}
			c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), u))
			c.Next()
			return
		}

		if sid, ok := sessions.Default(c).Get(sessionKey).(string); ok && sid != "" {
			if u, ok := users.Get(sid); ok {
				c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), u))
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token), true
		}
		return "", true
	}
	if t := c.Query("access_token"); t != "" {
		return t, true
	}
	return "", false
}
