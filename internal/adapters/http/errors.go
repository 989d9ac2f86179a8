package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dkeye/clicker/internal/app"
	"github.com/dkeye/clicker/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Error  string     `json:"error"`
	Intent app.Intent `json:"intent"`
}

func statusOf(intent app.Intent) int {
	switch intent {
	case app.IntentNotFound:
		return http.StatusNotFound
	case app.IntentUnauthorized:
		return http.StatusUnauthorized
	case app.IntentConflict, app.IntentBanned, app.IntentClosed:
		return http.StatusConflict
	case app.IntentBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func redirectFor(r config.Redirects, intent app.Intent) string {
	switch intent {
	case app.IntentNotFound:
		return r.NotFound
	case app.IntentBanned:
		return r.Banned
	case app.IntentClosed:
		return r.Closed
	default:
		return ""
	}
}

// fail answers a rejected request: browsers navigating to a room are
// redirected to a page for the intent, everyone else gets JSON.
func (h *Handlers) fail(c *gin.Context, err error) {
	intent := app.IntentOf(err)
	if wantsHTML(c.Request) {
		if url := redirectFor(h.Redirects, intent); url != "" {
			c.Redirect(http.StatusSeeOther, url)
			c.Abort()
			return
		}
	}
	status := statusOf(intent)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("internal error")
		c.AbortWithStatusJSON(status, ErrorResponse{Error: "internal error", Intent: intent})
		return
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Intent: intent})
}

func wantsHTML(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}

// bindOptional decodes a JSON body if there is one.
func bindOptional(c *gin.Context, v any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return app.Reject(badRequest("invalid json body"))
	}
	return nil
}
