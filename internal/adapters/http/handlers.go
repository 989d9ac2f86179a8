package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dkeye/clicker/internal/adapters/sse"
	"github.com/dkeye/clicker/internal/app"
	"github.com/dkeye/clicker/internal/app/orch"
	"github.com/dkeye/clicker/internal/auth"
	"github.com/dkeye/clicker/internal/config"
	"github.com/dkeye/clicker/internal/core"
	"github.com/dkeye/clicker/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Orch       *orch.Orchestrator
	Users      *app.Users
	Signer     *auth.Signer
	Redirects  config.Redirects
	PingPeriod time.Duration
	SendBuffer int
}

type TitleRequest struct {
	Title string `json:"title"`
}

type StateRequest struct {
	State string `json:"state"`
}

type PINRequest struct {
	PIN string `json:"pin"`
}

func badRequest(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrBadRequest, msg)
}

func roomID(c *gin.Context) domain.RoomID { return domain.RoomID(c.Param("roomID")) }

func attendeeID(c *gin.Context) (core.EntityID, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, app.Reject(badRequest("attendee id"))
	}
	return core.EntityID(id), nil
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": h.Orch.Rooms.Len()})
}

func (h *Handlers) CreateRoom(c *gin.Context) {
	var req TitleRequest
	if err := bindOptional(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	room, err := h.Orch.CreateRoom(c.Request, req.Title)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, room.View())
}

func (h *Handlers) RoomInfo(c *gin.Context) {
	snap, err := h.Orch.RoomInfo(c.Request, roomID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handlers) Discover(c *gin.Context) {
	d, err := h.Orch.Discover(c.Request, c.Param("pin"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handlers) DisposeRoom(c *gin.Context) {
	if err := h.Orch.DisposeRoom(c.Request, roomID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) UpdateTitle(c *gin.Context) {
	var req TitleRequest
	if err := bindOptional(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.Orch.UpdateTitle(c.Request, roomID(c), req.Title); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) UpdateState(c *gin.Context) {
	var req StateRequest
	if err := bindOptional(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.Orch.UpdateState(c.Request, roomID(c), req.State); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) UpdatePIN(c *gin.Context) {
	var req PINRequest
	if err := bindOptional(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	pin, err := h.Orch.UpdatePIN(c.Request, roomID(c), req.PIN)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, core.PINPayload{PIN: pin})
}

// moderate runs a presenter action on one attendee.
func (h *Handlers) moderate(act func(*http.Request, domain.RoomID, core.EntityID) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := attendeeID(c)
		if err != nil {
			h.fail(c, err)
			return
		}
		if err := act(c.Request, roomID(c), id); err != nil {
			h.fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *Handlers) Approve() gin.HandlerFunc     { return h.moderate(h.Orch.Approve) }
func (h *Handlers) Ban() gin.HandlerFunc         { return h.moderate(h.Orch.Ban) }
func (h *Handlers) Kick() gin.HandlerFunc        { return h.moderate(h.Orch.Kick) }
func (h *Handlers) RaiseHand() gin.HandlerFunc   { return h.moderate(h.Orch.RaiseHand) }
func (h *Handlers) DismissHand() gin.HandlerFunc { return h.moderate(h.Orch.DismissHand) }

func (h *Handlers) PresenterEvents(c *gin.Context) {
	title := c.Query("title")
	h.stream(c, core.RolePresenter, func(conn core.Connection) (core.Entity, error) {
		return h.Orch.ConnectPresenter(c.Request, title, conn)
	})
}

func (h *Handlers) PresenterAttachEvents(c *gin.Context) {
	h.stream(c, core.RolePresenter, func(conn core.Connection) (core.Entity, error) {
		return h.Orch.AttachPresenter(c.Request, roomID(c), conn)
	})
}

func (h *Handlers) AttendeeEvents(c *gin.Context) {
	pin := c.Param("pin")
	h.stream(c, core.RoleAttendee, func(conn core.Connection) (core.Entity, error) {
		return h.Orch.ConnectAttendee(c.Request, pin, conn)
	})
}

func (h *Handlers) DisplayEvents(c *gin.Context) {
	h.stream(c, core.RoleDisplay, func(conn core.Connection) (core.Entity, error) {
		return h.Orch.ConnectDisplay(c.Request, roomID(c), conn)
	})
}

// stream attaches an SSE connection and holds the request open until either
// side ends it. The entity is disposed on the way out.
func (h *Handlers) stream(c *gin.Context, role core.Role, connect func(core.Connection) (core.Entity, error)) {
	conn := sse.NewConn(h.SendBuffer)
	entity, err := connect(conn)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer entity.Dispose()

	logger := log.With().Str("module", "adapters.http").Str("role", string(role)).
		Uint64("entity_id", uint64(entity.ID())).Str("room_id", string(entity.Room().ID())).Logger()
	logger.Info().Msg("sse connected")
	conn.Stream(c, h.PingPeriod)
	logger.Info().Msg("sse closed")
}
