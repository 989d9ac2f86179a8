// Package signal serves room connections over WebSocket. Events flow out as
// {"type":"event"} messages; clients send role actions back on the same socket.
package signal

import (
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/clicker/internal/app"
	"github.com/dkeye/clicker/internal/app/orch"
	"github.com/dkeye/clicker/internal/core"
	"github.com/dkeye/clicker/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultReadLimit  = 32 << 10
	DefaultPingPeriod = 54 * time.Second
	DefaultSendBuffer = 64

	writeWait = 5 * time.Second
)

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = DefaultReadLimit
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = DefaultPingPeriod
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = DefaultSendBuffer
	}
	return o
}

type SignalWSController struct {
	Orch *orch.Orchestrator
	opts Options
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	return &SignalWSController{Orch: o, opts: opts.withDefaults()}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WsSignalConn is a core.Connection over one WebSocket. Only writePump writes
// to the socket once the entity is attached.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{conn: ws, send: make(chan []byte, buffer), done: make(chan struct{})}
}

func (c *WsSignalConn) Send(ev core.Event) error {
	b, err := encode(outbound{Type: "event", Event: ev.Name, Data: ev.Data})
	if err != nil {
		return err
	}
	return c.trySend(b)
}

func (c *WsSignalConn) trySend(b []byte) error {
	select {
	case <-c.done:
		return core.ErrConnectionClosed
	default:
	}
	select {
	case c.send <- b:
		return nil
	default:
		return core.ErrBackpressure
	}
}

// Abort asks writePump to flush what is queued and close the socket.
func (c *WsSignalConn) Abort() {
	c.once.Do(func() { close(c.done) })
}

func (ctl *SignalWSController) HandlePresenter(c *gin.Context) {
	title := c.Query("title")
	ctl.serve(c, core.RolePresenter, func(conn core.Connection) (core.Entity, error) {
		return ctl.Orch.ConnectPresenter(c.Request, title, conn)
	})
}

func (ctl *SignalWSController) HandlePresenterAttach(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomID"))
	ctl.serve(c, core.RolePresenter, func(conn core.Connection) (core.Entity, error) {
		return ctl.Orch.AttachPresenter(c.Request, roomID, conn)
	})
}

func (ctl *SignalWSController) HandleAttendee(c *gin.Context) {
	pin := c.Param("pin")
	ctl.serve(c, core.RoleAttendee, func(conn core.Connection) (core.Entity, error) {
		return ctl.Orch.ConnectAttendee(c.Request, pin, conn)
	})
}

func (ctl *SignalWSController) HandleDisplay(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomID"))
	ctl.serve(c, core.RoleDisplay, func(conn core.Connection) (core.Entity, error) {
		return ctl.Orch.ConnectDisplay(c.Request, roomID, conn)
	})
}

// serve upgrades, attaches the entity and blocks until the socket is done. A
// rejected connection gets an error message and a close frame instead.
func (ctl *SignalWSController) serve(c *gin.Context, role core.Role, connect func(core.Connection) (core.Entity, error)) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	conn := newWsSignalConn(ws, ctl.opts.SendBuffer)

	entity, err := connect(conn)
	if err != nil {
		log.Info().Err(err).Str("module", "signal").Str("role", string(role)).Msg("ws connection rejected")
		reject(ws, err)
		return
	}
	sess := &session{ctl: ctl, conn: conn, req: c.Request, role: role, entity: entity}
	log.Info().Str("module", "signal").Str("role", string(role)).Uint64("entity_id", uint64(entity.ID())).Str("room_id", string(entity.Room().ID())).Msg("new WS connection")

	var g errgroup.Group
	g.Go(func() error {
		ctl.writePump(conn)
		return nil
	})
	ctl.readPump(sess)
	entity.Dispose()
	conn.Abort()
	_ = g.Wait()
}

func reject(ws *websocket.Conn, err error) {
	defer ws.Close()
	intent := app.IntentOf(err)
	deadline := time.Now().Add(writeWait)
	_ = ws.SetWriteDeadline(deadline)
	if b, encErr := encode(outbound{Type: "error", Intent: intent, Error: err.Error()}); encErr == nil {
		_ = ws.WriteMessage(websocket.TextMessage, b)
	}
	msg := websocket.FormatCloseMessage(closeCode(intent), string(intent))
	_ = ws.WriteControl(websocket.CloseMessage, msg, deadline)
}

// closeCode maps an intent to an application close code in the 4000 range,
// mirroring the HTTP status.
func closeCode(intent app.Intent) int {
	switch intent {
	case app.IntentBadRequest:
		return 4400
	case app.IntentUnauthorized:
		return 4401
	case app.IntentBanned:
		return 4403
	case app.IntentNotFound:
		return 4404
	case app.IntentConflict, app.IntentClosed:
		return 4409
	default:
		return websocket.CloseInternalServerErr
	}
}
