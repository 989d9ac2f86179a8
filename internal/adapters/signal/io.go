package signal

import (
	"encoding/json"
	"time"

	"github.com/dkeye/clicker/internal/app"
	"github.com/dkeye/clicker/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// outbound is every message the server writes.
type outbound struct {
	Type   string         `json:"type"`
	Event  core.EventName `json:"event,omitempty"`
	Data   any            `json:"data,omitempty"`
	Action string         `json:"action,omitempty"`
	Intent app.Intent     `json:"intent,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// inbound is every message a client may send. Fields are action specific.
type inbound struct {
	Type     string        `json:"type"`
	Title    string        `json:"title"`
	State    string        `json:"state"`
	PIN      string        `json:"pin"`
	Attendee core.EntityID `json:"attendee"`
}

func encode(v outbound) ([]byte, error) {
	return json.Marshal(v)
}

func (ctl *SignalWSController) writePump(c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case data := <-c.send:
			if !write(c.conn, data) {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case <-c.done:
			for {
				select {
				case data := <-c.send:
					if !write(c.conn, data) {
						return
					}
				default:
					msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
					_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
					return
				}
			}
		}
	}
}

func write(ws *websocket.Conn, data []byte) bool {
	if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
		return false
	}
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("writePump write error")
		return false
	}
	return true
}

func (ctl *SignalWSController) readPump(s *session) {
	ws := s.conn.conn
	pongWait := ctl.opts.PingPeriod * 10 / 9
	ws.SetReadLimit(ctl.opts.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	defer log.Info().Str("module", "signal").Str("role", string(s.role)).Uint64("entity_id", uint64(s.entity.ID())).Msg("readPump closing")
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "signal").Msg("readPump read error")
			}
			return
		}
		if !ctl.handleSignal(s, data) {
			return
		}
	}
}

// handleSignal dispatches one client message and reports whether the socket
// should stay open.
func (ctl *SignalWSController) handleSignal(s *session, data []byte) bool {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json")
		s.reply(outbound{Type: "error", Intent: app.IntentBadRequest, Error: "bad_payload"})
		return true
	}

	switch msg.Type {
	case "ping":
		ctl.handlePing(s)
		return true
	case "whoami":
		ctl.handleWhoAmI(s)
		return true
	case "leave":
		return false
	}

	var err error
	switch s.role {
	case core.RolePresenter:
		err = ctl.handlePresenter(s, msg)
	case core.RoleAttendee:
		err = ctl.handleAttendee(s, msg)
	default:
		err = errUnknownAction
	}
	s.ack(msg.Type, err)
	return true
}

func (s *session) ack(action string, err error) {
	if err == nil {
		s.reply(outbound{Type: "ack", Action: action})
		return
	}
	s.reply(outbound{Type: "error", Action: action, Intent: app.IntentOf(err), Error: err.Error()})
}

func (s *session) reply(v outbound) {
	b, err := encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("reply marshal")
		return
	}
	if err := s.conn.trySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("type", v.Type).Msg("reply dropped")
	}
}
