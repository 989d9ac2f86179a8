package signal

import (
	"fmt"
	"net/http"

	"github.com/dkeye/clicker/internal/core"
	"github.com/dkeye/clicker/internal/domain"
)

var errUnknownAction = fmt.Errorf("%w: unknown action", domain.ErrBadRequest)

// session is one attached WebSocket. req is the upgrade request; it keeps the
// caller's identity for the actions sent over the socket.
type session struct {
	ctl    *SignalWSController
	conn   *WsSignalConn
	req    *http.Request
	role   core.Role
	entity core.Entity
}

func (ctl *SignalWSController) handlePing(s *session) {
	s.reply(outbound{Type: "pong"})
}

func (ctl *SignalWSController) handleWhoAmI(s *session) {
	s.reply(outbound{Type: "whoami", Data: struct {
		User   domain.User   `json:"user"`
		Role   core.Role     `json:"role"`
		ID     core.EntityID `json:"id"`
		RoomID domain.RoomID `json:"room_id"`
	}{*s.entity.User(), s.role, s.entity.ID(), s.entity.Room().ID()}})
}
