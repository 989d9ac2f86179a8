package signal

import (
	"github.com/dkeye/clicker/internal/core"
	"github.com/rs/zerolog/log"
)

// handlePresenter runs room actions through the same guards as HTTP.
func (ctl *SignalWSController) handlePresenter(s *session, msg inbound) error {
	roomID := s.entity.Room().ID()
	log.Debug().Str("module", "signal").Str("room_id", string(roomID)).Str("action", msg.Type).Msg("presenter action")

	switch msg.Type {
	case "updateTitle":
		return ctl.Orch.UpdateTitle(s.req, roomID, msg.Title)
	case "updateState":
		return ctl.Orch.UpdateState(s.req, roomID, msg.State)
	case "updatePIN":
		_, err := ctl.Orch.UpdatePIN(s.req, roomID, msg.PIN)
		return err
	case "approve":
		return ctl.Orch.Approve(s.req, roomID, msg.Attendee)
	case "ban":
		return ctl.Orch.Ban(s.req, roomID, msg.Attendee)
	case "kick":
		return ctl.Orch.Kick(s.req, roomID, msg.Attendee)
	case "dispose":
		return ctl.Orch.DisposeRoom(s.req, roomID)
	case "snapshot":
		snap, err := ctl.Orch.RoomInfo(s.req, roomID)
		if err == nil {
			s.reply(outbound{Type: "event", Event: core.EventSnapshot, Data: snap})
		}
		return err
	default:
		return errUnknownAction
	}
}
