package signal

// handleAttendee lets an attendee act on its own entity only.
func (ctl *SignalWSController) handleAttendee(s *session, msg inbound) error {
	roomID, id := s.entity.Room().ID(), s.entity.ID()
	switch msg.Type {
	case "raiseHand":
		return ctl.Orch.RaiseHand(s.req, roomID, id)
	case "dismissHand":
		return ctl.Orch.DismissHand(s.req, roomID, id)
	default:
		return errUnknownAction
	}
}
