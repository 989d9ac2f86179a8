package domain

type AttendeeState string

const (
	AttendeeAwaiting  AttendeeState = "awaiting"
	AttendeeConnected AttendeeState = "connected"
	AttendeeBanned    AttendeeState = "banned"
	AttendeeKicked    AttendeeState = "kicked"
)

// Live reports whether the attendee still holds a place in the room.
func (s AttendeeState) Live() bool {
	return s == AttendeeAwaiting || s == AttendeeConnected
}

// CheckTransition validates an attendee move from s to next.
// Banned and kicked are terminal for the entity; the user may come back as a new one.
func (s AttendeeState) CheckTransition(next AttendeeState) error {
	if !s.Live() {
		return ErrEntityGone
	}
	switch next {
	case AttendeeConnected:
		if s == AttendeeConnected {
			return ErrAlreadyAdmitted
		}
		return nil
	case AttendeeBanned, AttendeeKicked:
		return nil
	case AttendeeAwaiting:
		return ErrInvalidTransition
	default:
		return ErrInvalidState
	}
}

// AdmissionFor decides the initial state of a joining attendee.
// approved tells whether the user was already admitted to this room before.
func AdmissionFor(room RoomState, approved, banned bool) (AttendeeState, error) {
	switch {
	case room == RoomDisposed:
		return "", ErrRoomDisposed
	case banned:
		return "", ErrAttendeeBanned
	case room == RoomPermissive || approved:
		return AttendeeConnected, nil
	case room == RoomLocked:
		return "", ErrRoomLocked
	default:
		return AttendeeAwaiting, nil
	}
}
