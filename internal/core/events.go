package core

import "github.com/dkeye/clicker/internal/domain"

type EventName string

const (
	EventSnapshot     EventName = "room.snapshot"
	EventTitleUpdate  EventName = "room.titleUpdate"
	EventStateUpdate  EventName = "room.stateUpdate"
	EventPINUpdate    EventName = "room.pinUpdate"
	EventRoomDisposed EventName = "room.disposed"

	// Attendee-directed.
	EventAttendeeApproved EventName = "attendee.approved"
	EventAttendeeBanned   EventName = "attendee.banned"
	EventAttendeeKicked   EventName = "attendee.kicked"

	// Presenter-directed roster changes.
	EventAttendeeJoined EventName = "attendee.joined"
	EventAttendeeUpdate EventName = "attendee.update"
	EventAttendeeLeft   EventName = "attendee.left"
	EventDisplayJoined  EventName = "display.joined"
	EventDisplayLeft    EventName = "display.left"
)

// Event is what a Connection delivers: a name plus a JSON-encodable payload.
type Event struct {
	Name EventName `json:"event"`
	Data any       `json:"data"`
}

type TitlePayload struct {
	Title string `json:"title"`
}

type StatePayload struct {
	State domain.RoomState `json:"state"`
}

type PINPayload struct {
	PIN domain.PIN `json:"pin"`
}

type LeaveReason string

const (
	ReasonLeft   LeaveReason = "left"
	ReasonKicked LeaveReason = "kicked"
	ReasonBanned LeaveReason = "banned"
)

type LeftPayload struct {
	ID     EntityID    `json:"id"`
	Reason LeaveReason `json:"reason"`
}

type EntityRef struct {
	ID EntityID `json:"id"`
}

// AttendeeView is a read-only view of an attendee (no transport fields).
type AttendeeView struct {
	ID          EntityID             `json:"id"`
	User        domain.User          `json:"user"`
	State       domain.AttendeeState `json:"state"`
	RaisingHand bool                 `json:"raisingHand"`
}

type RoomView struct {
	ID        domain.RoomID    `json:"id"`
	PIN       domain.PIN       `json:"pin"`
	Title     string           `json:"title"`
	State     domain.RoomState `json:"state"`
	Presenter domain.User      `json:"presenter"`
}

type PresenterSnapshot struct {
	Room      RoomView       `json:"room"`
	Attendees []AttendeeView `json:"attendees"`
	Displays  []EntityRef    `json:"displays"`
}

type AttendeeSnapshot struct {
	Title    string           `json:"title"`
	State    domain.RoomState `json:"state"`
	Attendee AttendeeView     `json:"attendee"`
}

type DisplaySnapshot struct {
	Title string           `json:"title"`
	State domain.RoomState `json:"state"`
	PIN   domain.PIN       `json:"pin"`
}
