package app

import (
	"errors"
	"net/http"

	"github.com/dkeye/clicker/internal/auth"
	"github.com/dkeye/clicker/internal/core"
	"github.com/dkeye/clicker/internal/domain"
)

// Intent tells the transport how to answer a rejected request.
type Intent string

const (
	IntentNotFound     Intent = "not_found"
	IntentUnauthorized Intent = "unauthorized"
	IntentConflict     Intent = "conflict"
	IntentBanned       Intent = "banned"
	IntentClosed       Intent = "closed"
	IntentBadRequest   Intent = "bad_request"
	IntentInternal     Intent = "internal"
)

type GuardError struct {
	Intent Intent
	Err    error
}

func (e *GuardError) Error() string { return string(e.Intent) + ": " + e.Err.Error() }
func (e *GuardError) Unwrap() error { return e.Err }

// IntentOf classifies err. Errors that already carry an intent keep it.
func IntentOf(err error) Intent {
	var ge *GuardError
	switch {
	case errors.As(err, &ge):
		return ge.Intent
	case errors.Is(err, domain.ErrAttendeeBanned):
		return IntentBanned
	case errors.Is(err, domain.ErrRoomDisposed):
		return IntentClosed
	case errors.Is(err, domain.ErrNotFound):
		return IntentNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return IntentUnauthorized
	case errors.Is(err, domain.ErrConflict):
		return IntentConflict
	case errors.Is(err, domain.ErrBadRequest):
		return IntentBadRequest
	default:
		return IntentInternal
	}
}

// Reject wraps err with its intent. Nil stays nil.
func Reject(err error) error {
	if err == nil {
		return nil
	}
	var ge *GuardError
	if errors.As(err, &ge) {
		return err
	}
	return &GuardError{Intent: IntentOf(err), Err: err}
}

// Access is what a passing guard hands to its endpoint.
type Access struct {
	User *domain.User
	Room *core.Room
}

// Guards resolve user, room and role for every endpoint. Callers that must
// not learn whether a room exists get not-found for every rejection.
type Guards struct {
	rooms *Directory
}

func NewGuards(rooms *Directory) *Guards {
	return &Guards{rooms: rooms}
}

// User requires an authenticated user.
func (g *Guards) User(r *http.Request) (*domain.User, error) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		return nil, Reject(domain.ErrNotAuthenticated)
	}
	return u, nil
}

// Presenter admits the owner of roomID, for both connecting and room actions.
// A room owned by someone else is reported as missing.
func (g *Guards) Presenter(r *http.Request, roomID domain.RoomID) (Access, error) {
	u, err := g.User(r)
	if err != nil {
		return Access{}, err
	}
	room, ok := g.rooms.FindLiveByRoomID(roomID)
	if !ok || !u.Is(room.Owner()) {
		return Access{}, Reject(domain.ErrRoomNotFound)
	}
	return Access{User: u, Room: room}, nil
}

// AttendeeConnect looks the room up by PIN and checks the room would admit the
// user. A malformed PIN is indistinguishable from an unknown one.
func (g *Guards) AttendeeConnect(r *http.Request, pin string) (Access, error) {
	u, err := g.User(r)
	if err != nil {
		return Access{}, err
	}
	room, err := g.roomByPIN(pin)
	if err != nil {
		return Access{}, err
	}
	if err := room.CheckAdmission(u); err != nil {
		return Access{}, Reject(err)
	}
	return Access{User: u, Room: room}, nil
}

// Discover resolves a PIN for an authenticated user without admission checks.
func (g *Guards) Discover(r *http.Request, pin string) (Access, error) {
	u, err := g.User(r)
	if err != nil {
		return Access{}, err
	}
	room, err := g.roomByPIN(pin)
	if err != nil {
		return Access{}, err
	}
	return Access{User: u, Room: room}, nil
}

// AttendeeAction returns the caller's own connected attendee entity. Entities
// of other users are reported as missing.
func (g *Guards) AttendeeAction(r *http.Request, roomID domain.RoomID, id core.EntityID) (*core.Attendee, error) {
	u, err := g.User(r)
	if err != nil {
		return nil, err
	}
	room, ok := g.rooms.FindLiveByRoomID(roomID)
	if !ok {
		return nil, Reject(domain.ErrRoomNotFound)
	}
	a, ok := room.Attendee(id)
	if !ok || !u.Is(a.User()) {
		return nil, Reject(domain.ErrAttendeeNotFound)
	}
	if a.State() != domain.AttendeeConnected {
		return nil, Reject(domain.ErrAttendeeNotAdmitted)
	}
	return a, nil
}

// Display admits any authenticated user to a live room.
func (g *Guards) Display(r *http.Request, roomID domain.RoomID) (Access, error) {
	u, err := g.User(r)
	if err != nil {
		return Access{}, err
	}
	room, ok := g.rooms.FindLiveByRoomID(roomID)
	if !ok {
		return Access{}, Reject(domain.ErrRoomNotFound)
	}
	return Access{User: u, Room: room}, nil
}

func (g *Guards) roomByPIN(raw string) (*core.Room, error) {
	pin, err := domain.ParsePIN(raw)
	if err != nil {
		return nil, Reject(domain.ErrRoomNotFound)
	}
	room, ok := g.rooms.FindLiveByPIN(pin)
	if !ok {
		return nil, Reject(domain.ErrRoomNotFound)
	}
	return room, nil
}
