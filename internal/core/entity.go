package core

import "github.com/dkeye/clicker/internal/domain"

type Role string

const (
	RolePresenter Role = "presenter"
	RoleAttendee  Role = "attendee"
	RoleDisplay   Role = "display"
)

// Entity is a role-specific connection inside a room. Transports call Dispose
// when the underlying connection ends.
type Entity interface {
	ID() EntityID
	User() *domain.User
	Room() *Room
	Dispose()
}

var (
	_ Entity = (*Presenter)(nil)
	_ Entity = (*Attendee)(nil)
	_ Entity = (*Display)(nil)
)

// Presenter is the room owner's push connection. Disposing it disposes the room.
type Presenter struct {
	id   EntityID
	user *domain.User
	conn Connection
	room *Room
}

func (p *Presenter) ID() EntityID       { return p.id }
func (p *Presenter) User() *domain.User { return p.user }
func (p *Presenter) Room() *Room        { return p.room }

// Dispose is the teardown hook for the presenter's connection.
func (p *Presenter) Dispose() { p.room.disposePresenter(p) }

// Display is a screen showing the room's join PIN.
type Display struct {
	id   EntityID
	user *domain.User
	conn Connection
	room *Room
}

func (d *Display) ID() EntityID       { return d.id }
func (d *Display) User() *domain.User { return d.user }
func (d *Display) Room() *Room        { return d.room }

// Dispose is the teardown hook for the display's connection.
func (d *Display) Dispose() { d.room.disposeDisplay(d) }

// Attendee is a participant's connection. State and hand are guarded by the room lock.
type Attendee struct {
	id   EntityID
	user *domain.User
	conn Connection
	room *Room

	state       domain.AttendeeState
	raisingHand bool
}

func (a *Attendee) ID() EntityID       { return a.id }
func (a *Attendee) User() *domain.User { return a.user }
func (a *Attendee) Room() *Room        { return a.room }

func (a *Attendee) State() domain.AttendeeState {
	a.room.mu.Lock()
	defer a.room.mu.Unlock()
	return a.state
}

func (a *Attendee) IsRaisingHand() bool {
	a.room.mu.Lock()
	defer a.room.mu.Unlock()
	return a.raisingHand
}

func (a *Attendee) View() AttendeeView {
	a.room.mu.Lock()
	defer a.room.mu.Unlock()
	return a.view()
}

func (a *Attendee) view() AttendeeView {
	return AttendeeView{ID: a.id, User: *a.user, State: a.state, RaisingHand: a.raisingHand}
}

func (a *Attendee) Approve() error     { return a.room.Approve(a.id) }
func (a *Attendee) Ban() error         { return a.room.Ban(a.id) }
func (a *Attendee) Kick() error        { return a.room.Kick(a.id) }
func (a *Attendee) RaiseHand() error   { return a.room.setHand(a, true) }
func (a *Attendee) DismissHand() error { return a.room.setHand(a, false) }

// Dispose is the teardown hook for the attendee's connection.
func (a *Attendee) Dispose() { a.room.disposeAttendee(a) }
