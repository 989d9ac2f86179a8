// Package orch runs the connect flows and room actions shared by every transport.
package orch

import (
	"net/http"
	"time"

	"github.com/dkeye/clicker/internal/app"
	"github.com/dkeye/clicker/internal/core"
	"github.com/dkeye/clicker/internal/domain"
	"github.com/rs/zerolog/log"
)

type Orchestrator struct {
	Rooms  *app.Directory
	Guards *app.Guards
	// Grace is how long a room created without a presenter connection may stay
	// unattended. Zero disables the timer.
	Grace time.Duration
}

func New(rooms *app.Directory, grace time.Duration) *Orchestrator {
	return &Orchestrator{Rooms: rooms, Guards: app.NewGuards(rooms), Grace: grace}
}

// CreateRoom creates a room for the caller ahead of a presenter connection.
func (o *Orchestrator) CreateRoom(r *http.Request, title string) (*core.Room, error) {
	u, err := o.Guards.User(r)
	if err != nil {
		return nil, err
	}
	room, err := o.Rooms.InsertLive(u, title)
	if err != nil {
		return nil, app.Reject(err)
	}
	o.armGrace(room)
	return room, nil
}

// ConnectPresenter creates a room and attaches conn as its presenter.
func (o *Orchestrator) ConnectPresenter(r *http.Request, title string, conn core.Connection) (*core.Presenter, error) {
	u, err := o.Guards.User(r)
	if err != nil {
		return nil, err
	}
	room, err := o.Rooms.InsertLive(u, title)
	if err != nil {
		return nil, app.Reject(err)
	}
	p, err := room.AddPresenter(conn, u)
	if err != nil {
		room.Dispose()
		return nil, app.Reject(err)
	}
	return p, nil
}

// AttachPresenter connects the owner to a room created earlier.
func (o *Orchestrator) AttachPresenter(r *http.Request, roomID domain.RoomID, conn core.Connection) (*core.Presenter, error) {
	acc, err := o.Guards.Presenter(r, roomID)
	if err != nil {
		return nil, err
	}
	p, err := acc.Room.AddPresenter(conn, acc.User)
	return p, app.Reject(err)
}

func (o *Orchestrator) ConnectAttendee(r *http.Request, pin string, conn core.Connection) (*core.Attendee, error) {
	acc, err := o.Guards.AttendeeConnect(r, pin)
	if err != nil {
		return nil, err
	}
	a, err := acc.Room.AddAttendee(conn, acc.User)
	return a, app.Reject(err)
}

func (o *Orchestrator) ConnectDisplay(r *http.Request, roomID domain.RoomID, conn core.Connection) (*core.Display, error) {
	acc, err := o.Guards.Display(r, roomID)
	if err != nil {
		return nil, err
	}
	d, err := acc.Room.AddDisplay(conn, acc.User)
	return d, app.Reject(err)
}

// Shutdown disposes every live room.
func (o *Orchestrator) Shutdown() int {
	return o.Rooms.DisposeAll()
}

func (o *Orchestrator) armGrace(room *core.Room) {
	if o.Grace <= 0 {
		return
	}
	time.AfterFunc(o.Grace, func() {
		if room.DisposeIfUnattended() {
			log.Info().Str("module", "app.orch").Str("room_id", string(room.ID())).Dur("grace", o.Grace).Msg("room disposed, no presenter connected")
		}
	})
}
