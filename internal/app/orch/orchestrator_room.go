package orch

import (
	"net/http"

	"github.com/dkeye/clicker/internal/app"
	"github.com/dkeye/clicker/internal/core"
	"github.com/dkeye/clicker/internal/domain"
)

// Discovery is what an attendee learns about a room before joining it.
type Discovery struct {
	RoomID domain.RoomID    `json:"room_id"`
	Title  string           `json:"title"`
	State  domain.RoomState `json:"state"`
}

func (o *Orchestrator) Discover(r *http.Request, pin string) (Discovery, error) {
	acc, err := o.Guards.Discover(r, pin)
	if err != nil {
		return Discovery{}, err
	}
	v := acc.Room.View()
	return Discovery{RoomID: v.ID, Title: v.Title, State: v.State}, nil
}

func (o *Orchestrator) RoomInfo(r *http.Request, roomID domain.RoomID) (core.PresenterSnapshot, error) {
	acc, err := o.Guards.Presenter(r, roomID)
	if err != nil {
		return core.PresenterSnapshot{}, err
	}
	return acc.Room.Snapshot(), nil
}

func (o *Orchestrator) UpdateTitle(r *http.Request, roomID domain.RoomID, title string) error {
	return o.asPresenter(r, roomID, func(room *core.Room) error {
		return room.UpdateTitle(title)
	})
}

func (o *Orchestrator) UpdateState(r *http.Request, roomID domain.RoomID, state string) error {
	return o.asPresenter(r, roomID, func(room *core.Room) error {
		s, err := domain.ParseRoomState(state)
		if err != nil {
			return err
		}
		return room.UpdateState(s)
	})
}

// UpdatePIN sets pin, or rotates to a fresh one when pin is empty.
func (o *Orchestrator) UpdatePIN(r *http.Request, roomID domain.RoomID, pin string) (domain.PIN, error) {
	var next domain.PIN
	err := o.asPresenter(r, roomID, func(room *core.Room) error {
		p, err := room.UpdatePIN(pin)
		next = p
		return err
	})
	return next, err
}

func (o *Orchestrator) DisposeRoom(r *http.Request, roomID domain.RoomID) error {
	return o.asPresenter(r, roomID, func(room *core.Room) error {
		room.Dispose()
		return nil
	})
}

func (o *Orchestrator) Approve(r *http.Request, roomID domain.RoomID, id core.EntityID) error {
	return o.asPresenter(r, roomID, func(room *core.Room) error { return room.Approve(id) })
}

func (o *Orchestrator) Ban(r *http.Request, roomID domain.RoomID, id core.EntityID) error {
	return o.asPresenter(r, roomID, func(room *core.Room) error { return room.Ban(id) })
}

func (o *Orchestrator) Kick(r *http.Request, roomID domain.RoomID, id core.EntityID) error {
	return o.asPresenter(r, roomID, func(room *core.Room) error { return room.Kick(id) })
}

func (o *Orchestrator) RaiseHand(r *http.Request, roomID domain.RoomID, id core.EntityID) error {
	return o.asAttendee(r, roomID, id, (*core.Attendee).RaiseHand)
}

func (o *Orchestrator) DismissHand(r *http.Request, roomID domain.RoomID, id core.EntityID) error {
	return o.asAttendee(r, roomID, id, (*core.Attendee).DismissHand)
}

func (o *Orchestrator) asPresenter(r *http.Request, roomID domain.RoomID, act func(*core.Room) error) error {
	acc, err := o.Guards.Presenter(r, roomID)
	if err != nil {
		return err
	}
	return app.Reject(act(acc.Room))
}

func (o *Orchestrator) asAttendee(r *http.Request, roomID domain.RoomID, id core.EntityID, act func(*core.Attendee) error) error {
	a, err := o.Guards.AttendeeAction(r, roomID, id)
	if err != nil {
		return err
	}
	return app.Reject(act(a))
}
