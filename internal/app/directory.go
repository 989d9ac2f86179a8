package app

import (
	"sync"

	"github.com/dkeye/clicker/internal/core"
	"github.com/dkeye/clicker/internal/domain"
	"github.com/rs/zerolog/log"
)

// Directory indexes live rooms by ID, PIN and presenter. It is the core.Index of
// every room it creates, so its lock is always taken after a room's lock and it
// never calls into a room while holding its own.
type Directory struct {
	mu          sync.RWMutex
	byID        map[domain.RoomID]*core.Room
	byPIN       map[domain.PIN]*core.Room
	byPresenter map[domain.UserID]*core.Room

	pins   *PINAllocator
	policy core.Policy
}

func NewDirectory(pins *PINAllocator, policy core.Policy) *Directory {
	if pins == nil {
		pins = NewPINAllocator(DefaultPINAttempts)
	}
	return &Directory{
		byID:        make(map[domain.RoomID]*core.Room),
		byPIN:       make(map[domain.PIN]*core.Room),
		byPresenter: make(map[domain.UserID]*core.Room),
		pins:        pins,
		policy:      policy,
	}
}

// InsertLive creates a room owned by presenter under a freshly allocated PIN.
// A presenter owns at most one live room.
func (d *Directory) InsertLive(presenter *domain.User, title string) (*core.Room, error) {
	if title != "" {
		t, err := domain.ParseTitle(title)
		if err != nil {
			return nil, err
		}
		title = t
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byPresenter[presenter.ID]; ok {
		return nil, domain.ErrPresenterHasRoom
	}
	pin, err := d.pins.Generate(d.pinTakenLocked)
	if err != nil {
		return nil, err
	}
	room := core.NewRoom(core.Config{
		ID:     domain.NewRoomID(),
		PIN:    pin,
		Title:  title,
		Owner:  presenter,
		Index:  d,
		Policy: d.policy,
	})
	d.byID[room.ID()] = room
	d.byPIN[pin] = room
	d.byPresenter[presenter.ID] = room
	log.Info().Str("module", "app.directory").Str("room_id", string(room.ID())).Str("presenter", string(presenter.ID)).Msg("room created")
	return room, nil
}

func (d *Directory) FindLiveByRoomID(id domain.RoomID) (*core.Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.byID[id]
	return r, ok
}

func (d *Directory) FindLiveByPIN(pin domain.PIN) (*core.Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.byPIN[pin]
	return r, ok
}

func (d *Directory) FindLiveByPresenterUserID(id domain.UserID) (*core.Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.byPresenter[id]
	return r, ok
}

// ReindexPIN swaps the room's PIN in one step, so no other room can observe the
// new PIN as free in between. An empty target allocates one.
func (d *Directory) ReindexPIN(id domain.RoomID, from, to domain.PIN) (domain.PIN, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.byID[id]
	if !ok {
		return "", domain.ErrRoomNotFound
	}
	if to == "" {
		pin, err := d.pins.Generate(d.pinTakenLocked)
		if err != nil {
			return "", err
		}
		to = pin
	} else if holder, ok := d.byPIN[to]; ok && holder != room {
		return "", domain.ErrPINTaken
	}
	if d.byPIN[from] == room {
		delete(d.byPIN, from)
	}
	d.byPIN[to] = room
	log.Info().Str("module", "app.directory").Str("room_id", string(id)).Str("from", string(from)).Str("to", string(to)).Msg("pin reindexed")
	return to, nil
}

// Remove drops every index entry of the room. Unknown rooms are ignored.
func (d *Directory) Remove(id domain.RoomID, pin domain.PIN) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.byID[id]
	if !ok {
		return
	}
	delete(d.byID, id)
	if d.byPIN[pin] == room {
		delete(d.byPIN, pin)
	}
	if owner := room.Owner(); owner != nil && d.byPresenter[owner.ID] == room {
		delete(d.byPresenter, owner.ID)
	}
	log.Info().Str("module", "app.directory").Str("room_id", string(id)).Msg("room removed")
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

// List returns a view of every live room. Views are taken outside the
// directory lock.
func (d *Directory) List() []core.RoomView {
	rooms := d.snapshot()
	out := make([]core.RoomView, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.View())
	}
	return out
}

// DisposeAll disposes every live room. Used on shutdown.
func (d *Directory) DisposeAll() int {
	rooms := d.snapshot()
	for _, r := range rooms {
		r.Dispose()
	}
	if len(rooms) > 0 {
		log.Info().Str("module", "app.directory").Int("rooms", len(rooms)).Msg("disposed all rooms")
	}
	return len(rooms)
}

func (d *Directory) snapshot() []*core.Room {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*core.Room, 0, len(d.byID))
	for _, r := range d.byID {
		out = append(out, r)
	}
	return out
}

func (d *Directory) pinTakenLocked(pin domain.PIN) bool {
	_, ok := d.byPIN[pin]
	return ok
}
