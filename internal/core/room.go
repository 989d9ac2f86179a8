package core

import (
	"sync"

	"github.com/dkeye/clicker/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Index keeps a room findable while it is live. Rooms call it with their own lock
// held, so implementations must never call back into a room.
type Index interface {
	// ReindexPIN moves the room from one PIN to another. An empty target asks the
	// index to allocate a fresh one. Returns the PIN now in effect.
	ReindexPIN(id domain.RoomID, from, to domain.PIN) (domain.PIN, error)
	Remove(id domain.RoomID, pin domain.PIN)
}

type Config struct {
	ID     domain.RoomID
	PIN    domain.PIN
	Title  string
	Owner  *domain.User
	Index  Index
	Policy Policy
}

type audience uint8

const (
	toPresenter audience = 1 << iota
	toAttendees
	toDisplays

	toEveryone = toPresenter | toAttendees | toDisplays
)

// Room is a live presenter session. Every mutation runs under mu from validation
// to broadcast; connections marked for abort are aborted after mu is released.
type Room struct {
	id     domain.RoomID
	owner  *domain.User
	index  Index
	policy Policy
	log    zerolog.Logger

	mu         sync.Mutex
	pin        domain.PIN
	title      string
	state      domain.RoomState
	presenters *Registry[*Presenter]
	attendees  *Registry[*Attendee]
	displays   *Registry[*Display]
	approved   map[domain.UserID]struct{}
	banned     map[domain.UserID]struct{}
	doomed     []Connection
}

func NewRoom(cfg Config) *Room {
	if cfg.Title == "" {
		cfg.Title = domain.DefaultTitle
	}
	if cfg.Index == nil {
		cfg.Index = nopIndex{}
	}
	if cfg.Policy == nil {
		cfg.Policy = SimplePolicy{}
	}
	return &Room{
		id:         cfg.ID,
		owner:      cfg.Owner,
		index:      cfg.Index,
		policy:     cfg.Policy,
		log:        log.With().Str("module", "core.room").Str("room_id", string(cfg.ID)).Logger(),
		pin:        cfg.PIN,
		title:      cfg.Title,
		state:      domain.RoomUnlocked,
		presenters: NewRegistry[*Presenter](),
		attendees:  NewRegistry[*Attendee](),
		displays:   NewRegistry[*Display](),
		approved:   make(map[domain.UserID]struct{}),
		banned:     make(map[domain.UserID]struct{}),
	}
}

func (r *Room) ID() domain.RoomID    { return r.id }
func (r *Room) Owner() *domain.User { return r.owner }

func (r *Room) PIN() domain.PIN {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pin
}

func (r *Room) Title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.title
}

func (r *Room) State() domain.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Room) View() RoomView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked()
}

func (r *Room) HasPresenter() bool { return r.presenters.Len() > 0 }
func (r *Room) AttendeeCount() int { return r.attendees.Len() }
func (r *Room) DisplayCount() int  { return r.displays.Len() }

func (r *Room) Attendee(id EntityID) (*Attendee, bool) { return r.attendees.Get(id) }

// Snapshot is the presenter's view of the whole room.
func (r *Room) Snapshot() PresenterSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presenterSnapshotLocked()
}

func (r *Room) AddPresenter(conn Connection, user *domain.User) (*Presenter, error) {
	r.mu.Lock()
	defer r.unlock()
	if r.state == domain.RoomDisposed {
		return nil, domain.ErrRoomDisposed
	}
	if !user.Is(r.owner) {
		return nil, domain.ErrRoomNotFound
	}
	if r.presenters.Len() > 0 {
		return nil, domain.ErrPresenterConnected
	}
	p := r.presenters.Add(func(id EntityID) *Presenter {
		return &Presenter{id: id, user: user, conn: conn, room: r}
	})
	r.deliver(RolePresenter, p.id, conn, Event{Name: EventSnapshot, Data: r.presenterSnapshotLocked()})
	r.log.Info().Uint64("entity_id", uint64(p.id)).Str("user", string(user.ID)).Msg("presenter connected")
	return p, nil
}

// AddAttendee admits a user according to the room state: permissive rooms and
// users approved earlier get in directly, unlocked rooms queue them for approval.
func (r *Room) AddAttendee(conn Connection, user *domain.User) (*Attendee, error) {
	r.mu.Lock()
	defer r.unlock()
	_, approved := r.approved[user.ID]
	_, banned := r.banned[user.ID]
	state, err := domain.AdmissionFor(r.state, approved, banned)
	if err != nil {
		return nil, err
	}
	a := r.attendees.Add(func(id EntityID) *Attendee {
		return &Attendee{id: id, user: user, conn: conn, room: r, state: state}
	})
	if state == domain.AttendeeConnected {
		r.approved[user.ID] = struct{}{}
	}
	r.deliver(RoleAttendee, a.id, conn, Event{Name: EventSnapshot, Data: AttendeeSnapshot{
		Title: r.title, State: r.state, Attendee: a.view(),
	}})
	r.broadcast(toPresenter, Event{Name: EventAttendeeJoined, Data: a.view()})
	r.log.Info().Uint64("entity_id", uint64(a.id)).Str("user", string(user.ID)).Str("state", string(state)).Msg("attendee joined")
	return a, nil
}

// CheckAdmission reports whether user could join as an attendee right now
// without admitting them.
func (r *Room) CheckAdmission(user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, approved := r.approved[user.ID]
	_, banned := r.banned[user.ID]
	_, err := domain.AdmissionFor(r.state, approved, banned)
	return err
}

func (r *Room) AddDisplay(conn Connection, user *domain.User) (*Display, error) {
	r.mu.Lock()
	defer r.unlock()
	if r.state == domain.RoomDisposed {
		return nil, domain.ErrRoomDisposed
	}
	d := r.displays.Add(func(id EntityID) *Display {
		return &Display{id: id, user: user, conn: conn, room: r}
	})
	r.deliver(RoleDisplay, d.id, conn, Event{Name: EventSnapshot, Data: DisplaySnapshot{
		Title: r.title, State: r.state, PIN: r.pin,
	}})
	r.broadcast(toPresenter, Event{Name: EventDisplayJoined, Data: EntityRef{ID: d.id}})
	r.log.Info().Uint64("entity_id", uint64(d.id)).Msg("display connected")
	return d, nil
}

func (r *Room) UpdateTitle(title string) error {
	r.mu.Lock()
	defer r.unlock()
	if r.state == domain.RoomDisposed {
		return domain.ErrRoomDisposed
	}
	t, err := domain.ParseTitle(title)
	if err != nil {
		return err
	}
	r.title = t
	r.broadcast(toEveryone, Event{Name: EventTitleUpdate, Data: TitlePayload{Title: t}})
	return nil
}

// UpdateState moves between operating states. Entering permissive admits
// everyone still awaiting approval.
func (r *Room) UpdateState(state domain.RoomState) error {
	r.mu.Lock()
	defer r.unlock()
	if state == domain.RoomDisposed && r.state != domain.RoomDisposed {
		return domain.ErrInvalidTransition
	}
	if err := r.state.CheckTransition(state); err != nil {
		return err
	}
	r.state = state
	if state == domain.RoomPermissive {
		for _, a := range r.attendees.Values() {
			if a.state == domain.AttendeeAwaiting {
				r.admitLocked(a)
			}
		}
	}
	r.broadcast(toEveryone, Event{Name: EventStateUpdate, Data: StatePayload{State: state}})
	r.log.Info().Str("state", string(state)).Msg("state updated")
	return nil
}

// UpdatePIN installs pin, or a freshly allocated one when pin is empty.
func (r *Room) UpdatePIN(pin string) (domain.PIN, error) {
	r.mu.Lock()
	defer r.unlock()
	if r.state == domain.RoomDisposed {
		return "", domain.ErrRoomDisposed
	}
	var target domain.PIN
	if pin != "" {
		p, err := domain.ParsePIN(pin)
		if err != nil {
			return "", err
		}
		if p == r.pin {
			return "", domain.ErrPINUnchanged
		}
		target = p
	}
	next, err := r.index.ReindexPIN(r.id, r.pin, target)
	if err != nil {
		return "", err
	}
	r.pin = next
	r.broadcast(toDisplays, Event{Name: EventPINUpdate, Data: PINPayload{PIN: next}})
	r.log.Info().Str("pin", string(next)).Msg("pin updated")
	return next, nil
}

func (r *Room) Approve(id EntityID) error {
	r.mu.Lock()
	defer r.unlock()
	a, err := r.liveAttendeeLocked(id)
	if err != nil {
		return err
	}
	if err := a.state.CheckTransition(domain.AttendeeConnected); err != nil {
		return err
	}
	r.admitLocked(a)
	r.log.Info().Uint64("entity_id", uint64(id)).Msg("attendee approved")
	return nil
}

// Ban removes every live entity of the attendee's user and blocks re-admission.
func (r *Room) Ban(id EntityID) error {
	r.mu.Lock()
	defer r.unlock()
	target, err := r.liveAttendeeLocked(id)
	if err != nil {
		return err
	}
	uid := target.user.ID
	r.banned[uid] = struct{}{}
	delete(r.approved, uid)
	for _, a := range r.attendees.Values() {
		if a.user.ID == uid {
			r.evictLocked(a, domain.AttendeeBanned, EventAttendeeBanned, ReasonBanned)
		}
	}
	r.log.Info().Uint64("entity_id", uint64(id)).Str("user", string(uid)).Msg("attendee banned")
	return nil
}

// Kick removes the attendee; the user may join again but needs approval anew.
func (r *Room) Kick(id EntityID) error {
	r.mu.Lock()
	defer r.unlock()
	a, err := r.liveAttendeeLocked(id)
	if err != nil {
		return err
	}
	delete(r.approved, a.user.ID)
	r.evictLocked(a, domain.AttendeeKicked, EventAttendeeKicked, ReasonKicked)
	r.log.Info().Uint64("entity_id", uint64(id)).Msg("attendee kicked")
	return nil
}

func (r *Room) setHand(a *Attendee, raise bool) error {
	r.mu.Lock()
	defer r.unlock()
	if _, err := r.liveAttendeeLocked(a.id); err != nil {
		return err
	}
	if a.state != domain.AttendeeConnected {
		return domain.ErrAttendeeNotAdmitted
	}
	switch {
	case raise && a.raisingHand:
		return domain.ErrHandAlreadyRaised
	case !raise && !a.raisingHand:
		return domain.ErrHandNotRaised
	}
	a.raisingHand = raise
	r.broadcast(toPresenter, Event{Name: EventAttendeeUpdate, Data: a.view()})
	return nil
}

// Dispose tears the room down: it leaves the index, tells everyone, and aborts
// every connection. Calling it again does nothing.
func (r *Room) Dispose() {
	r.mu.Lock()
	defer r.unlock()
	r.disposeLocked()
}

// DisposeIfUnattended disposes the room only if no presenter is connected.
func (r *Room) DisposeIfUnattended() bool {
	r.mu.Lock()
	defer r.unlock()
	if r.state == domain.RoomDisposed || r.presenters.Len() > 0 {
		return false
	}
	r.disposeLocked()
	return true
}

func (r *Room) disposePresenter(p *Presenter) {
	r.mu.Lock()
	defer r.unlock()
	if _, ok := r.presenters.Remove(p.id); !ok {
		return
	}
	r.doomed = append(r.doomed, p.conn)
	r.log.Info().Uint64("entity_id", uint64(p.id)).Msg("presenter left")
	r.disposeLocked()
}

func (r *Room) disposeAttendee(a *Attendee) {
	r.mu.Lock()
	defer r.unlock()
	if _, ok := r.attendees.Remove(a.id); !ok {
		return
	}
	a.raisingHand = false
	r.doomed = append(r.doomed, a.conn)
	r.broadcast(toPresenter, Event{Name: EventAttendeeLeft, Data: LeftPayload{ID: a.id, Reason: ReasonLeft}})
	r.log.Info().Uint64("entity_id", uint64(a.id)).Msg("attendee left")
}

func (r *Room) disposeDisplay(d *Display) {
	r.mu.Lock()
	defer r.unlock()
	if _, ok := r.displays.Remove(d.id); !ok {
		return
	}
	r.doomed = append(r.doomed, d.conn)
	r.broadcast(toPresenter, Event{Name: EventDisplayLeft, Data: EntityRef{ID: d.id}})
	r.log.Info().Uint64("entity_id", uint64(d.id)).Msg("display left")
}

func (r *Room) disposeLocked() {
	if r.state == domain.RoomDisposed {
		return
	}
	r.state = domain.RoomDisposed
	r.index.Remove(r.id, r.pin)
	r.broadcast(toEveryone, Event{Name: EventRoomDisposed, Data: struct{}{}})
	for _, p := range r.presenters.Clear() {
		r.doomed = append(r.doomed, p.conn)
	}
	for _, a := range r.attendees.Clear() {
		a.raisingHand = false
		r.doomed = append(r.doomed, a.conn)
	}
	for _, d := range r.displays.Clear() {
		r.doomed = append(r.doomed, d.conn)
	}
	r.log.Info().Str("pin", string(r.pin)).Msg("room disposed")
}

func (r *Room) liveAttendeeLocked(id EntityID) (*Attendee, error) {
	if r.state == domain.RoomDisposed {
		return nil, domain.ErrRoomDisposed
	}
	a, ok := r.attendees.Get(id)
	if !ok {
		return nil, domain.ErrEntityGone
	}
	return a, nil
}

func (r *Room) admitLocked(a *Attendee) {
	a.state = domain.AttendeeConnected
	r.approved[a.user.ID] = struct{}{}
	view := a.view()
	r.deliver(RoleAttendee, a.id, a.conn, Event{Name: EventAttendeeApproved, Data: view})
	r.broadcast(toPresenter, Event{Name: EventAttendeeUpdate, Data: view})
}

// evictLocked removes the attendee from the registry before its final notice.
func (r *Room) evictLocked(a *Attendee, state domain.AttendeeState, notice EventName, reason LeaveReason) {
	r.attendees.Remove(a.id)
	a.state = state
	a.raisingHand = false
	r.deliver(RoleAttendee, a.id, a.conn, Event{Name: notice, Data: struct{}{}})
	r.doomed = append(r.doomed, a.conn)
	r.broadcast(toPresenter, Event{Name: EventAttendeeLeft, Data: LeftPayload{ID: a.id, Reason: reason}})
}

func (r *Room) broadcast(to audience, ev Event) {
	sent, failed := 0, 0
	count := func(ok bool) {
		if ok {
			sent++
		} else {
			failed++
		}
	}
	if to&toPresenter != 0 {
		for _, p := range r.presenters.Values() {
			count(r.deliver(RolePresenter, p.id, p.conn, ev))
		}
	}
	if to&toAttendees != 0 {
		for _, a := range r.attendees.Values() {
			count(r.deliver(RoleAttendee, a.id, a.conn, ev))
		}
	}
	if to&toDisplays != 0 {
		for _, d := range r.displays.Values() {
			count(r.deliver(RoleDisplay, d.id, d.conn, ev))
		}
	}
	r.log.Debug().Str("event", string(ev.Name)).Int("sent_to", sent).Int("failed", failed).Msg("broadcast result")
}

// deliver is best-effort: a failed send never changes room state here, the
// policy only decides whether the connection gets aborted.
func (r *Room) deliver(role Role, id EntityID, conn Connection, ev Event) bool {
	err := conn.Send(ev)
	if err == nil {
		return true
	}
	r.log.Warn().Err(err).Str("role", string(role)).Uint64("entity_id", uint64(id)).Str("event", string(ev.Name)).Msg("send failed")
	if r.policy.OnSendFailure(role, err) == Disconnect {
		r.doomed = append(r.doomed, conn)
	}
	return false
}

func (r *Room) unlock() {
	doomed := r.doomed
	r.doomed = nil
	r.mu.Unlock()
	for _, c := range doomed {
		c.Abort()
	}
}

func (r *Room) viewLocked() RoomView {
	v := RoomView{ID: r.id, PIN: r.pin, Title: r.title, State: r.state}
	if r.owner != nil {
		v.Presenter = *r.owner
	}
	return v
}

func (r *Room) presenterSnapshotLocked() PresenterSnapshot {
	snap := PresenterSnapshot{
		Room:      r.viewLocked(),
		Attendees: make([]AttendeeView, 0, r.attendees.Len()),
		Displays:  make([]EntityRef, 0, r.displays.Len()),
	}
	for _, a := range r.attendees.Values() {
		snap.Attendees = append(snap.Attendees, a.view())
	}
	for _, d := range r.displays.Values() {
		snap.Displays = append(snap.Displays, EntityRef{ID: d.id})
	}
	return snap
}

// nopIndex serves rooms that live outside a directory.
type nopIndex struct{}

func (nopIndex) ReindexPIN(_ domain.RoomID, _, to domain.PIN) (domain.PIN, error) {
	if to == "" {
		return "", domain.ErrInvalidPIN
	}
	return to, nil
}

func (nopIndex) Remove(domain.RoomID, domain.PIN) {}
