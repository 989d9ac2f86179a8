package core_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/clicker/internal/core"
	"github.com/dkeye/clicker/internal/core/coretest"
	"github.com/dkeye/clicker/internal/core/mocks"
	"github.com/dkeye/clicker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeIndex struct {
	mu      sync.Mutex
	removed []domain.PIN
	next    domain.PIN
	err     error
}

func (f *fakeIndex) ReindexPIN(_ domain.RoomID, _, to domain.PIN) (domain.PIN, error) {
	if f.err != nil {
		return "", f.err
	}
	if to == "" {
		return f.next, nil
	}
	return to, nil
}

func (f *fakeIndex) Remove(_ domain.RoomID, pin domain.PIN) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, pin)
}

type fixture struct {
	room      *core.Room
	index     *fakeIndex
	owner     *domain.User
	presenter *core.Presenter
	pconn     *coretest.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	owner := &domain.User{ID: "owner", Username: "Olga"}
	idx := &fakeIndex{next: "654321"}
	room := core.NewRoom(core.Config{ID: "room-1", PIN: "123456", Title: "Intro", Owner: owner, Index: idx})
	pconn := coretest.NewRecorder()
	p, err := room.AddPresenter(pconn, owner)
	require.NoError(t, err)
	return &fixture{room: room, index: idx, owner: owner, presenter: p, pconn: pconn}
}

func (f *fixture) join(t *testing.T, uid string) (*core.Attendee, *coretest.Recorder) {
	t.Helper()
	conn := coretest.NewRecorder()
	a, err := f.room.AddAttendee(conn, &domain.User{ID: domain.UserID(uid), Username: uid})
	require.NoError(t, err)
	return a, conn
}

func (f *fixture) display(t *testing.T) (*core.Display, *coretest.Recorder) {
	t.Helper()
	conn := coretest.NewRecorder()
	d, err := f.room.AddDisplay(conn, &domain.User{ID: "screen"})
	require.NoError(t, err)
	return d, conn
}

func TestRoom_PresenterGetsSnapshot(t *testing.T) {
	f := newFixture(t)

	ev, ok := f.pconn.Last()
	require.True(t, ok)
	assert.Equal(t, core.EventSnapshot, ev.Name)
	snap, ok := ev.Data.(core.PresenterSnapshot)
	require.True(t, ok)
	assert.Equal(t, domain.PIN("123456"), snap.Room.PIN)
	assert.Equal(t, "Intro", snap.Room.Title)
	assert.Equal(t, domain.RoomUnlocked, snap.Room.State)
	assert.Empty(t, snap.Attendees)
}

func TestRoom_AddPresenter_Rules(t *testing.T) {
	f := newFixture(t)

	_, err := f.room.AddPresenter(coretest.NewRecorder(), f.owner)
	assert.ErrorIs(t, err, domain.ErrPresenterConnected)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.room.AddPresenter(coretest.NewRecorder(), &domain.User{ID: "intruder"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoom_UpdateTitle_FansOutToEveryone(t *testing.T) {
	f := newFixture(t)
	var conns []*coretest.Recorder
	for _, uid := range []string{"a", "b", "c"} {
		_, c := f.join(t, uid)
		conns = append(conns, c)
	}
	for range 2 {
		_, c := f.display(t)
		conns = append(conns, c)
	}
	conns = append(conns, f.pconn)

	require.NoError(t, f.room.UpdateTitle("  X  "))

	delivered := 0
	for _, c := range conns {
		got := c.Named(core.EventTitleUpdate)
		require.Len(t, got, 1)
		assert.Equal(t, core.TitlePayload{Title: "X"}, got[0].Data)
		delivered += len(got)
	}
	assert.Equal(t, 3+2+1, delivered)
	assert.Equal(t, "X", f.room.Title())
}

func TestRoom_UpdateTitle_Invalid(t *testing.T) {
	f := newFixture(t)
	for _, title := range []string{"", "   ", "bad\ttitle", string(make([]rune, domain.MaxTitleLen+1))} {
		err := f.room.UpdateTitle(title)
		assert.ErrorIs(t, err, domain.ErrBadRequest, "title %q", title)
	}
	assert.Empty(t, f.pconn.Named(core.EventTitleUpdate))
}

func TestRoom_Admission_UnlockedApproveBan(t *testing.T) {
	f := newFixture(t)
	a, conn := f.join(t, "alice")
	assert.Equal(t, domain.AttendeeAwaiting, a.State())

	joined := f.pconn.Named(core.EventAttendeeJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, a.ID(), joined[0].Data.(core.AttendeeView).ID)

	require.NoError(t, f.room.Approve(a.ID()))
	assert.Equal(t, domain.AttendeeConnected, a.State())
	require.Len(t, conn.Named(core.EventAttendeeApproved), 1)

	err := f.room.Approve(a.ID())
	assert.ErrorIs(t, err, domain.ErrAlreadyAdmitted)
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, f.room.Ban(a.ID()))
	_, present := f.room.Attendee(a.ID())
	assert.False(t, present)
	assert.Len(t, conn.Named(core.EventAttendeeBanned), 1)
	assert.True(t, conn.Aborted())
	assert.Equal(t, domain.AttendeeBanned, a.State())

	left := f.pconn.Named(core.EventAttendeeLeft)
	require.Len(t, left, 1)
	assert.Equal(t, core.LeftPayload{ID: a.ID(), Reason: core.ReasonBanned}, left[0].Data)

	_, err = f.room.AddAttendee(coretest.NewRecorder(), a.User())
	assert.ErrorIs(t, err, domain.ErrAttendeeBanned)
}

func TestRoom_Ban_RemovesEveryEntityOfUser(t *testing.T) {
	f := newFixture(t)
	first, c1 := f.join(t, "bob")
	second, c2 := f.join(t, "bob")
	other, c3 := f.join(t, "carol")

	require.NoError(t, f.room.Ban(first.ID()))

	for _, id := range []core.EntityID{first.ID(), second.ID()} {
		_, ok := f.room.Attendee(id)
		assert.False(t, ok)
	}
	_, ok := f.room.Attendee(other.ID())
	assert.True(t, ok)
	assert.True(t, c1.Aborted())
	assert.True(t, c2.Aborted())
	assert.False(t, c3.Aborted())
}

func TestRoom_Admission_Permissive(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.room.UpdateState(domain.RoomPermissive))

	a, _ := f.join(t, "dave")
	assert.Equal(t, domain.AttendeeConnected, a.State())
}

func TestRoom_SwitchToPermissiveAdmitsWaiting(t *testing.T) {
	f := newFixture(t)
	a, conn := f.join(t, "erin")
	require.Equal(t, domain.AttendeeAwaiting, a.State())

	require.NoError(t, f.room.UpdateState(domain.RoomPermissive))

	assert.Equal(t, domain.AttendeeConnected, a.State())
	assert.Len(t, conn.Named(core.EventAttendeeApproved), 1)
	assert.Len(t, conn.Named(core.EventStateUpdate), 1)
}

func TestRoom_Admission_Locked(t *testing.T) {
	f := newFixture(t)
	a, _ := f.join(t, "frank")
	require.NoError(t, f.room.Approve(a.ID()))
	a.Dispose()

	require.NoError(t, f.room.UpdateState(domain.RoomLocked))

	newcomer := &domain.User{ID: "newcomer"}
	assert.ErrorIs(t, f.room.CheckAdmission(newcomer), domain.ErrRoomLocked)
	assert.NoError(t, f.room.CheckAdmission(a.User()))

	_, err := f.room.AddAttendee(coretest.NewRecorder(), newcomer)
	assert.ErrorIs(t, err, domain.ErrRoomLocked)

	back, err := f.room.AddAttendee(coretest.NewRecorder(), a.User())
	require.NoError(t, err)
	assert.Equal(t, domain.AttendeeConnected, back.State())
	assert.NotEqual(t, a.ID(), back.ID())
}

func TestRoom_Kick_ForgetsApproval(t *testing.T) {
	f := newFixture(t)
	a, conn := f.join(t, "gina")
	require.NoError(t, f.room.Approve(a.ID()))

	require.NoError(t, f.room.Kick(a.ID()))
	assert.Len(t, conn.Named(core.EventAttendeeKicked), 1)
	assert.True(t, conn.Aborted())

	again, _ := f.join(t, "gina")
	assert.Equal(t, domain.AttendeeAwaiting, again.State())

	assert.ErrorIs(t, f.room.Kick(a.ID()), domain.ErrEntityGone)
}

func TestRoom_ActionsOnUnknownEntity(t *testing.T) {
	f := newFixture(t)
	for name, act := range map[string]func(core.EntityID) error{
		"approve": f.room.Approve,
		"ban":     f.room.Ban,
		"kick":    f.room.Kick,
	} {
		err := act(42)
		assert.ErrorIs(t, err, domain.ErrConflict, name)
	}
}

func TestRoom_Hand(t *testing.T) {
	f := newFixture(t)
	a, _ := f.join(t, "hank")

	assert.ErrorIs(t, a.RaiseHand(), domain.ErrAttendeeNotAdmitted)

	require.NoError(t, a.Approve())
	f.pconn.Reset()

	require.NoError(t, a.RaiseHand())
	assert.True(t, a.IsRaisingHand())
	updates := f.pconn.Named(core.EventAttendeeUpdate)
	require.Len(t, updates, 1)
	assert.True(t, updates[0].Data.(core.AttendeeView).RaisingHand)

	assert.ErrorIs(t, a.RaiseHand(), domain.ErrHandAlreadyRaised)
	require.NoError(t, a.DismissHand())
	assert.False(t, a.IsRaisingHand())
	assert.ErrorIs(t, a.DismissHand(), domain.ErrHandNotRaised)
}

func TestRoom_UpdateState_Validation(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.room.UpdateState(domain.RoomUnlocked), domain.ErrStateUnchanged)
	assert.ErrorIs(t, f.room.UpdateState(domain.RoomDisposed), domain.ErrBadRequest)
	assert.ErrorIs(t, f.room.UpdateState("paused"), domain.ErrBadRequest)
	assert.Equal(t, domain.RoomUnlocked, f.room.State())
}

func TestRoom_UpdatePIN_DisplaysOnly(t *testing.T) {
	f := newFixture(t)
	_, aconn := f.join(t, "ivy")
	_, dconn := f.display(t)

	pin, err := f.room.UpdatePIN("111111")
	require.NoError(t, err)
	assert.Equal(t, domain.PIN("111111"), pin)
	assert.Equal(t, pin, f.room.PIN())

	got := dconn.Named(core.EventPINUpdate)
	require.Len(t, got, 1)
	assert.Equal(t, core.PINPayload{PIN: "111111"}, got[0].Data)
	assert.Empty(t, aconn.Named(core.EventPINUpdate))

	_, err = f.room.UpdatePIN("111111")
	assert.ErrorIs(t, err, domain.ErrPINUnchanged)
	_, err = f.room.UpdatePIN("12ab56")
	assert.ErrorIs(t, err, domain.ErrInvalidPIN)

	regenerated, err := f.room.UpdatePIN("")
	require.NoError(t, err)
	assert.Equal(t, domain.PIN("654321"), regenerated)
}

func TestRoom_UpdatePIN_IndexConflictKeepsPIN(t *testing.T) {
	f := newFixture(t)
	f.index.err = domain.ErrPINTaken

	_, err := f.room.UpdatePIN("222222")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, domain.PIN("123456"), f.room.PIN())
}

func TestRoom_DisposedIsTerminal(t *testing.T) {
	f := newFixture(t)
	a, aconn := f.join(t, "jack")
	_, dconn := f.display(t)

	f.room.Dispose()
	f.room.Dispose()

	for _, c := range []*coretest.Recorder{f.pconn, aconn, dconn} {
		assert.Len(t, c.Named(core.EventRoomDisposed), 1)
		assert.True(t, c.Aborted())
	}
	assert.Equal(t, []domain.PIN{"123456"}, f.index.removed)
	assert.Equal(t, domain.RoomDisposed, f.room.State())

	checks := map[string]error{
		"title":   f.room.UpdateTitle("Later"),
		"state":   f.room.UpdateState(domain.RoomLocked),
		"approve": f.room.Approve(a.ID()),
		"ban":     f.room.Ban(a.ID()),
		"kick":    f.room.Kick(a.ID()),
		"hand":    a.RaiseHand(),
	}
	_, checks["pin"] = f.room.UpdatePIN("")
	_, checks["attendee"] = f.room.AddAttendee(coretest.NewRecorder(), &domain.User{ID: "late"})
	_, checks["display"] = f.room.AddDisplay(coretest.NewRecorder(), &domain.User{ID: "late"})
	_, checks["presenter"] = f.room.AddPresenter(coretest.NewRecorder(), f.owner)
	for name, err := range checks {
		assert.ErrorIs(t, err, domain.ErrRoomDisposed, name)
		assert.ErrorIs(t, err, domain.ErrConflict, name)
	}
}

func TestRoom_PresenterLeavingDisposesRoom(t *testing.T) {
	f := newFixture(t)
	_, aconn := f.join(t, "kate")

	f.presenter.Dispose()
	f.presenter.Dispose()

	assert.Equal(t, domain.RoomDisposed, f.room.State())
	assert.Len(t, aconn.Named(core.EventRoomDisposed), 1)
	assert.Len(t, f.index.removed, 1)
}

func TestRoom_AttendeeDisposeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	a, _ := f.join(t, "liam")

	a.Dispose()
	a.Dispose()

	left := f.pconn.Named(core.EventAttendeeLeft)
	require.Len(t, left, 1)
	assert.Equal(t, core.LeftPayload{ID: a.ID(), Reason: core.ReasonLeft}, left[0].Data)
	assert.Equal(t, 0, f.room.AttendeeCount())
}

func TestRoom_DisplayDispose(t *testing.T) {
	f := newFixture(t)
	d, _ := f.display(t)

	d.Dispose()
	d.Dispose()

	assert.Len(t, f.pconn.Named(core.EventDisplayLeft), 1)
	assert.Equal(t, 0, f.room.DisplayCount())
}

func TestRoom_DisposeIfUnattended(t *testing.T) {
	owner := &domain.User{ID: "owner"}
	room := core.NewRoom(core.Config{ID: "r", PIN: "000001", Owner: owner})

	assert.True(t, room.DisposeIfUnattended())
	assert.False(t, room.DisposeIfUnattended())

	f := newFixture(t)
	assert.False(t, f.room.DisposeIfUnattended())
}

func TestRoom_BackpressureAbortsSlowConnection(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)

	slow := mocks.NewMockConnection(ctrl)
	gomock.InOrder(
		slow.EXPECT().Send(gomock.Any()).Return(nil),
		slow.EXPECT().Send(gomock.Any()).Return(core.ErrBackpressure),
		slow.EXPECT().Abort().Times(1),
	)
	_, err := f.room.AddDisplay(slow, &domain.User{ID: "screen"})
	require.NoError(t, err)

	require.NoError(t, f.room.UpdateTitle("Still works"))
	assert.Len(t, f.pconn.Named(core.EventTitleUpdate), 1)
}

func TestRoom_ClosedConnectionIsTolerated(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)

	gone := mocks.NewMockConnection(ctrl)
	gone.EXPECT().Send(gomock.Any()).Return(errors.New("broken pipe")).AnyTimes()
	gone.EXPECT().Abort().Times(0)
	_, err := f.room.AddAttendee(gone, &domain.User{ID: "ghost"})
	require.NoError(t, err)

	require.NoError(t, f.room.UpdateTitle("Next"))
	assert.Equal(t, 1, f.room.AttendeeCount())
}

func TestRoom_ConcurrentMutations(t *testing.T) {
	f := newFixture(t)
	var attendees []*core.Attendee
	for i := range 20 {
		a, _ := f.join(t, string(rune('a'+i)))
		attendees = append(attendees, a)
	}

	var wg sync.WaitGroup
	for _, a := range attendees {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.room.Approve(a.ID())
			_ = a.RaiseHand()
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = f.room.UpdateState(domain.RoomLocked)
		_ = f.room.UpdateTitle("Busy")
	}()
	wg.Wait()

	for _, a := range attendees {
		assert.Equal(t, domain.AttendeeConnected, a.State())
		assert.True(t, a.IsRaisingHand())
	}
}
