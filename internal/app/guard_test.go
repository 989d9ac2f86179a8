package app_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dkeye/clicker/internal/app"
	"github.com/dkeye/clicker/internal/auth"
	"github.com/dkeye/clicker/internal/core"
	"github.com/dkeye/clicker/internal/core/coretest"
	"github.com/dkeye/clicker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestAs(u *domain.User) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if u == nil {
		return r
	}
	return r.WithContext(auth.WithUser(r.Context(), u))
}

func assertIntent(t *testing.T, err error, want app.Intent) {
	t.Helper()
	var ge *app.GuardError
	require.True(t, errors.As(err, &ge), "expected guard error, got %v", err)
	assert.Equal(t, want, ge.Intent)
}

type guardFixture struct {
	dir    *app.Directory
	guards *app.Guards
	owner  *domain.User
	room   *core.Room
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()
	dir := app.NewDirectory(nil, nil)
	owner := user("olga")
	room, err := dir.InsertLive(owner, "")
	require.NoError(t, err)
	return &guardFixture{dir: dir, guards: app.NewGuards(dir), owner: owner, room: room}
}

func TestIntentOf(t *testing.T) {
	cases := map[error]app.Intent{
		domain.ErrRoomNotFound:     app.IntentNotFound,
		domain.ErrNotAuthenticated: app.IntentUnauthorized,
		domain.ErrRoomLocked:       app.IntentConflict,
		domain.ErrAttendeeBanned:   app.IntentBanned,
		domain.ErrRoomDisposed:     app.IntentClosed,
		domain.ErrInvalidPIN:       app.IntentBadRequest,
		app.ErrPINSpaceExhausted:   app.IntentInternal,
	}
	for err, want := range cases {
		assert.Equal(t, want, app.IntentOf(err), err.Error())
	}
	assert.Equal(t, app.IntentConflict, app.IntentOf(fmt.Errorf("wrap: %w", domain.ErrPINTaken)))

	assert.Nil(t, app.Reject(nil))
	rejected := app.Reject(domain.ErrRoomLocked)
	assert.Same(t, rejected, app.Reject(rejected))
	assert.ErrorIs(t, rejected, domain.ErrConflict)
}

func TestGuards_RequireUser(t *testing.T) {
	f := newGuardFixture(t)
	anon := requestAs(nil)

	_, err := f.guards.Presenter(anon, f.room.ID())
	assertIntent(t, err, app.IntentUnauthorized)
	_, err = f.guards.AttendeeConnect(anon, string(f.room.PIN()))
	assertIntent(t, err, app.IntentUnauthorized)
	_, err = f.guards.Display(anon, f.room.ID())
	assertIntent(t, err, app.IntentUnauthorized)
	_, err = f.guards.AttendeeAction(anon, f.room.ID(), 1)
	assertIntent(t, err, app.IntentUnauthorized)
}

func TestGuards_Presenter(t *testing.T) {
	f := newGuardFixture(t)

	acc, err := f.guards.Presenter(requestAs(f.owner), f.room.ID())
	require.NoError(t, err)
	assert.Same(t, f.room, acc.Room)
	assert.True(t, acc.User.Is(f.owner))

	_, err = f.guards.Presenter(requestAs(user("mallory")), f.room.ID())
	assertIntent(t, err, app.IntentNotFound)
	_, err = f.guards.Presenter(requestAs(f.owner), "missing")
	assertIntent(t, err, app.IntentNotFound)
}

func TestGuards_AttendeeConnect(t *testing.T) {
	f := newGuardFixture(t)
	pin := string(f.room.PIN())

	acc, err := f.guards.AttendeeConnect(requestAs(user("ann")), pin)
	require.NoError(t, err)
	assert.Same(t, f.room, acc.Room)

	for _, bad := range []string{"", "12ab56", "999999x"} {
		_, err = f.guards.AttendeeConnect(requestAs(user("ann")), bad)
		assertIntent(t, err, app.IntentNotFound)
	}

	require.NoError(t, f.room.UpdateState(domain.RoomLocked))
	_, err = f.guards.AttendeeConnect(requestAs(user("ann")), pin)
	assertIntent(t, err, app.IntentConflict)
}

func TestGuards_AttendeeConnect_Banned(t *testing.T) {
	f := newGuardFixture(t)
	ann := user("ann")
	a, err := f.room.AddAttendee(coretest.NewRecorder(), ann)
	require.NoError(t, err)
	require.NoError(t, a.Ban())

	_, err = f.guards.AttendeeConnect(requestAs(ann), string(f.room.PIN()))
	assertIntent(t, err, app.IntentBanned)
}

func TestGuards_AttendeeAction(t *testing.T) {
	f := newGuardFixture(t)
	ann := user("ann")
	a, err := f.room.AddAttendee(coretest.NewRecorder(), ann)
	require.NoError(t, err)

	_, err = f.guards.AttendeeAction(requestAs(ann), f.room.ID(), a.ID())
	assertIntent(t, err, app.IntentConflict)

	require.NoError(t, a.Approve())
	got, err := f.guards.AttendeeAction(requestAs(ann), f.room.ID(), a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = f.guards.AttendeeAction(requestAs(user("bob")), f.room.ID(), a.ID())
	assertIntent(t, err, app.IntentNotFound)
	_, err = f.guards.AttendeeAction(requestAs(ann), f.room.ID(), a.ID()+100)
	assertIntent(t, err, app.IntentNotFound)
	_, err = f.guards.AttendeeAction(requestAs(ann), "missing", a.ID())
	assertIntent(t, err, app.IntentNotFound)
}

func TestGuards_Display(t *testing.T) {
	f := newGuardFixture(t)
	acc, err := f.guards.Display(requestAs(user("screen")), f.room.ID())
	require.NoError(t, err)
	assert.Same(t, f.room, acc.Room)

	f.room.Dispose()
	_, err = f.guards.Display(requestAs(user("screen")), f.room.ID())
	assertIntent(t, err, app.IntentNotFound)
}

func TestGuards_Discover(t *testing.T) {
	f := newGuardFixture(t)
	require.NoError(t, f.room.UpdateState(domain.RoomLocked))

	acc, err := f.guards.Discover(requestAs(user("ann")), string(f.room.PIN()))
	require.NoError(t, err)
	assert.Same(t, f.room, acc.Room)

	_, err = f.guards.Discover(requestAs(user("ann")), "000000x")
	assertIntent(t, err, app.IntentNotFound)
}
