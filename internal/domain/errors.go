package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every specific error below wraps exactly one of them, so callers
// can switch on the class with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
)

var (
	ErrRoomNotFound     = fmt.Errorf("%w: room", ErrNotFound)
	ErrAttendeeNotFound = fmt.Errorf("%w: attendee", ErrNotFound)

	ErrNotAuthenticated = fmt.Errorf("%w: not authenticated", ErrUnauthorized)

	ErrRoomDisposed        = fmt.Errorf("%w: room disposed", ErrConflict)
	ErrRoomLocked          = fmt.Errorf("%w: room locked", ErrConflict)
	ErrPresenterHasRoom    = fmt.Errorf("%w: presenter already owns a live room", ErrConflict)
	ErrPresenterConnected  = fmt.Errorf("%w: presenter already connected", ErrConflict)
	ErrPINTaken            = fmt.Errorf("%w: pin taken", ErrConflict)
	ErrPINUnchanged        = fmt.Errorf("%w: pin unchanged", ErrConflict)
	ErrStateUnchanged      = fmt.Errorf("%w: state unchanged", ErrConflict)
	ErrEntityGone          = fmt.Errorf("%w: entity not in room", ErrConflict)
	ErrAttendeeBanned      = fmt.Errorf("%w: attendee banned", ErrConflict)
	ErrAlreadyAdmitted     = fmt.Errorf("%w: attendee already admitted", ErrConflict)
	ErrAttendeeNotAdmitted = fmt.Errorf("%w: attendee not connected", ErrConflict)
	ErrHandAlreadyRaised   = fmt.Errorf("%w: hand already raised", ErrConflict)
	ErrHandNotRaised       = fmt.Errorf("%w: hand not raised", ErrConflict)

	ErrInvalidPIN        = fmt.Errorf("%w: invalid pin", ErrBadRequest)
	ErrInvalidTitle      = fmt.Errorf("%w: invalid title", ErrBadRequest)
	ErrInvalidState      = fmt.Errorf("%w: invalid room state", ErrBadRequest)
	ErrInvalidTransition = fmt.Errorf("%w: invalid state transition", ErrBadRequest)
	ErrUsernameEmpty     = fmt.Errorf("%w: username empty", ErrBadRequest)
	ErrUsernameTooLong   = fmt.Errorf("%w: username too long", ErrBadRequest)
)
