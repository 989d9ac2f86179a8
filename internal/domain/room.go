package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

type (
	RoomID string
	PIN    string
)

const (
	PINLength   = 6
	PINAlphabet = "0123456789"

	MaxTitleLen  = 120
	DefaultTitle = "Untitled room"
)

func NewRoomID() RoomID {
	return RoomID(uuid.NewString())
}

// ParsePIN validates user input as a PIN.
func ParsePIN(s string) (PIN, error) {
	s = strings.TrimSpace(s)
	if len(s) != PINLength {
		return "", ErrInvalidPIN
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(PINAlphabet, s[i]) < 0 {
			return "", ErrInvalidPIN
		}
	}
	return PIN(s), nil
}

// ParseTitle trims the title and checks its length and charset.
func ParseTitle(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || !utf8.ValidString(s) || utf8.RuneCountInString(s) > MaxTitleLen {
		return "", ErrInvalidTitle
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return "", ErrInvalidTitle
		}
	}
	return s, nil
}

type RoomState string

const (
	RoomUnlocked   RoomState = "unlocked"
	RoomLocked     RoomState = "locked"
	RoomPermissive RoomState = "permissive"
	RoomDisposed   RoomState = "disposed"
)

func ParseRoomState(s string) (RoomState, error) {
	switch st := RoomState(strings.ToLower(strings.TrimSpace(s))); st {
	case RoomUnlocked, RoomLocked, RoomPermissive, RoomDisposed:
		return st, nil
	default:
		return "", ErrInvalidState
	}
}

// Operating reports whether the room is still live.
func (s RoomState) Operating() bool {
	switch s {
	case RoomUnlocked, RoomLocked, RoomPermissive:
		return true
	default:
		return false
	}
}

// CheckTransition validates a move from s to next. Disposed is terminal; operating
// states move freely between each other. Entering disposed is allowed here and
// reserved for dispose by the room itself.
func (s RoomState) CheckTransition(next RoomState) error {
	switch {
	case s == RoomDisposed:
		return ErrRoomDisposed
	case next == RoomDisposed:
		return nil
	case !next.Operating():
		return ErrInvalidState
	case s == next:
		return ErrStateUnchanged
	}
	return nil
}
