// Package domain contains room and user metadata without transport or lifecycle logic.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

const (
	MaxUserIDLen   = 64
	MaxUsernameLen = 36
)

type UserID string

// User is an authenticated account identity. Only ID takes part in equality checks.
type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// NewUser creates a user with a fresh random ID.
func NewUser(username string) (*User, error) {
	name, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	return &User{ID: UserID(uuid.NewString()), Username: name}, nil
}

func (u *User) SetUsername(username string) error {
	name, err := normalizeUsername(username)
	if err != nil {
		return err
	}
	u.Username = name
	return nil
}

// Is reports whether both users have the same identity.
func (u *User) Is(other *User) bool {
	if u == nil || other == nil {
		return false
	}
	return u.ID == other.ID
}

func normalizeUsername(username string) (string, error) {
	name := strings.TrimSpace(username)
	if name == "" {
		return "", ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return "", ErrUsernameTooLong
	}
	return name, nil
}
