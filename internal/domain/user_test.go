package domain_test

import (
	"strings"
	"testing"

	"github.com/dkeye/clicker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := domain.NewUser("  nina ")
	require.NoError(t, err)
	assert.Equal(t, "nina", u.Username)
	assert.NotEmpty(t, u.ID)

	other, err := domain.NewUser("nina")
	require.NoError(t, err)
	assert.False(t, u.Is(other), "same name, different identity")
	assert.True(t, u.Is(&domain.User{ID: u.ID}))
	assert.False(t, u.Is(nil))

	_, err = domain.NewUser(" ")
	assert.ErrorIs(t, err, domain.ErrUsernameEmpty)
	_, err = domain.NewUser(strings.Repeat("n", domain.MaxUsernameLen+1))
	assert.ErrorIs(t, err, domain.ErrUsernameTooLong)

	require.NoError(t, u.SetUsername("Nina K"))
	assert.Equal(t, "Nina K", u.Username)
	assert.Error(t, u.SetUsername(""))
}
