package app

import (
	"sync"

	"github.com/dkeye/clicker/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultUsername = "guest"

// Users keeps guest identities keyed by their browser session ID.
type Users struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewUsers() *Users {
	return &Users{users: make(map[string]*domain.User)}
}

func (r *Users) GetOrCreate(sid string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[sid]; ok {
		return u
	}
	u := &domain.User{ID: domain.UserID(sid), Username: DefaultUsername}
	r.users[sid] = u
	log.Info().Str("module", "app.users").Str("sid", sid).Msg("created new user")
	return u
}

func (r *Users) Get(sid string) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[sid]
	return u, ok
}

// Rename replaces the user's display name. Entities already in rooms keep the
// name they joined with.
func (r *Users) Rename(sid string, name string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[sid]
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	renamed := *u
	if err := renamed.SetUsername(name); err != nil {
		return nil, err
	}
	r.users[sid] = &renamed
	log.Info().Str("module", "app.users").Str("sid", sid).Str("username", renamed.Username).Msg("updated username")
	return &renamed, nil
}

func (r *Users) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
