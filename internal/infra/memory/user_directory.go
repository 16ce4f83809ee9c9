package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"kambaz-quiz-service/internal/domain"
)

// UserDirectory holds users in memory, keyed by id.
type UserDirectory struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserDirectory(users ...domain.User) *UserDirectory {
	d := &UserDirectory{users: make(map[string]domain.User, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *UserDirectory) FindByID(_ context.Context, userID string) (domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if u, ok := d.users[userID]; ok {
		return u, nil
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (d *UserDirectory) FindByUsername(_ context.Context, username string) (domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

// Upsert stores the user, replacing any entry with the same username.
func (d *UserDirectory) Upsert(_ context.Context, user domain.User) (domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, u := range d.users {
		if u.Username == user.Username {
			user.ID = id
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	d.users[user.ID] = user
	return user, nil
}
