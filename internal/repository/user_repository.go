package repository

import (
	"context"
	"strings"

	"github.com/stemsi/exstem-console/internal/model"
)

// UserRepository stores instructor accounts.
type UserRepository struct {
	db *MemoryDB
}

func NewUserRepository(db *MemoryDB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user with a bcrypt password hash and sets user.ID.
func (r *UserRepository) Create(_ context.Context, user *model.User, passwordHash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := strings.ToLower(user.Username)
	if _, exists := r.db.usernames[key]; exists {
		return ErrConflict
	}
	user.ID = r.db.id()
	r.db.users[user.ID] = userRow{user: *user, passwordHash: passwordHash}
	r.db.usernames[key] = user.ID
	return nil
}

// GetByUsername returns the user and its password hash.
func (r *UserRepository) GetByUsername(_ context.Context, username string) (*model.User, string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.usernames[strings.ToLower(username)]
	if !ok {
		return nil, "", ErrNotFound
	}
	row := r.db.users[id]
	user := row.user
	return &user, row.passwordHash, nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	row, ok := r.db.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user := row.user
	return &user, nil
}
