// Package repository holds the development server's data. Everything lives
// in memory and is lost on restart.
package repository

import (
	"errors"
	"sync"

	"github.com/stemsi/exstem-console/internal/model"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned on a uniqueness violation.
var ErrConflict = errors.New("conflict")

// MemoryDB is the shared backing store of every repository.
type MemoryDB struct {
	mu     sync.RWMutex
	nextID int64

	users     map[int64]userRow
	usernames map[string]int64
	quizzes   map[int64]model.Quiz
	publicIDs map[string]int64
	slots     map[int64][]model.Slot // by quiz
	banks     map[int64]model.ProblemBank
	problems  map[int64]model.Problem
	attempts  map[int64]model.Attempt
}

type userRow struct {
	user         model.User
	passwordHash string
}

// NewMemoryDB creates an empty store.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:     map[int64]userRow{},
		usernames: map[string]int64{},
		quizzes:   map[int64]model.Quiz{},
		publicIDs: map[string]int64{},
		slots:     map[int64][]model.Slot{},
		banks:     map[int64]model.ProblemBank{},
		problems:  map[int64]model.Problem{},
		attempts:  map[int64]model.Attempt{},
	}
}

// id must be called with mu held.
func (db *MemoryDB) id() int64 {
	db.nextID++
	return db.nextID
}
