package repository

import (
	"context"
	"sort"

	"github.com/stemsi/exstem-console/internal/model"
)

// AttemptRepository stores student attempts.
type AttemptRepository struct {
	db *MemoryDB
}

func NewAttemptRepository(db *MemoryDB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) Create(_ context.Context, a *model.Attempt) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.quizzes[a.QuizID]; !ok {
		return ErrNotFound
	}
	a.ID = r.db.id()
	r.db.attempts[a.ID] = *a
	return nil
}

func (r *AttemptRepository) GetByID(_ context.Context, id int64) (*model.Attempt, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	a, ok := r.db.attempts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *AttemptRepository) Update(_ context.Context, a *model.Attempt) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.attempts[a.ID]; !ok {
		return ErrNotFound
	}
	r.db.attempts[a.ID] = *a
	return nil
}

func (r *AttemptRepository) ListByQuiz(_ context.Context, quizID int64) ([]model.Attempt, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	attempts := make([]model.Attempt, 0)
	for _, a := range r.db.attempts {
		if a.QuizID == quizID {
			attempts = append(attempts, a)
		}
	}
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].ID < attempts[j].ID })
	return attempts, nil
}
