package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-console/internal/model"
)

// QuizRepository stores quizzes and their slots.
type QuizRepository struct {
	db *MemoryDB
}

func NewQuizRepository(db *MemoryDB) *QuizRepository {
	return &QuizRepository{db: db}
}

// ListByOwner returns the owner's quizzes, newest first.
func (r *QuizRepository) ListByOwner(_ context.Context, ownerID int64) ([]model.Quiz, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	quizzes := make([]model.Quiz, 0)
	for _, q := range r.db.quizzes {
		if q.OwnerID == ownerID {
			q.SlotCount = len(r.db.slots[q.ID])
			quizzes = append(quizzes, q)
		}
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].ID > quizzes[j].ID })
	return quizzes, nil
}

// GetByID returns the quiz with its slots.
func (r *QuizRepository) GetByID(_ context.Context, id int64) (*model.Quiz, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.load(id)
}

func (r *QuizRepository) GetByPublicID(_ context.Context, publicID string) (*model.Quiz, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.publicIDs[publicID]
	if !ok {
		return nil, ErrNotFound
	}
	return r.load(id)
}

// Create inserts q, assigning ID and PublicID.
func (r *QuizRepository) Create(_ context.Context, q *model.Quiz) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	q.ID = r.db.id()
	q.PublicID = strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	q.Slots = nil
	r.db.quizzes[q.ID] = *q
	r.db.publicIDs[q.PublicID] = q.ID
	return nil
}

// Update replaces the stored quiz fields (slots are managed separately).
func (r *QuizRepository) Update(_ context.Context, q *model.Quiz) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.quizzes[q.ID]
	if !ok {
		return ErrNotFound
	}
	q.PublicID = existing.PublicID
	q.OwnerID = existing.OwnerID
	q.CreatedAt = existing.CreatedAt
	stored := *q
	stored.Slots = nil
	r.db.quizzes[q.ID] = stored
	return nil
}

// Delete removes the quiz together with its slots and attempts.
func (r *QuizRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	q, ok := r.db.quizzes[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.db.quizzes, id)
	delete(r.db.publicIDs, q.PublicID)
	delete(r.db.slots, id)
	for aid, a := range r.db.attempts {
		if a.QuizID == id {
			delete(r.db.attempts, aid)
		}
	}
	return nil
}

func (r *QuizRepository) ListSlots(_ context.Context, quizID int64) ([]model.Slot, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if _, ok := r.db.quizzes[quizID]; !ok {
		return nil, ErrNotFound
	}
	return append(make([]model.Slot, 0), r.db.slots[quizID]...), nil
}

// AddSlot appends s at the end of the quiz, assigning ID, Order and a
// default label.
func (r *QuizRepository) AddSlot(_ context.Context, s *model.Slot) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.quizzes[s.QuizID]; !ok {
		return ErrNotFound
	}
	s.ID = r.db.id()
	s.Order = len(r.db.slots[s.QuizID]) + 1
	if s.Label == "" {
		s.Label = slotLabel(s.Order)
	}
	r.db.slots[s.QuizID] = append(r.db.slots[s.QuizID], *s)
	return nil
}

// DeleteSlot removes a slot and renumbers the remaining ones.
func (r *QuizRepository) DeleteSlot(_ context.Context, quizID, slotID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	slots := r.db.slots[quizID]
	kept := slots[:0:0]
	for _, s := range slots {
		if s.ID != slotID {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(slots) {
		return ErrNotFound
	}
	for i := range kept {
		kept[i].Order = i + 1
	}
	r.db.slots[quizID] = kept
	return nil
}

// load must be called with mu held.
func (r *QuizRepository) load(id int64) (*model.Quiz, error) {
	q, ok := r.db.quizzes[id]
	if !ok {
		return nil, ErrNotFound
	}
	q.Slots = append(make([]model.Slot, 0), r.db.slots[id]...)
	q.SlotCount = len(q.Slots)
	return &q, nil
}

// slotLabel numbers slots A, B, ... Z, AA, AB, ...
func slotLabel(order int) string {
	label := ""
	for n := order; n > 0; n = (n - 1) / 26 {
		label = string(rune('A'+(n-1)%26)) + label
	}
	return label
}
