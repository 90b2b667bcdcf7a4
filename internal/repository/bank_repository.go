package repository

import (
	"context"
	"sort"

	"github.com/stemsi/exstem-console/internal/model"
)

// BankRepository stores problem banks and their problems.
type BankRepository struct {
	db *MemoryDB
}

func NewBankRepository(db *MemoryDB) *BankRepository {
	return &BankRepository{db: db}
}

func (r *BankRepository) List(_ context.Context) ([]model.ProblemBank, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	banks := make([]model.ProblemBank, 0, len(r.db.banks))
	for _, b := range r.db.banks {
		banks = append(banks, b)
	}
	sort.Slice(banks, func(i, j int) bool { return banks[i].ID < banks[j].ID })
	return banks, nil
}

func (r *BankRepository) GetByID(_ context.Context, id int64) (*model.ProblemBank, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	b, ok := r.db.banks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *BankRepository) Create(_ context.Context, b *model.ProblemBank) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	b.ID = r.db.id()
	b.ProblemCount = 0
	r.db.banks[b.ID] = *b
	return nil
}

// AddProblem appends p to its bank.
func (r *BankRepository) AddProblem(_ context.Context, p *model.Problem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	bank, ok := r.db.banks[p.BankID]
	if !ok {
		return ErrNotFound
	}
	bank.ProblemCount++
	p.ID = r.db.id()
	p.Order = bank.ProblemCount
	r.db.banks[bank.ID] = bank
	r.db.problems[p.ID] = *p
	return nil
}

func (r *BankRepository) ListProblems(_ context.Context, bankID int64) ([]model.Problem, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if _, ok := r.db.banks[bankID]; !ok {
		return nil, ErrNotFound
	}
	problems := make([]model.Problem, 0)
	for _, p := range r.db.problems {
		if p.BankID == bankID {
			problems = append(problems, p)
		}
	}
	sort.Slice(problems, func(i, j int) bool { return problems[i].Order < problems[j].Order })
	return problems, nil
}

func (r *BankRepository) GetProblem(_ context.Context, id int64) (*model.Problem, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.problems[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}
