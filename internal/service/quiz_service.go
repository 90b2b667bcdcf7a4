package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-console/internal/model"
	"github.com/stemsi/exstem-console/internal/quizstatus"
	"github.com/stemsi/exstem-console/internal/repository"
)

// Quiz errors.
var (
	ErrQuizNotFound      = errors.New("quiz not found")
	ErrNotQuizAuthor     = errors.New("not the quiz author")
	ErrQuizNotEditable   = errors.New("quiz slots are locked")
	ErrQuizNotPublished  = errors.New("quiz is not published")
	ErrNoSlots           = errors.New("quiz has no slots")
	ErrBankNotFound      = errors.New("bank not found")
	ErrProblemNotInBank  = errors.New("problem does not belong to bank")
	ErrSlotNotFound      = errors.New("slot not found")
	ErrInvalidTimeFormat = errors.New("time must be RFC 3339")
)

// QuizService implements instructor quiz management.
type QuizService struct {
	quizzes *repository.QuizRepository
	banks   *repository.BankRepository
	status  quizstatus.Resolver
	log     zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(quizzes *repository.QuizRepository, banks *repository.BankRepository, status quizstatus.Resolver, log zerolog.Logger) *QuizService {
	return &QuizService{quizzes: quizzes, banks: banks, status: status, log: log}
}

func (s *QuizService) List(ctx context.Context, ownerID int64) ([]model.Quiz, error) {
	return s.quizzes.ListByOwner(ctx, ownerID)
}

// Get returns a quiz owned by ownerID.
func (s *QuizService) Get(ctx context.Context, ownerID, id int64) (*model.Quiz, error) {
	q, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if q.OwnerID != ownerID {
		return nil, ErrNotQuizAuthor
	}
	return q, nil
}

func (s *QuizService) Create(ctx context.Context, ownerID int64, req model.CreateQuizRequest) (*model.Quiz, error) {
	now := s.now()
	q := &model.Quiz{
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.quizzes.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}

	s.log.Info().Int64("quiz_id", q.ID).Int64("owner_id", ownerID).Msg("Quiz created")
	return s.Get(ctx, ownerID, q.ID)
}

// Update applies a partial update. An empty start_time or end_time clears it.
func (s *QuizService) Update(ctx context.Context, ownerID, id int64, req model.UpdateQuizRequest) (*model.Quiz, error) {
	q, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		q.Title = *req.Title
	}
	if req.Description != nil {
		q.Description = *req.Description
	}
	if req.StartTime != nil {
		if q.StartTime, err = normalizeTime(*req.StartTime); err != nil {
			return nil, err
		}
	}
	if req.EndTime != nil {
		if q.EndTime, err = normalizeTime(*req.EndTime); err != nil {
			return nil, err
		}
	}
	q.UpdatedAt = s.now()

	if err := s.quizzes.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("update quiz: %w", err)
	}
	return s.Get(ctx, ownerID, id)
}

func (s *QuizService) Delete(ctx context.Context, ownerID, id int64) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	return s.quizzes.Delete(ctx, id)
}

// Publish opens the quiz now. Quizzes without slots cannot be published.
func (s *QuizService) Publish(ctx context.Context, ownerID, id int64) (*model.Quiz, error) {
	q, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if len(q.Slots) == 0 {
		return nil, ErrNoSlots
	}

	now := s.now()
	q.StartTime = &now
	q.EndTime = nil
	q.UpdatedAt = now
	if err := s.quizzes.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("publish quiz: %w", err)
	}

	s.log.Info().Int64("quiz_id", id).Msg("Quiz published")
	return s.Get(ctx, ownerID, id)
}

// Close stops new attempts by setting the end time.
func (s *QuizService) Close(ctx context.Context, ownerID, id int64) (*model.Quiz, error) {
	q, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if s.status.ForQuiz(*q).Key == quizstatus.Draft {
		return nil, ErrQuizNotPublished
	}

	now := s.now()
	q.EndTime = &now
	q.UpdatedAt = now
	if err := s.quizzes.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("close quiz: %w", err)
	}

	s.log.Info().Int64("quiz_id", id).Msg("Quiz closed")
	return s.Get(ctx, ownerID, id)
}

func (s *QuizService) ListSlots(ctx context.Context, ownerID, quizID int64) ([]model.Slot, error) {
	q, err := s.Get(ctx, ownerID, quizID)
	if err != nil {
		return nil, err
	}
	return q.Slots, nil
}

// AddSlot places a bank problem into an editable quiz.
func (s *QuizService) AddSlot(ctx context.Context, ownerID, quizID int64, req model.AddSlotRequest) (*model.Slot, error) {
	q, err := s.Get(ctx, ownerID, quizID)
	if err != nil {
		return nil, err
	}
	if !s.status.ForQuiz(*q).Editable() {
		return nil, ErrQuizNotEditable
	}

	if _, err := s.banks.GetByID(ctx, req.BankID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBankNotFound
		}
		return nil, fmt.Errorf("load bank: %w", err)
	}

	slot := &model.Slot{QuizID: quizID, BankID: req.BankID, Label: req.Label}
	if req.ProblemID != nil {
		p, err := s.banks.GetProblem(ctx, *req.ProblemID)
		if err != nil || p.BankID != req.BankID {
			return nil, ErrProblemNotInBank
		}
		id := p.ID
		slot.ProblemID = &id
		slot.Problem = p
	}

	if err := s.quizzes.AddSlot(ctx, slot); err != nil {
		return nil, fmt.Errorf("add slot: %w", err)
	}
	return slot, nil
}

func (s *QuizService) RemoveSlot(ctx context.Context, ownerID, quizID, slotID int64) error {
	q, err := s.Get(ctx, ownerID, quizID)
	if err != nil {
		return err
	}
	if !s.status.ForQuiz(*q).Editable() {
		return ErrQuizNotEditable
	}
	if err := s.quizzes.DeleteSlot(ctx, quizID, slotID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSlotNotFound
		}
		return fmt.Errorf("remove slot: %w", err)
	}
	return nil
}

func (s *QuizService) ListBanks(ctx context.Context) ([]model.ProblemBank, error) {
	return s.banks.List(ctx)
}

func (s *QuizService) ListBankProblems(ctx context.Context, bankID int64) ([]model.Problem, error) {
	problems, err := s.banks.ListProblems(ctx, bankID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBankNotFound
	}
	return problems, err
}

func (s *QuizService) now() string {
	clock := time.Now
	if s.status.Now != nil {
		clock = s.status.Now
	}
	return clock().UTC().Format(time.RFC3339)
}

func normalizeTime(raw string) (*string, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, ErrInvalidTimeFormat
	}
	out := t.UTC().Format(time.RFC3339)
	return &out, nil
}
