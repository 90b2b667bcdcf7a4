package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-console/internal/model"
	"github.com/stemsi/exstem-console/internal/quizstatus"
	"github.com/stemsi/exstem-console/internal/repository"
)

// Attempt errors.
var (
	ErrQuizNotAvailable     = errors.New("quiz is not accepting attempts")
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrAttemptSubmitted     = errors.New("attempt already submitted")
	ErrAnswerUnknownSlot    = errors.New("answer references an unknown slot")
	ErrAnswerDuplicatedSlot = errors.New("slot answered twice")
)

// AttemptService implements the student-facing flow and the rating summary
// shown on the analytics page.
type AttemptService struct {
	quizzes  *repository.QuizRepository
	attempts *repository.AttemptRepository
	status   quizstatus.Resolver
	log      zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(quizzes *repository.QuizRepository, attempts *repository.AttemptRepository, status quizstatus.Resolver, log zerolog.Logger) *AttemptService {
	return &AttemptService{quizzes: quizzes, attempts: attempts, status: status, log: log}
}

// GetPublicQuiz returns the student view. Drafts are hidden.
func (s *AttemptService) GetPublicQuiz(ctx context.Context, publicID string) (*model.PublicQuiz, error) {
	q, err := s.quizzes.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if s.status.ForQuiz(*q).Key == quizstatus.Draft {
		return nil, ErrQuizNotFound
	}

	return &model.PublicQuiz{
		PublicID:    q.PublicID,
		Title:       q.Title,
		Description: q.Description,
		StartTime:   q.StartTime,
		EndTime:     q.EndTime,
		Slots:       q.Slots,
	}, nil
}

// Start opens an attempt on a published quiz.
func (s *AttemptService) Start(ctx context.Context, publicID string, req model.StartAttemptRequest) (*model.Attempt, error) {
	q, err := s.quizzes.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if !s.status.ForQuiz(*q).AcceptsAttempts() {
		return nil, ErrQuizNotAvailable
	}

	a := &model.Attempt{
		QuizID:            q.ID,
		StudentIdentifier: req.StudentIdentifier,
		StartedAt:         s.now(),
	}
	if err := s.attempts.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.log.Info().Int64("attempt_id", a.ID).Int64("quiz_id", q.ID).Msg("Attempt started")
	return a, nil
}

func (s *AttemptService) Get(ctx context.Context, id int64) (*model.Attempt, error) {
	a, err := s.attempts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	return a, nil
}

// Submit stores the ratings and closes the attempt. Every answer must name
// a distinct slot of the attempt's quiz.
func (s *AttemptService) Submit(ctx context.Context, id int64, answers []model.Answer) (*model.Attempt, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Submitted() {
		return nil, ErrAttemptSubmitted
	}

	slots, err := s.quizzes.ListSlots(ctx, a.QuizID)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	valid := make(map[int64]bool, len(slots))
	for _, slot := range slots {
		valid[slot.ID] = true
	}
	seen := make(map[int64]bool, len(answers))
	for _, ans := range answers {
		if !valid[ans.SlotID] {
			return nil, ErrAnswerUnknownSlot
		}
		if seen[ans.SlotID] {
			return nil, ErrAnswerDuplicatedSlot
		}
		seen[ans.SlotID] = true
	}

	now := s.now()
	a.Answers = answers
	a.SubmittedAt = &now
	if err := s.attempts.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("submit attempt: %w", err)
	}

	s.log.Info().Int64("attempt_id", id).Int("answers", len(answers)).Msg("Attempt submitted")
	return a, nil
}

// Analytics summarizes submitted ratings per slot. The agreement and
// reliability coefficients are left empty; the production API computes them.
func (s *AttemptService) Analytics(ctx context.Context, quiz *model.Quiz) (*model.Analytics, error) {
	attempts, err := s.attempts.ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	ratings := make(map[int64][]float64, len(quiz.Slots))
	raters := 0
	for _, a := range attempts {
		if !a.Submitted() {
			continue
		}
		raters++
		for _, ans := range a.Answers {
			ratings[ans.SlotID] = append(ratings[ans.SlotID], float64(ans.Rating))
		}
	}

	out := &model.Analytics{
		QuizID:        quiz.ID,
		AttemptCount:  len(attempts),
		RaterCount:    raters,
		Correlations:  []model.SlotCorrelation{},
		PairedTTests:  []model.PairedTTest{},
		SlotSummaries: make([]model.SlotRatingSummary, 0, len(quiz.Slots)),
	}
	for _, slot := range quiz.Slots {
		summary := model.SlotRatingSummary{SlotID: slot.ID, Label: slot.Label, Count: len(ratings[slot.ID])}
		summary.Mean, summary.StdDev = meanStdDev(ratings[slot.ID])
		out.SlotSummaries = append(out.SlotSummaries, summary)
	}
	return out, nil
}

func (s *AttemptService) now() string {
	clock := time.Now
	if s.status.Now != nil {
		clock = s.status.Now
	}
	return clock().UTC().Format(time.RFC3339)
}

// meanStdDev returns the mean and sample standard deviation; either is nil
// when undefined for the sample size.
func meanStdDev(xs []float64) (*float64, *float64) {
	if len(xs) == 0 {
		return nil, nil
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	if len(xs) < 2 {
		return &mean, nil
	}

	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	sd := math.Sqrt(sq / float64(len(xs)-1))
	return &mean, &sd
}
