// Package devapi assembles the in-memory development backend that speaks
// the same CSRF, session and error contracts as the production API.
package devapi

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-console/internal/config"
	"github.com/stemsi/exstem-console/internal/handler"
	"github.com/stemsi/exstem-console/internal/model"
	"github.com/stemsi/exstem-console/internal/quizstatus"
	"github.com/stemsi/exstem-console/internal/repository"
	"github.com/stemsi/exstem-console/internal/router"
	"github.com/stemsi/exstem-console/internal/service"
	"github.com/stemsi/exstem-console/internal/validator"
)

// Server is a wired development backend.
type Server struct {
	Engine *gin.Engine
	Auth   *service.AuthService

	users *repository.UserRepository
	banks *repository.BankRepository
	log   zerolog.Logger
}

// New wires repositories, services, handlers and routes. The store starts
// empty; call Seed for the default instructor and banks.
func New(cfg *config.Config, log zerolog.Logger) *Server {
	validator.Setup()

	db := repository.NewMemoryDB()
	userRepo := repository.NewUserRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	bankRepo := repository.NewBankRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)

	status := quizstatus.Resolver{}
	authService := service.NewAuthService(cfg, userRepo)
	quizService := service.NewQuizService(quizRepo, bankRepo, status, log)
	attemptService := service.NewAttemptService(quizRepo, attemptRepo, status, log)

	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, authService, userRepo, log),
		Quiz:    handler.NewQuizHandler(quizService, attemptService, log),
		Bank:    handler.NewBankHandler(quizService, log),
		Attempt: handler.NewAttemptHandler(attemptService, log),
	}

	return &Server{
		Engine: router.SetupRouter(cfg, log, authService, handlers),
		Auth:   authService,
		users:  userRepo,
		banks:  bankRepo,
		log:    log,
	}
}

// CreateInstructor registers an instructor account.
func (s *Server) CreateInstructor(ctx context.Context, user *model.User, password string) error {
	hash, err := s.Auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.Create(ctx, user, hash); err != nil {
		return fmt.Errorf("create instructor %q: %w", user.Username, err)
	}
	return nil
}

// CreateBank registers a bank with the given problem titles and returns it.
func (s *Server) CreateBank(ctx context.Context, name string, problems ...string) (*model.ProblemBank, error) {
	bank := &model.ProblemBank{Name: name}
	if err := s.banks.Create(ctx, bank); err != nil {
		return nil, fmt.Errorf("create bank: %w", err)
	}
	for _, title := range problems {
		p := &model.Problem{BankID: bank.ID, Title: title, Statement: "### " + title}
		if err := s.banks.AddProblem(ctx, p); err != nil {
			return nil, fmt.Errorf("add problem: %w", err)
		}
	}
	bank.ProblemCount = len(problems)
	return bank, nil
}

// Seed creates the configured instructor and two sample banks.
func (s *Server) Seed(ctx context.Context, cfg *config.Config) error {
	user := &model.User{Username: cfg.DevUsername, Name: "Development Instructor", Email: cfg.DevUsername + "@localhost"}
	if err := s.CreateInstructor(ctx, user, cfg.DevPassword); err != nil {
		return err
	}

	if _, err := s.CreateBank(ctx, "Algebra", "Linear equations", "Quadratic roots", "Systems of equations"); err != nil {
		return err
	}
	if _, err := s.CreateBank(ctx, "Geometry", "Triangle area", "Circle chords"); err != nil {
		return err
	}

	s.log.Info().Str("username", cfg.DevUsername).Msg("Development data seeded")
	return nil
}
