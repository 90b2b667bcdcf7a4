package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-console/internal/config"
	"github.com/stemsi/exstem-console/internal/handler"
	"github.com/stemsi/exstem-console/internal/middleware"
	"github.com/stemsi/exstem-console/internal/response"
	"github.com/stemsi/exstem-console/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Quiz    *handler.QuizHandler
	Bank    *handler.BankHandler
	Attempt *handler.AttemptHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	cfg *config.Config,
	log zerolog.Logger,
	authService *service.AuthService,
	handlers *Handlers,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// Cookies travel cross-origin, so origins are always an explicit list.
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins()
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", middleware.HeaderCSRF, "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestLogger(log))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(middleware.RequireCSRF(authService))

	// ─── 1. Auth Group (Login Rate Limited) ────────────────────────────
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	auth := api.Group("/auth")
	{
		auth.GET("/csrf/", handlers.Auth.CSRF)
		auth.POST("/login/", loginLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/logout/", handlers.Auth.Logout)
		auth.GET("/me/", middleware.RequireInstructor(authService), handlers.Auth.Me)
	}

	// ─── 2. Public Group (Students, No Login) ──────────────────────────
	public := api.Group("")
	{
		public.GET("/public/quizzes/:public_id/", handlers.Attempt.GetPublicQuiz)
		public.POST("/public/quizzes/:public_id/attempts/", handlers.Attempt.StartAttempt)
		public.GET("/attempts/:id/", handlers.Attempt.GetAttempt)
		public.POST("/attempts/:id/submit/", handlers.Attempt.SubmitAttempt)
	}

	// ─── 3. Instructor Group (Access Cookie) ───────────────────────────
	instructor := api.Group("")
	instructor.Use(middleware.RequireInstructor(authService))
	{
		instructor.GET("/quizzes/", handlers.Quiz.ListQuizzes)
		instructor.POST("/quizzes/", handlers.Quiz.CreateQuiz)
		instructor.GET("/quizzes/:id/", handlers.Quiz.GetQuiz)
		instructor.PATCH("/quizzes/:id/", handlers.Quiz.UpdateQuiz)
		instructor.DELETE("/quizzes/:id/", handlers.Quiz.DeleteQuiz)
		instructor.POST("/quizzes/:id/publish/", handlers.Quiz.PublishQuiz)
		instructor.POST("/quizzes/:id/close/", handlers.Quiz.CloseQuiz)
		instructor.GET("/quizzes/:id/slots/", handlers.Quiz.ListSlots)
		instructor.POST("/quizzes/:id/slots/", handlers.Quiz.AddSlot)
		instructor.DELETE("/quizzes/:id/slots/:slot_id/", handlers.Quiz.RemoveSlot)
		instructor.GET("/quizzes/:id/analytics/", handlers.Quiz.GetAnalytics)

		instructor.GET("/banks/", handlers.Bank.ListBanks)
		instructor.GET("/banks/:id/problems/", handlers.Bank.ListProblems)
	}

	return router
}
