package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-console/internal/config"
	"github.com/stemsi/exstem-console/internal/middleware"
	"github.com/stemsi/exstem-console/internal/model"
	"github.com/stemsi/exstem-console/internal/repository"
	"github.com/stemsi/exstem-console/internal/response"
	"github.com/stemsi/exstem-console/internal/service"
	"github.com/stemsi/exstem-console/internal/validator"
)

// AuthHandler handles session, CSRF and login endpoints.
type AuthHandler struct {
	cfg         *config.Config
	authService *service.AuthService
	users       *repository.UserRepository
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg *config.Config, authService *service.AuthService, users *repository.UserRepository, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, authService: authService, users: users, log: log}
}

// CSRF godoc
// GET /api/auth/csrf/
// Returns the session's CSRF token, opening a session when needed.
func (h *AuthHandler) CSRF(c *gin.Context) {
	current, _ := c.Cookie(middleware.SessionCookie)
	id, token := h.authService.EnsureSession(current)
	if id != current {
		h.setCookie(c, middleware.SessionCookie, id, 0)
	}
	response.Success(c, http.StatusOK, gin.H{"csrfToken": token})
}

// Login godoc
// POST /api/auth/login/
// Checks the instructor's password and sets the access cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if errs := validator.Bind(c, &req); errs != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, errs)
		return
	}

	// The token rotates on every attempt, before any response is written.
	sessionID, _ := c.Cookie(middleware.SessionCookie)
	h.authService.RotateCSRF(sessionID)

	user, err := h.authService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.log.Warn().Str("username", req.Username).Msg("Login rejected")
			response.Fail(c, http.StatusForbidden, response.ErrInvalidCredentials)
			return
		}
		failService(c, h.log, err)
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	h.setCookie(c, middleware.AccessCookie, token, int(h.cfg.JWTExpiry.Seconds()))

	h.log.Info().Int64("user_id", user.ID).Msg("Instructor logged in")
	response.Success(c, http.StatusOK, user)
}

// Logout godoc
// POST /api/auth/logout/
// Drops the access cookie and rotates the CSRF token.
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, _ := c.Cookie(middleware.SessionCookie)
	h.authService.RotateCSRF(sessionID)
	h.setCookie(c, middleware.AccessCookie, "", -1)
	response.NoContent(c)
}

// Me godoc
// GET /api/auth/me/
// Returns the authenticated instructor.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusForbidden, response.ErrNotAuthenticated)
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusForbidden, response.ErrTokenInvalid)
		return
	}
	response.Success(c, http.StatusOK, user)
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", h.cfg.GinMode == "release", true)
}
