package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-console/internal/model"
	"github.com/stemsi/exstem-console/internal/response"
	"github.com/stemsi/exstem-console/internal/service"
	"github.com/stemsi/exstem-console/internal/validator"
)

// AttemptHandler handles the student-facing endpoints. None of them need
// an instructor login.
type AttemptHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService, log zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService, log: log}
}

// GetPublicQuiz godoc
// GET /api/public/quizzes/:public_id/
func (h *AttemptHandler) GetPublicQuiz(c *gin.Context) {
	q, err := h.attemptService.GetPublicQuiz(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

// StartAttempt godoc
// POST /api/public/quizzes/:public_id/attempts/
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req model.StartAttemptRequest
	if errs := validator.Bind(c, &req); errs != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, errs)
		return
	}

	a, err := h.attemptService.Start(c.Request.Context(), c.Param("public_id"), req)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, a)
}

// GetAttempt godoc
// GET /api/attempts/:id/
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	a, err := h.attemptService.Get(c.Request.Context(), id)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, a)
}

// SubmitAttempt godoc
// POST /api/attempts/:id/submit/
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.SubmitAttemptRequest
	if errs := validator.Bind(c, &req); errs != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, errs)
		return
	}

	a, err := h.attemptService.Submit(c.Request.Context(), id, req.Answers)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, a)
}
