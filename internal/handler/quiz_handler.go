package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-console/internal/middleware"
	"github.com/stemsi/exstem-console/internal/model"
	"github.com/stemsi/exstem-console/internal/response"
	"github.com/stemsi/exstem-console/internal/service"
	"github.com/stemsi/exstem-console/internal/validator"
)

// QuizHandler handles instructor quiz, slot and analytics endpoints.
type QuizHandler struct {
	quizService    *service.QuizService
	attemptService *service.AttemptService
	log            zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, attemptService *service.AttemptService, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{quizService: quizService, attemptService: attemptService, log: log}
}

// ListQuizzes godoc
// GET /api/quizzes/
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizzes, err := h.quizService.List(c.Request.Context(), claims.UserID)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, quizzes)
}

// CreateQuiz godoc
// POST /api/quizzes/
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req model.CreateQuizRequest
	if errs := validator.Bind(c, &req); errs != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, errs)
		return
	}

	claims := middleware.GetClaims(c)
	q, err := h.quizService.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, q)
}

// GetQuiz godoc
// GET /api/quizzes/:id/
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	q, err := h.quizService.Get(c.Request.Context(), middleware.GetClaims(c).UserID, id)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

// UpdateQuiz godoc
// PATCH /api/quizzes/:id/
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateQuizRequest
	if errs := validator.Bind(c, &req); errs != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, errs)
		return
	}

	q, err := h.quizService.Update(c.Request.Context(), middleware.GetClaims(c).UserID, id, req)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

// DeleteQuiz godoc
// DELETE /api/quizzes/:id/
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.quizService.Delete(c.Request.Context(), middleware.GetClaims(c).UserID, id); err != nil {
		failService(c, h.log, err)
		return
	}
	response.NoContent(c)
}

// PublishQuiz godoc
// POST /api/quizzes/:id/publish/
func (h *QuizHandler) PublishQuiz(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	q, err := h.quizService.Publish(c.Request.Context(), middleware.GetClaims(c).UserID, id)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

// CloseQuiz godoc
// POST /api/quizzes/:id/close/
func (h *QuizHandler) CloseQuiz(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	q, err := h.quizService.Close(c.Request.Context(), middleware.GetClaims(c).UserID, id)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

// ListSlots godoc
// GET /api/quizzes/:id/slots/
func (h *QuizHandler) ListSlots(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	slots, err := h.quizService.ListSlots(c.Request.Context(), middleware.GetClaims(c).UserID, id)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, slots)
}

// AddSlot godoc
// POST /api/quizzes/:id/slots/
func (h *QuizHandler) AddSlot(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.AddSlotRequest
	if errs := validator.Bind(c, &req); errs != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, errs)
		return
	}

	slot, err := h.quizService.AddSlot(c.Request.Context(), middleware.GetClaims(c).UserID, id, req)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, slot)
}

// RemoveSlot godoc
// DELETE /api/quizzes/:id/slots/:slot_id/
func (h *QuizHandler) RemoveSlot(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	slotID, ok := paramID(c, "slot_id")
	if !ok {
		return
	}
	if err := h.quizService.RemoveSlot(c.Request.Context(), middleware.GetClaims(c).UserID, id, slotID); err != nil {
		failService(c, h.log, err)
		return
	}
	response.NoContent(c)
}

// GetAnalytics godoc
// GET /api/quizzes/:id/analytics/
func (h *QuizHandler) GetAnalytics(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	q, err := h.quizService.Get(c.Request.Context(), middleware.GetClaims(c).UserID, id)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	analytics, err := h.attemptService.Analytics(c.Request.Context(), q)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, analytics)
}
