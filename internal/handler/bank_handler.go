package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-console/internal/response"
	"github.com/stemsi/exstem-console/internal/service"
)

// BankHandler exposes the read-only problem banks.
type BankHandler struct {
	quizService *service.QuizService
	log         zerolog.Logger
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(quizService *service.QuizService, log zerolog.Logger) *BankHandler {
	return &BankHandler{quizService: quizService, log: log}
}

// ListBanks godoc
// GET /api/banks/
func (h *BankHandler) ListBanks(c *gin.Context) {
	banks, err := h.quizService.ListBanks(c.Request.Context())
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, banks)
}

// ListProblems godoc
// GET /api/banks/:id/problems/
func (h *BankHandler) ListProblems(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	problems, err := h.quizService.ListBankProblems(c.Request.Context(), id)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, problems)
}
