package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-console/internal/response"
	"github.com/stemsi/exstem-console/internal/service"
)

// paramID parses a positive integer path parameter, answering 400 when it
// is malformed.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// failService maps service errors onto the API error table. Unknown errors
// are logged and reported as 500.
func failService(c *gin.Context, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrQuizNotFound),
		errors.Is(err, service.ErrAttemptNotFound),
		errors.Is(err, service.ErrSlotNotFound),
		errors.Is(err, service.ErrBankNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotQuizAuthor):
		response.Fail(c, http.StatusForbidden, response.ErrNotQuizAuthor)
	case errors.Is(err, service.ErrQuizNotEditable):
		response.Fail(c, http.StatusConflict, response.ErrQuizNotEditable)
	case errors.Is(err, service.ErrQuizNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrActionForbidden)
	case errors.Is(err, service.ErrNoSlots):
		response.Fail(c, http.StatusConflict, response.ErrNoSlots)
	case errors.Is(err, service.ErrProblemNotInBank):
		response.Fail(c, http.StatusBadRequest, response.ErrBankProblemMissing)
	case errors.Is(err, service.ErrInvalidTimeFormat):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"detail": err.Error()})
	case errors.Is(err, service.ErrQuizNotAvailable):
		response.Fail(c, http.StatusConflict, response.ErrQuizNotAvailable)
	case errors.Is(err, service.ErrAttemptSubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAttemptSubmitted)
	case errors.Is(err, service.ErrAnswerUnknownSlot), errors.Is(err, service.ErrAnswerDuplicatedSlot):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownSlot)
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
