package response

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody is the error payload. Detail is what clients display; Code is
// the stable identifier.
type ErrorBody struct {
	Detail    string            `json:"detail"`
	Code      ErrCode           `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// ────────────────────────────────────────────────────────────────────────────
// Helper builders
// ────────────────────────────────────────────────────────────────────────────

// Success sends the data as the bare JSON body.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// NoContent sends an empty success response.
func NoContent(c *gin.Context) {
	c.Status(204)
}

// Fail sends an error response with an error code and no field-level details.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, buildError(c, code, nil))
}

// FailWithFields sends an error response with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, buildError(c, code, fields))
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, buildError(c, code, nil))
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

func buildError(c *gin.Context, code ErrCode, fields map[string]string) ErrorBody {
	reqID, _ := c.Get(ContextKeyRequestID)
	id, _ := reqID.(string)
	return ErrorBody{
		Detail:    GetMessage(code),
		Code:      code,
		Fields:    fields,
		RequestID: id,
	}
}
