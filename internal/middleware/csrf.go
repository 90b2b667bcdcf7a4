package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-console/internal/response"
	"github.com/stemsi/exstem-console/internal/service"
)

const (
	// SessionCookie identifies the anonymous session holding the CSRF token.
	SessionCookie = "sessionid"

	// HeaderCSRF is the request header carrying the token.
	HeaderCSRF = "X-CSRFToken"
)

// RequireCSRF rejects unsafe requests whose X-CSRFToken header does not
// match the token of the caller's session.
func RequireCSRF(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		sessionID, _ := c.Cookie(SessionCookie)
		if !authService.CheckCSRF(sessionID, c.GetHeader(HeaderCSRF)) {
			response.AbortFail(c, http.StatusForbidden, response.ErrCSRFFailed)
			return
		}
		c.Next()
	}
}
