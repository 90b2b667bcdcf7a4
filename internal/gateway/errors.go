package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the remote API.
type APIError struct {
	StatusCode int
	Detail     string
	Code       string
	Fields     map[string]string
	Body       []byte
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Detail) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Detail)
}

// IsCredentialsFailure reports whether the server rejected the session's
// credentials, as opposed to denying a specific resource.
func (e *APIError) IsCredentialsFailure() bool {
	if e.StatusCode != http.StatusUnauthorized && e.StatusCode != http.StatusForbidden {
		return false
	}
	return strings.Contains(strings.ToLower(e.Detail), "credentials")
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode == status
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: body}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err == nil {
		if raw, ok := payload["detail"]; ok {
			_ = json.Unmarshal(raw, &apiErr.Detail)
		}
		if raw, ok := payload["code"]; ok {
			_ = json.Unmarshal(raw, &apiErr.Code)
		}
		if raw, ok := payload["fields"]; ok {
			_ = json.Unmarshal(raw, &apiErr.Fields)
		}
	}

	if apiErr.Detail == "" {
		apiErr.Detail = http.StatusText(status)
	}
	return apiErr
}
