package sdk

import (
	"fmt"
	"net/http"
)

// Issue is one field-level problem reported by the API.
type Issue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// APIError is a non-2xx response from the crosslink API.
type APIError struct {
	StatusCode int
	Code       string  `json:"code"`
	Message    string  `json:"message"`
	Issues     []Issue `json:"issues,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Issues) > 0 {
		return fmt.Sprintf("crosslink API error %d (%s): %s (%d issues)",
			e.StatusCode, e.Code, e.Message, len(e.Issues))
	}
	return fmt.Sprintf("crosslink API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// IsValidation reports whether the error is a request validation failure.
func (e *APIError) IsValidation() bool {
	return e.StatusCode == http.StatusBadRequest && e.Code == "validation_failed"
}
