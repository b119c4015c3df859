package awin

import (
	"fmt"

	"awin_tap/internal/domain"
)

// AccountsResponse is the body of GET /accounts.
type AccountsResponse struct {
	UserID   int64           `json:"userId"`
	Accounts []domain.Record `json:"accounts"`
}

// ErrorResponse is the error body the API returns on failures.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"description"`
}

// StatusError is returned for any non-200 response. Non-200 responses are
// never retried.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status: %d: %s", e.StatusCode, e.Message)
}
