package amadeus

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mohammad-safakhou/flytogether/models"
)

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Details    []ErrorDetail
	Body       string
}

// ErrorDetail mirrors one entry of the provider's "errors" array.
type ErrorDetail struct {
	Status int    `json:"status"`
	Code   int    `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status, Body: strings.TrimSpace(string(body))}
	var payload struct {
		Errors []ErrorDetail `json:"errors"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Details = payload.Errors
	}
	return e
}

func (e *APIError) Error() string {
	msg := http.StatusText(e.StatusCode)
	if len(e.Details) > 0 {
		d := e.Details[0]
		msg = d.Title
		if d.Detail != "" {
			msg += ": " + d.Detail
		}
	} else if e.Body != "" {
		msg = e.Body
	}
	return fmt.Sprintf("amadeus: %d %s", e.StatusCode, msg)
}

// Temporary reports whether the same request may succeed later.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Is lets a request the provider rejects as malformed or unprocessable
// (past dates, unknown airports) count as models.ErrInvalidInput.
func (e *APIError) Is(target error) bool {
	if target != models.ErrInvalidInput {
		return false
	}
	return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
}

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
