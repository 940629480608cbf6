package artsy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/amonks/artsy/request"
)

// APIError is a non-2xx response, with whatever message the server put in
// the body.
type APIError struct {
	Status  int
	Message string

	err error
}

func (err *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", err.Status, err.Message)
}

func (err *APIError) Unwrap() []error {
	errs := []error{err.err}
	switch err.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		errs = append(errs, ErrUnauthorized)
	case http.StatusNotFound:
		errs = append(errs, ErrNotFound)
	}
	return errs
}

func apiError(err error) error {
	var statusErr *request.StatusError
	if !errors.As(err, &statusErr) {
		return err
	}
	return &APIError{
		Status:  statusErr.Code,
		Message: errorMessage(statusErr.Body),
		err:     err,
	}
}

// errorMessage digs the human-readable message out of an error body, which
// looks like {"message": "..."}, {"message": ["...", "..."]}, or
// {"error": "..."}.
func errorMessage(body []byte) string {
	var parsed struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "An error occurred"
	}

	var message string
	if err := json.Unmarshal(parsed.Message, &message); err == nil && message != "" {
		return message
	}
	var messages []string
	if err := json.Unmarshal(parsed.Message, &messages); err == nil && len(messages) > 0 {
		return strings.Join(messages, ", ")
	}
	if parsed.Error != "" {
		return parsed.Error
	}
	return "Unknown error occurred"
}

// Message returns the server's message if err came from an error response.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// Status returns the HTTP status of an error response, or 0 if err isn't one.
func Status(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
