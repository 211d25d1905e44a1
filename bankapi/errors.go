package bankapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 64 << 10

// Category groups failed responses the way operators see them.
type Category string

const (
	CategoryTransport    Category = "transport"
	CategoryInvalid      Category = "invalid_request"
	CategoryUnauthorized Category = "unauthorized"
	CategoryForbidden    Category = "forbidden"
	CategoryNotFound     Category = "not_found"
	CategoryServer       Category = "server_error"
	CategoryOther        Category = "other"
)

// CategoryFor maps an HTTP status to its category.
func CategoryFor(status int) Category {
	switch {
	case status == http.StatusBadRequest:
		return CategoryInvalid
	case status == http.StatusUnauthorized:
		return CategoryUnauthorized
	case status == http.StatusForbidden:
		return CategoryForbidden
	case status == http.StatusNotFound:
		return CategoryNotFound
	case status == http.StatusInternalServerError:
		return CategoryServer
	case status == 0:
		return CategoryTransport
	default:
		return CategoryOther
	}
}

// APIError is a non-2xx answer from the Banking API.
type APIError struct {
	Method   string
	Path     string
	Status   int
	Category Category
	Message  string // Server supplied message, may be empty
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// StatusCode returns the HTTP status of err when it is an *APIError, else 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func newAPIError(method, path string, resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		Method:   method,
		Path:     path,
		Status:   resp.StatusCode,
		Category: CategoryFor(resp.StatusCode),
		Message:  serverMessage(body),
	}
}

// serverMessage extracts the human message from an error body. The API
// answers {"message": "..."}; some endpoints answer plain text.
func serverMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	}
	if strings.HasPrefix(trimmed, "<") || strings.HasPrefix(trimmed, "{") {
		return ""
	}
	return trimmed
}
