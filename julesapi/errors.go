package julesapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// maxErrorBody bounds how much of a non-JSON error body is kept.
const maxErrorBody = 512

// APIError is returned for any non-2xx upstream response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	// Status is the upstream status code name, e.g. "PERMISSION_DENIED",
	// when the body used the Google error envelope.
	Status  string
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Status != "" {
		return fmt.Sprintf("jules api %s %s: HTTP %d %s: %s", e.Method, e.Path, e.StatusCode, e.Status, msg)
	}
	return fmt.Sprintf("jules api %s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// IsAuthError reports whether the upstream rejected the credential.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// googleError is the standard error envelope of Google APIs.
type googleError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func newAPIError(method, path string, statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
	}

	var envelope googleError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		apiErr.Status = envelope.Error.Status
		return apiErr
	}

	apiErr.Message = truncate(strings.TrimSpace(string(body)), maxErrorBody)
	return apiErr
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
