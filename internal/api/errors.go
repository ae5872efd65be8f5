package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthenticated means no token was available; nothing was sent.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrAccessDenied means the backend answered 403, usually an expired token.
	ErrAccessDenied = errors.New("access denied: token may be expired")
	// ErrUnreachable means the request never got an HTTP response.
	ErrUnreachable = errors.New("cannot connect to server")
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Code int
	// Message is what the server said, empty when it said nothing useful.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("request failed with status %d (%s)", e.Code, http.StatusText(e.Code))
}

// Is makes a 403 match ErrAccessDenied.
func (e *StatusError) Is(target error) bool {
	return target == ErrAccessDenied && e.Code == http.StatusForbidden
}

// ServerMessage returns the message the backend attached to err, if any.
func ServerMessage(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}

const maxMessageLen = 200

// serverMessage extracts a human-readable message from an error body. JSON
// bodies contribute their "message" or "error" field; plain text is used as is.
func serverMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}

	if strings.HasPrefix(text, "{") {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal([]byte(text), &payload); err == nil {
			if payload.Message != "" {
				return payload.Message
			}
			return payload.Error
		}
	}

	if strings.HasPrefix(text, "<") {
		// HTML error pages are not messages.
		return ""
	}
	if len(text) > maxMessageLen {
		text = text[:maxMessageLen]
	}
	return text
}
