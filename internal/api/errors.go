package api

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// AuthError reports a rejected login or signup, or a successful response
// that did not identify the user.
type AuthError struct {
	Op      string
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

// ServerMessage returns the text the remote service sent, if any.
func (e *AuthError) ServerMessage() string {
	return e.Message
}

// ValidationError reports input rejected before any request was sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// FetchError reports a non-2xx response (Status set) or a transport
// failure (Err set).
type FetchError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
	}
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) ServerMessage() string {
	return e.Message
}

// NotFoundError reports that an expense id matched no record.
type NotFoundError struct {
	ExpenseID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("expense %s not found", e.ExpenseID)
}

// maxErrorText bounds the server text kept in errors.
const maxErrorText = 512

func serverText(body []byte) string {
	text := strings.TrimSpace(string(body))
	if msg, ok := jsonMessage(body); ok {
		text = msg
	}
	return truncateRunes(text, maxErrorText)
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
