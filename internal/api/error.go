package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Error is the normalized failure outcome for any comment API operation.
// Message is human-readable, extracted from the server's payload when one
// exists.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("comment api: %s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("comment api: %s (status %d)", e.Message, e.Status)
}

// FromResponse builds the normalized error for a failed HTTP response.
func FromResponse(status int, body []byte) *Error {
	code, msg := messageFromBody(status, body)
	return &Error{Status: status, Code: code, Message: msg}
}

// messageFromBody extracts a user-facing message from an error response body.
// Priority: a server-supplied message field (several envelope shapes), then a
// generic stringification of the status.
func messageFromBody(status int, body []byte) (code, message string) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		var env struct {
			Message string          `json:"message"`
			Error   json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal(body, &env); err == nil {
			if m := strings.TrimSpace(env.Message); m != "" {
				return "", m
			}
			if len(env.Error) > 0 {
				// error is either a bare string or {code, message}
				var s string
				if err := json.Unmarshal(env.Error, &s); err == nil && strings.TrimSpace(s) != "" {
					return "", strings.TrimSpace(s)
				}
				var obj struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				}
				if err := json.Unmarshal(env.Error, &obj); err == nil && strings.TrimSpace(obj.Message) != "" {
					return obj.Code, strings.TrimSpace(obj.Message)
				}
			}
		}
	}
	return "", fmt.Sprintf("request failed with status %d", status)
}
