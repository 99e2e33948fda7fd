// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"querymind/cli/internal/logging"
)

// TransportError is returned by Client.Request when the call did not produce a 2xx response.
// StatusCode is 0 when no response was received at all.
type TransportError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if d := e.Detail(); d != "" {
		msg += ": " + d
	}
	return logging.Mask(msg)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Network reports whether the failure happened before any response arrived.
func (e *TransportError) Network() bool { return e.StatusCode == 0 }

// Unauthorized reports a 401 response.
func (e *TransportError) Unauthorized() bool { return e.StatusCode == http.StatusUnauthorized }

// Detail extracts the "detail" field of an error body, or a trimmed plain-text body.
func (e *TransportError) Detail() string {
	if len(e.Body) == 0 {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(e.Body, &payload); err == nil {
		switch d := payload["detail"].(type) {
		case string:
			return d
		case nil:
		default:
			b, _ := json.Marshal(d)
			return string(b)
		}
		return ""
	}
	s := strings.TrimSpace(string(e.Body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
