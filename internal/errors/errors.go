// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages, so commands can decide how to present a failure
// (re-login hint, generic failure notice, input correction) from the kind alone.
//
// The package supports wrapping underlying errors while maintaining error kind information.
// The wrapped error stays reachable through errors.Unwrap for logging, while Message is
// the only text meant for the user.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// AuthFailed indicates the backend rejected a login attempt.
	// The stored token is left untouched.
	AuthFailed Kind = "auth_failed"
	// SessionInvalid indicates the stored token could not be resolved to an identity.
	// The stored token has been cleared by the time this error is returned.
	SessionInvalid Kind = "session_invalid"
	// Transport indicates a network or server failure during an authorized call.
	Transport Kind = "transport"
	// Validation indicates input rejected before any request was issued.
	Validation Kind = "validation"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the first *E in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage returns the user-facing message of err.
// Errors without a kind fall back to their plain text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *E
	if stderrors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
