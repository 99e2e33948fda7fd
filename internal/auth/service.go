// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth provides authentication services for the QueryMind CLI.
// It exchanges credentials for a bearer token, stores the token in the token store
// and inspects stored tokens for status output. Session validation against the
// backend lives in the session package.
package auth

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"querymind/cli/internal/backend"
	qerrors "querymind/cli/internal/errors"
	"querymind/cli/internal/tokenstore"
)

// InvalidCredentialsMessage is the only message shown for a rejected login,
// whatever the underlying cause.
const InvalidCredentialsMessage = "invalid credentials"

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Authenticate(ctx context.Context, creds backend.Credentials) (string, error)
}

// Service centralizes authentication-related operations against the backend
// and the local token store.
type Service struct {
	be    Authenticator
	store *tokenstore.Store
	log   *zap.Logger
}

// NewService constructs an auth Service. A nil logger is replaced by a no-op logger.
func NewService(be Authenticator, store *tokenstore.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{be: be, store: store, log: log}
}

// SubmitCredentials performs the login exchange. On success the token is written to
// the store and returned; the caller should then re-activate the session guard.
// On failure the store is left untouched and the error has kind AuthFailed with the
// message "invalid credentials".
func (s *Service) SubmitCredentials(ctx context.Context, creds backend.Credentials) (string, error) {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return "", qerrors.New(qerrors.AuthFailed, InvalidCredentialsMessage)
	}

	token, err := s.be.Authenticate(ctx, creds)
	if err != nil {
		s.log.Debug("login rejected", zap.String("username", creds.Username), zap.Error(err))
		return "", qerrors.Wrap(qerrors.AuthFailed, InvalidCredentialsMessage, err)
	}

	if err := s.store.Set(token); err != nil {
		return "", qerrors.Wrap(qerrors.Transport, "could not store the session token", err)
	}
	s.log.Debug("login succeeded", zap.String("username", creds.Username), zap.String("backend", s.store.BackendName()))
	return token, nil
}

// Logout clears the stored token. The backend has no logout endpoint; the token
// simply stops being sent.
func (s *Service) Logout() error {
	return s.store.Clear()
}
