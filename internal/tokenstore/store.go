// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package tokenstore persists the single bearer token of a client instance.
//
// The Store is a process-wide value with a pluggable Backend (OS keychain, encrypted
// file, redis or memory). Every write is serialized with reads, so a Get that starts
// after Set or Clear returns observes the new value. The store never inspects or
// expires the token; expiry is the backend service's decision.
package tokenstore

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"querymind/cli/internal/logging"
)

// Key is the well-known name under which the token is stored.
const Key = "access_token"

// ErrNotFound is returned by backends when nothing is stored under a key.
var ErrNotFound = errors.New("token not found")

// Backend is a synchronous key-value contract for token persistence.
type Backend interface {
	// Name identifies the backend in status output.
	Name() string
	// Get returns ErrNotFound when key is absent.
	Get(key string) (string, error)
	Set(key, value string) error
	// Remove deletes key; removing a missing key succeeds.
	Remove(key string) error
}

// Store wraps a Backend with locking and logging.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	log     *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns a store over backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get returns the stored token. A backend failure is logged and reported as absent.
func (s *Store) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, err := s.backend.Get(Key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("token store read failed", zap.String("backend", s.backend.Name()), zap.Error(err))
		}
		return "", false
	}
	if v == "" {
		return "", false
	}
	return v, true
}

// Set replaces the stored token.
func (s *Store) Set(token string) error {
	if token == "" {
		return errors.New("refusing to store an empty token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Set(Key, token); err != nil {
		return err
	}
	s.log.Debug("token stored", zap.String("backend", s.backend.Name()), logging.Token(token))
	return nil
}

// Clear removes the stored token. Clearing an empty store succeeds.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Remove(Key); err != nil {
		return err
	}
	s.log.Debug("token cleared", zap.String("backend", s.backend.Name()))
	return nil
}

// BackendName reports which backend holds the token.
func (s *Store) BackendName() string {
	return s.backend.Name()
}
