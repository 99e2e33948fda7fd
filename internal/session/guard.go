// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session gates protected commands on a resolved backend identity.
//
// A Guard starts Pending. Activate issues exactly one whoami request: success moves
// the guard to Resolved with the identity the backend reported; any failure clears
// the token store, moves the guard to Rejected and fires the unauthenticated hook.
// Nothing is retried. Running Activate again starts a new resolution from Pending.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"querymind/cli/internal/backend"
	qerrors "querymind/cli/internal/errors"
	"querymind/cli/internal/tokenstore"
)

// State is the resolution state of a Guard.
type State int

const (
	Pending State = iota
	Resolved
	Rejected
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ExpiredMessage is shown when a protected command finds no valid session.
const ExpiredMessage = "session expired, run `querymind login`"

// IdentityResolver performs the whoami call.
type IdentityResolver interface {
	WhoAmI(ctx context.Context) (backend.Identity, error)
}

// Guard is the session state machine.
type Guard struct {
	api   IdentityResolver
	store *tokenstore.Store
	log   *zap.Logger

	mu             sync.Mutex
	state          State
	identity       backend.Identity
	onUnauthorized func(error)
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.log = l
		}
	}
}

// OnUnauthenticated registers the hook fired each time the guard is rejected.
// Routing the user back to login is the hook's job.
func OnUnauthenticated(fn func(error)) Option {
	return func(g *Guard) { g.onUnauthorized = fn }
}

// NewGuard returns a Pending guard.
func NewGuard(api IdentityResolver, store *tokenstore.Store, opts ...Option) *Guard {
	g := &Guard{api: api, store: store, log: zap.NewNop()}
	for _, o := range opts {
		o(g)
	}
	return g
}

// State returns the current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Identity returns the resolved identity; ok is false unless the guard is Resolved.
func (g *Guard) Identity() (backend.Identity, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.identity, g.state == Resolved
}

// Activate resolves the session with a single whoami request.
// On failure the returned error has kind SessionInvalid and the token store is empty.
func (g *Guard) Activate(ctx context.Context) (backend.Identity, error) {
	g.mu.Lock()
	g.state = Pending
	g.identity = backend.Identity{}
	g.mu.Unlock()

	id, err := g.api.WhoAmI(ctx)
	if err == nil {
		g.mu.Lock()
		g.state = Resolved
		g.identity = id
		g.mu.Unlock()
		g.log.Debug("session resolved", zap.String("email", id.Email))
		return id, nil
	}

	g.log.Debug("session rejected", zap.Error(err))
	if clearErr := g.store.Clear(); clearErr != nil {
		g.log.Warn("failed to clear token after rejected session", zap.Error(clearErr))
	}

	g.mu.Lock()
	g.state = Rejected
	hook := g.onUnauthorized
	g.mu.Unlock()

	rejected := qerrors.Wrap(qerrors.SessionInvalid, ExpiredMessage, err)
	if hook != nil {
		hook(rejected)
	}
	return backend.Identity{}, rejected
}
