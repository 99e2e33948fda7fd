// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package workflow runs backend calls as explicit per-attempt state machines.
//
// Every Submit starts a new attempt: Idle -> Running -> Succeeded | Failed. Attempts
// carry a sequence number and only the most recent one may commit its outcome, so a
// slow response to an older submission can never overwrite a newer one. Superseded
// requests are not cancelled; their results are dropped when they arrive.
package workflow

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	qerrors "querymind/cli/internal/errors"
)

// Phase is the position of the current attempt in its lifecycle.
type Phase int

const (
	Idle Phase = iota
	Running
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Terminal reports whether the attempt has settled.
func (p Phase) Terminal() bool { return p == Succeeded || p == Failed }

// State is a snapshot of an engine.
// Input is set from Running on; Result only in Succeeded; Reason and Err only in Failed.
type State[I, R any] struct {
	Phase   Phase
	Attempt uint64
	Input   I
	Result  R
	Reason  string
	Err     error
}

// RunFunc performs the backend call of one attempt.
type RunFunc[I, R any] func(ctx context.Context, in I) (R, error)

// ValidateFunc rejects input before any request is made.
type ValidateFunc[I any] func(in I) error

// Option configures an engine.
type Option func(*settings)

type settings struct {
	log *zap.Logger
	ctx context.Context
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithContext sets the parent context of every request. Cancelling it fails in-flight attempts.
func WithContext(ctx context.Context) Option {
	return func(s *settings) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}

// Engine owns the state of one workflow instance.
type Engine[I, R any] struct {
	name     string
	run      RunFunc[I, R]
	validate ValidateFunc[I]
	failMsg  string
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc

	mu       sync.Mutex
	seq      uint64
	version  uint64
	state    State[I, R]
	done     chan struct{}
	onChange func(State[I, R])

	notifyMu     sync.Mutex
	lastNotified uint64

	wg sync.WaitGroup
}

// NewEngine returns an Idle engine. failMsg is the Reason of every failed attempt.
func NewEngine[I, R any](name string, run RunFunc[I, R], validate ValidateFunc[I], failMsg string, opts ...Option) *Engine[I, R] {
	s := settings{log: zap.NewNop(), ctx: context.Background()}
	for _, o := range opts {
		o(&s)
	}
	ctx, cancel := context.WithCancel(s.ctx)
	return &Engine[I, R]{
		name:     name,
		run:      run,
		validate: validate,
		failMsg:  failMsg,
		log:      s.log.With(zap.String("workflow", name)),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnChange registers fn to receive every committed state in order.
// fn runs on the goroutine that made the change and must not call Submit.
func (e *Engine[I, R]) OnChange(fn func(State[I, R])) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
}

// State returns the current snapshot.
func (e *Engine[I, R]) State() State[I, R] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Submit starts a new attempt and returns its number. Invalid input returns an error of
// kind Validation and leaves the state exactly as it was.
func (e *Engine[I, R]) Submit(in I) (uint64, error) {
	if e.validate != nil {
		if err := e.validate(in); err != nil {
			return 0, err
		}
	}

	e.mu.Lock()
	if e.ctx.Err() != nil {
		e.mu.Unlock()
		return 0, fmt.Errorf("%s workflow is closed", e.name)
	}
	e.seq++
	attempt := e.seq
	e.state = State[I, R]{Phase: Running, Attempt: attempt, Input: in}
	e.done = make(chan struct{})
	done := e.done
	snap, ver := e.state, e.bump()
	// Add under mu so Close never waits on a group that is still growing.
	e.wg.Add(1)
	e.mu.Unlock()

	e.log.Debug("attempt started", zap.Uint64("attempt", attempt))
	e.notify(snap, ver)

	go e.execute(attempt, in, done)
	return attempt, nil
}

func (e *Engine[I, R]) execute(attempt uint64, in I, done chan struct{}) {
	defer e.wg.Done()
	defer close(done)

	res, err := e.run(e.ctx, in)

	e.mu.Lock()
	if attempt != e.seq {
		e.mu.Unlock()
		e.log.Debug("discarding superseded attempt", zap.Uint64("attempt", attempt))
		return
	}
	next := State[I, R]{Phase: Succeeded, Attempt: attempt, Input: in, Result: res}
	if err != nil {
		next = State[I, R]{Phase: Failed, Attempt: attempt, Input: in, Reason: e.failMsg, Err: err}
	}
	e.state = next
	ver := e.bump()
	e.mu.Unlock()

	if err != nil {
		e.log.Debug("attempt failed", zap.Uint64("attempt", attempt), zap.Error(err))
	} else {
		e.log.Debug("attempt succeeded", zap.Uint64("attempt", attempt))
	}
	e.notify(next, ver)
}

// bump must be called with mu held.
func (e *Engine[I, R]) bump() uint64 {
	e.version++
	return e.version
}

// notify delivers snap unless a newer state has already been delivered.
func (e *Engine[I, R]) notify(snap State[I, R], ver uint64) {
	e.mu.Lock()
	fn := e.onChange
	e.mu.Unlock()
	if fn == nil {
		return
	}

	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	if ver <= e.lastNotified {
		return
	}
	e.lastNotified = ver
	fn(snap)
}

// Wait blocks until the latest attempt settles and returns the settled state.
// If the attempt it waits on is superseded, it follows the newer one.
func (e *Engine[I, R]) Wait(ctx context.Context) (State[I, R], error) {
	for {
		e.mu.Lock()
		st, done := e.state, e.done
		e.mu.Unlock()

		if st.Phase != Running {
			return st, nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// Close cancels in-flight requests and waits for their goroutines to finish.
// Submit fails after Close.
func (e *Engine[I, R]) Close() {
	e.mu.Lock()
	e.cancel()
	e.mu.Unlock()
	e.wg.Wait()
}

// validationError builds the error returned for rejected input.
func validationError(msg string) error {
	return qerrors.New(qerrors.Validation, msg)
}
