// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"go.uber.org/zap"

	"querymind/cli/internal/backend"
	"querymind/cli/internal/config"
	qmerrors "querymind/cli/internal/errors"
	"querymind/cli/internal/httperrors"
	"querymind/cli/internal/logging"
	"querymind/cli/internal/manifest"
	"querymind/cli/internal/render"
	"querymind/cli/internal/session"
	"querymind/cli/internal/tokenstore"
)

// appState is everything a command needs once configuration has been resolved.
type appState struct {
	cfg     config.Config
	log     *zap.Logger
	verbose bool
	store   *tokenstore.Store
	api     *backend.Client
	closers []io.Closer
}

var app *appState

// setupApp loads config, opens the token store and builds the backend client.
func setupApp() error {
	verbose := verboseFlag || logging.IsVerbose()
	if verboseFlag {
		os.Setenv("QUERYMIND_VERBOSE", "1")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if s := strings.TrimSpace(serverFlag); s != "" {
		cfg.ServerURL = strings.TrimRight(s, "/")
	}
	if err := config.EnsureInstanceID(&cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return err
	}

	be, err := tokenstore.OpenBackend(cfg, log)
	if err != nil {
		return fmt.Errorf("open token store: %w", err)
	}
	store := tokenstore.New(be, tokenstore.WithLogger(log))

	m, err := manifest.GetEndpoints(cfg)
	if err != nil {
		return err
	}
	api := backend.New(m, store,
		backend.WithLogger(log),
		backend.WithTimeout(timeout),
		backend.WithUserAgent("querymind-cli/"+Version),
	)

	app = &appState{cfg: cfg, log: log, verbose: verbose, store: store, api: api}
	if c, ok := be.(io.Closer); ok {
		app.closers = append(app.closers, c)
	}
	log.Debug("configured",
		zap.String("server", m.BaseURL),
		zap.String("token_backend", store.BackendName()),
		zap.String("instance_id", cfg.InstanceID),
		zap.Duration("timeout", timeout))
	return nil
}

func (a *appState) close() {
	if a == nil {
		return
	}
	for _, c := range a.closers {
		_ = c.Close()
	}
	a.closers = nil
	_ = a.log.Sync()
}

// requireSession runs the session guard. On rejection the user is told to log in
// again and the returned error only carries the exit code.
func requireSession(ctx context.Context) (backend.Identity, error) {
	guard := session.NewGuard(app.api, app.store, session.WithLogger(app.log))
	id, err := guard.Activate(ctx)
	if err != nil {
		pterm.Warning.Println(session.ExpiredMessage)
		if app.verbose {
			pterm.Println(logging.PresentError("cause", err))
		}
		return backend.Identity{}, reported(err)
	}
	return id, nil
}

// showFailure prints a workflow failure: the generic reason, troubleshooting hints
// for transport problems, and the cause in verbose mode.
func showFailure(reason string, cause error) {
	render.Failure(reason, cause, app.verbose)
	if qmerrors.Is(cause, qmerrors.Validation) {
		return
	}
	httperrors.Show(cause, app.cfg.ServerURL)
}
