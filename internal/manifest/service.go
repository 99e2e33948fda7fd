// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package manifest

import (
	"fmt"
	"net/url"
	"strings"

	"querymind/cli/internal/config"
)

// GetEndpoints returns the manifest for cfg, using the RAM cache if available.
// The first call for a given server validates the base URL and merges endpoint
// overrides onto the defaults; later calls return the same value.
func GetEndpoints(cfg config.Config) (*Manifest, error) {
	if cached := GetCached(cfg); cached != nil {
		return cached, nil
	}

	m, err := Build(cfg)
	if err != nil {
		return nil, err
	}
	SetCached(cfg, m)
	return m, nil
}

// Build resolves a manifest from cfg without touching the cache.
func Build(cfg config.Config) (*Manifest, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.ServerURL), "/")
	if base == "" {
		base = config.DefaultServerURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid server_url %q: %w", cfg.ServerURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server_url %q: scheme must be http or https", cfg.ServerURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server_url %q: missing host", cfg.ServerURL)
	}

	def := DefaultEndpoints()
	return &Manifest{
		BaseURL: base,
		HTTP: HTTPEndpoints{
			Token:        normalizePath(cfg.Endpoints.Token, def.Token),
			Me:           normalizePath(cfg.Endpoints.Me, def.Me),
			UploadSchema: normalizePath(cfg.Endpoints.UploadSchema, def.UploadSchema),
			Query:        normalizePath(cfg.Endpoints.Query, def.Query),
		},
	}, nil
}
