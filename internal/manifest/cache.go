// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package manifest

import (
	"sync"

	"querymind/cli/internal/config"
)

// Resolved manifests, keyed by the config fields they were built from.
// The cache lives only in process memory, so a shell session resolves its
// endpoints once while a --server override still gets its own entry.
var (
	cache     = map[cacheKey]*Manifest{}
	cacheLock sync.RWMutex
)

type cacheKey struct {
	server    string
	endpoints config.Endpoints
}

func keyFor(cfg config.Config) cacheKey {
	return cacheKey{server: cfg.ServerURL, endpoints: cfg.Endpoints}
}

// GetCached returns the manifest resolved for cfg, or nil.
func GetCached(cfg config.Config) *Manifest {
	cacheLock.RLock()
	defer cacheLock.RUnlock()
	return cache[keyFor(cfg)]
}

// SetCached stores m as the manifest for cfg.
func SetCached(cfg config.Config, m *Manifest) {
	cacheLock.Lock()
	defer cacheLock.Unlock()
	cache[keyFor(cfg)] = m
}

// ClearCache drops every resolved manifest (primarily for testing).
func ClearCache() {
	cacheLock.Lock()
	defer cacheLock.Unlock()
	cache = map[cacheKey]*Manifest{}
}
