// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"querymind/cli/internal/manifest"
)

// New creates a backend API implementation with manifest endpoints.
// Returns HTTP client (real backend).
func New(m *manifest.Manifest, tokens TokenSource, opts ...Option) *Client {
	return NewClient(m.BaseURL, m.HTTP, tokens, opts...)
}

var _ API = (*Client)(nil)
