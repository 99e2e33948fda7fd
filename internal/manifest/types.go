// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package manifest resolves the backend base URL and endpoint paths.
package manifest

import (
	"net/url"
	"strings"
)

// Default endpoint paths of the QueryMind backend.
const (
	DefaultTokenPath        = "/token"
	DefaultMePath           = "/users/me"
	DefaultUploadSchemaPath = "/upload-schema"
	DefaultQueryPath        = "/query"
)

// Manifest represents the endpoint configuration used for one process.
type Manifest struct {
	BaseURL string
	HTTP    HTTPEndpoints
}

// HTTPEndpoints contains REST API endpoint paths.
type HTTPEndpoints struct {
	Token        string // e.g., "/token"
	Me           string // e.g., "/users/me"
	UploadSchema string // e.g., "/upload-schema"
	Query        string // e.g., "/query"
}

// DefaultEndpoints returns the built-in endpoint paths.
func DefaultEndpoints() HTTPEndpoints {
	return HTTPEndpoints{
		Token:        DefaultTokenPath,
		Me:           DefaultMePath,
		UploadSchema: DefaultUploadSchemaPath,
		Query:        DefaultQueryPath,
	}
}

// Host returns the host[:port] part of BaseURL, for display.
func (m *Manifest) Host() string {
	u, err := url.Parse(m.BaseURL)
	if err != nil || u.Host == "" {
		return strings.TrimRight(m.BaseURL, "/")
	}
	return u.Host
}

// normalizePath makes p absolute; empty input yields fallback.
func normalizePath(p, fallback string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return fallback
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
