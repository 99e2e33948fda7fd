// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides the authorized HTTP client and the typed calls of the QueryMind backend.
// It defines the API contract for authentication, identity lookup, schema upload and queries.
// The package includes both interface definitions and HTTP-based implementations.
package backend

import "context"

// API defines backend operations the CLI depends on.
// Implementations may call real HTTP endpoints or provide mocks for tests.
type API interface {
	// Authenticate exchanges credentials for a bearer token. It does not store the token.
	Authenticate(ctx context.Context, creds Credentials) (token string, err error)
	// WhoAmI resolves the identity behind the stored token.
	WhoAmI(ctx context.Context) (Identity, error)
	// UploadSchema sends one schema file as multipart form data.
	UploadSchema(ctx context.Context, in UploadInput) (UploadResult, error)
	// Query asks a natural-language question.
	Query(ctx context.Context, in QueryInput) (QueryResult, error)
}
