// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo describes the readable claims of a stored token.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Algorithm string
}

// HasExpiry reports whether the token carries an exp claim.
func (i TokenInfo) HasExpiry() bool { return !i.ExpiresAt.IsZero() }

// Expired reports whether exp lies before now. Tokens without exp never expire locally.
func (i TokenInfo) Expired(now time.Time) bool {
	return i.HasExpiry() && now.After(i.ExpiresAt)
}

// InspectToken decodes the claims of a JWT without verifying its signature.
// The result is informational only: the CLI never rejects a token locally,
// the backend decides whether it is still valid.
func InspectToken(token string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("token is not a readable JWT: %w", err)
	}

	var info TokenInfo
	if parsed.Method != nil {
		info.Algorithm = parsed.Method.Alg()
	}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	return info, nil
}
