// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// ErrNoToken is returned when a 2xx token response carries no access token.
var ErrNoToken = errors.New("no access_token in response")

// Authenticate posts the credentials form-encoded to the token endpoint.
// The returned token is not stored; the caller decides what to do with it.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (string, error) {
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	resp, err := c.Request(ctx, http.MethodPost, c.endpoints.Token, Form(form))
	if err != nil {
		return "", err
	}

	var result map[string]any
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return "", err
	}
	token := extractAccessToken(result)
	if token == "" {
		if t := parseBearerToken(resp.Header.Get("Authorization")); t != "" {
			return t, nil
		}
		return "", ErrNoToken
	}
	return token, nil
}

// extractAccessToken extracts the access token from the response payload.
// It tries multiple common field names to be resilient to different response formats.
func extractAccessToken(result map[string]any) string {
	for _, k := range []string{"access_token", "accessToken", "token"} {
		if v, ok := result[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// parseBearerToken extracts token from a value like "Bearer <token>" case-insensitively.
// Returns the token string without the "Bearer " prefix, or empty string if invalid format.
func parseBearerToken(value string) string {
	v := strings.TrimSpace(value)
	if len(v) < 7 {
		return ""
	}
	if strings.EqualFold(v[0:6], "bearer") {
		if rest := strings.TrimSpace(v[6:]); rest != "" {
			return rest
		}
	}
	return ""
}
