// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// WhoAmI calls the whoami endpoint with the stored bearer token.
// Unlike the other calls, a body that is not a JSON object is an error:
// an identity is only ever taken from the backend, never assembled locally.
func (c *Client) WhoAmI(ctx context.Context) (Identity, error) {
	resp, err := c.Request(ctx, http.MethodGet, c.endpoints.Me, nil)
	if err != nil {
		return Identity{}, err
	}

	var raw map[string]any
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return Identity{}, fmt.Errorf("malformed whoami response: %w", err)
	}
	if raw == nil {
		return Identity{}, errors.New("malformed whoami response: null body")
	}

	return Identity{
		Email:    stringField(raw, "email"),
		FullName: stringField(raw, "full_name", "fullName"),
	}, nil
}

// stringField returns the first key holding a string value.
func stringField(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k].(string); ok {
			return v
		}
	}
	return ""
}
