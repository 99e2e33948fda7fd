// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

// Query posts {"question": ...} to the query endpoint.
func (c *Client) Query(ctx context.Context, in QueryInput) (QueryResult, error) {
	resp, err := c.Request(ctx, http.MethodPost, c.endpoints.Query, JSON(map[string]string{"question": in.Question}))
	if err != nil {
		return QueryResult{}, err
	}
	return decodeQueryResult(resp.Body), nil
}

// decodeQueryResult reads sql_query, results and summary independently.
// Missing or mistyped fields are left empty; a missing or non-array results is zero rows.
func decodeQueryResult(body []byte) QueryResult {
	out := QueryResult{Rows: []Record{}}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return out
	}
	out.SQL = rawString(raw["sql_query"])
	out.Summary = rawString(raw["summary"])
	if r, ok := raw["results"]; ok {
		out.Rows = decodeRows(r)
	}
	return out
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
