// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// UploadField is the multipart form field carrying the schema file.
const UploadField = "file"

// DefaultUploadMessage is reported when the backend acknowledges an upload without a message.
const DefaultUploadMessage = "File uploaded"

// UploadSchema sends in.File as the single multipart part "file".
func (c *Client) UploadSchema(ctx context.Context, in UploadInput) (UploadResult, error) {
	filename := in.Filename
	if filename == "" {
		filename = "schema.sql"
	}
	resp, err := c.Request(ctx, http.MethodPost, c.endpoints.UploadSchema, Multipart(UploadField, filename, in.File))
	if err != nil {
		return UploadResult{}, err
	}
	return decodeUploadResult(resp.Body), nil
}

// decodeUploadResult accepts "msg" or "message" and an id given as string or number.
func decodeUploadResult(body []byte) UploadResult {
	res := UploadResult{Message: DefaultUploadMessage}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return res
	}

	for _, k := range []string{"msg", "message"} {
		if v, ok := raw[k].(string); ok && strings.TrimSpace(v) != "" {
			res.Message = v
			break
		}
	}

	switch id := raw["id"].(type) {
	case string:
		res.ID = id
	case json.Number:
		res.ID = id.String()
	}
	return res
}
