// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

// Credentials are sent once to the token endpoint and never persisted.
type Credentials struct {
	Username string
	Password string
}

// Identity is the user behind a token, as reported by the backend.
type Identity struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// DisplayName prefers the full name and falls back to the email.
func (i Identity) DisplayName() string {
	if i.FullName != "" {
		return i.FullName
	}
	return i.Email
}

// UploadInput is exactly one file. A named file counts as selected even when empty.
type UploadInput struct {
	Filename string
	File     []byte
}

// UploadResult is the decoded upload response. ID is empty when the backend sent none.
type UploadResult struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// QueryInput carries the natural-language question.
type QueryInput struct {
	Question string
}

// QueryResult holds the optional parts of a query answer.
// Rows is never nil after decoding.
type QueryResult struct {
	SQL     string   `json:"sql_query,omitempty"`
	Rows    []Record `json:"results"`
	Summary string   `json:"summary,omitempty"`
}

// Columns returns the header: the first row's columns in backend order.
func (r QueryResult) Columns() []string {
	if len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0].Columns
}
