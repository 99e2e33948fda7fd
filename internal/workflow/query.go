// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workflow

import (
	"context"
	"strings"

	"querymind/cli/internal/backend"
)

// QueryFailedMessage is the Reason of every failed query.
const QueryFailedMessage = "query failed"

// Querier asks the backend a question.
type Querier interface {
	Query(ctx context.Context, in backend.QueryInput) (backend.QueryResult, error)
}

// QueryState is a snapshot of a QueryWorkflow.
type QueryState = State[backend.QueryInput, backend.QueryResult]

// QueryWorkflow turns questions into SQL, rows and a summary. Entering Running drops
// the previous result; the last submitted question wins.
type QueryWorkflow struct {
	*Engine[backend.QueryInput, backend.QueryResult]
}

// NewQuery returns an Idle query workflow.
func NewQuery(api Querier, opts ...Option) *QueryWorkflow {
	return &QueryWorkflow{NewEngine[backend.QueryInput, backend.QueryResult]("query", api.Query, validateQuery, QueryFailedMessage, opts...)}
}

func validateQuery(in backend.QueryInput) error {
	if strings.TrimSpace(in.Question) == "" {
		return validationError("question is empty")
	}
	return nil
}
