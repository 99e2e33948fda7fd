// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := stderrors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain error", err: cause, want: ""},
		{name: "direct", err: New(Validation, "question is empty"), want: Validation},
		{name: "wrapped by fmt", err: fmt.Errorf("ask: %w", Wrap(Transport, "query failed", cause)), want: Transport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestE_UnwrapAndMessage(t *testing.T) {
	cause := stderrors.New("401 unauthorized")
	err := Wrap(SessionInvalid, "session expired", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, Is(err, SessionInvalid))
	assert.False(t, Is(err, AuthFailed))
	assert.Equal(t, "session_invalid: session expired: 401 unauthorized", err.Error())
	assert.Equal(t, "session expired", UserMessage(err))
	assert.Equal(t, "boom", UserMessage(stderrors.New("boom")))
	assert.Equal(t, "", UserMessage(nil))
}
