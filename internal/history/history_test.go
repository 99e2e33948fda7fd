package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.Record(ctx, Entry{AskedAt: base, Question: "how many users", SQL: "SELECT COUNT(*) FROM users", RowCount: 1, Outcome: OutcomeSucceeded})
	require.NoError(t, err)
	id, err := s.Record(ctx, Entry{AskedAt: base.Add(time.Minute), Question: "top products", Outcome: OutcomeFailed, InstanceID: "inst"})
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "top products", got[0].Question, "newest first")
	assert.Equal(t, OutcomeFailed, got[0].Outcome)
	assert.Equal(t, "inst", got[0].InstanceID)
	assert.Equal(t, "SELECT COUNT(*) FROM users", got[1].SQL)
	assert.Equal(t, 1, got[1].RowCount)
	assert.True(t, base.Equal(got[1].AskedAt))
}

func TestRecent_LimitAndClear(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.Record(ctx, Entry{Question: "q", Outcome: OutcomeSucceeded})
		require.NoError(t, err)
	}

	got, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.False(t, got[0].AskedAt.IsZero())

	require.NoError(t, s.Clear(ctx))
	got, err = s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpen_ReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Record(context.Background(), Entry{Question: "persist me", Outcome: OutcomeSucceeded})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	again, err := Open(path)
	require.NoError(t, err)
	defer again.Close()
	got, err := again.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "persist me", got[0].Question)
}

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "querymind", "history.db"), p)
}
