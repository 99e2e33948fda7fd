package workflow

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"querymind/cli/internal/backend"
	qerrors "querymind/cli/internal/errors"
	"querymind/cli/internal/manifest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// gatedQuerier blocks questions that have a gate until the gate is closed.
type gatedQuerier struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	calls []string
}

func (g *gatedQuerier) Query(ctx context.Context, in backend.QueryInput) (backend.QueryResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, in.Question)
	gate := g.gates[in.Question]
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return backend.QueryResult{}, ctx.Err()
		}
	}
	return backend.QueryResult{SQL: "-- " + in.Question, Rows: []backend.Record{}}, nil
}

func (g *gatedQuerier) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func TestQuery_LastSubmitWins(t *testing.T) {
	slow := make(chan struct{})
	q := &gatedQuerier{gates: map[string]chan struct{}{"first": slow}}
	wf := NewQuery(q)

	first, err := wf.Submit(backend.QueryInput{Question: "first"})
	require.NoError(t, err)
	second, err := wf.Submit(backend.QueryInput{Question: "second"})
	require.NoError(t, err)
	assert.Greater(t, second, first)

	st, err := wf.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, Succeeded, st.Phase)
	assert.Equal(t, "-- second", st.Result.SQL)

	// The superseded response arrives late and must be discarded.
	close(slow)
	wf.Close()

	final := wf.State()
	assert.Equal(t, Succeeded, final.Phase)
	assert.Equal(t, second, final.Attempt)
	assert.Equal(t, "-- second", final.Result.SQL)
	assert.Equal(t, 2, q.callCount())
}

func TestQuery_LateFailureOfSupersededAttemptIgnored(t *testing.T) {
	slow := make(chan struct{})
	wf := NewEngine[string, string]("test", func(ctx context.Context, in string) (string, error) {
		if in == "a" {
			<-slow
			return "", errors.New("boom")
		}
		return "ok:" + in, nil
	}, nil, "failed")

	_, err := wf.Submit("a")
	require.NoError(t, err)
	_, err = wf.Submit("b")
	require.NoError(t, err)
	st, err := wf.Wait(waitCtx(t))
	require.NoError(t, err)
	require.Equal(t, Succeeded, st.Phase)

	close(slow)
	wf.Close()
	assert.Equal(t, "ok:b", wf.State().Result)
}

func TestQuery_BlankQuestionIssuesNothing(t *testing.T) {
	q := &gatedQuerier{}
	wf := NewQuery(q)
	defer wf.Close()

	for _, question := range []string{"", "   ", "\t\n"} {
		_, err := wf.Submit(backend.QueryInput{Question: question})
		require.Error(t, err)
		assert.True(t, qerrors.Is(err, qerrors.Validation))
	}
	assert.Equal(t, Idle, wf.State().Phase)
	assert.Equal(t, 0, q.callCount())

	_, err := wf.Submit(backend.QueryInput{Question: "ok"})
	require.NoError(t, err)
	done, err := wf.Wait(waitCtx(t))
	require.NoError(t, err)

	_, err = wf.Submit(backend.QueryInput{Question: " "})
	require.Error(t, err)
	assert.Equal(t, done, wf.State(), "rejected input leaves the terminal state alone")
	assert.Equal(t, 1, q.callCount())
}

func TestQuery_RunningClearsPreviousResult(t *testing.T) {
	gate := make(chan struct{})
	q := &gatedQuerier{gates: map[string]chan struct{}{"second": gate}}
	wf := NewQuery(q)
	defer wf.Close()

	var mu sync.Mutex
	var seen []QueryState
	wf.OnChange(func(s QueryState) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	_, err := wf.Submit(backend.QueryInput{Question: "first"})
	require.NoError(t, err)
	_, err = wf.Wait(waitCtx(t))
	require.NoError(t, err)

	_, err = wf.Submit(backend.QueryInput{Question: "second"})
	require.NoError(t, err)
	running := wf.State()
	assert.Equal(t, Running, running.Phase)
	assert.Equal(t, "second", running.Input.Question)
	assert.Empty(t, running.Result.SQL)
	assert.Nil(t, running.Result.Rows)

	close(gate)
	_, err = wf.Wait(waitCtx(t))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	phases := make([]Phase, 0, len(seen))
	for _, s := range seen {
		phases = append(phases, s.Phase)
	}
	assert.Equal(t, []Phase{Running, Succeeded, Running, Succeeded}, phases)
}

func newBackend(t *testing.T, h http.HandlerFunc) *backend.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return backend.NewClient(srv.URL, manifest.DefaultEndpoints(), staticToken("tok"))
}

type staticToken string

func (s staticToken) Get() (string, bool) { return string(s), s != "" }

func TestQuery_RoundTripOverHTTP(t *testing.T) {
	api := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"sql_query":"SELECT name FROM users","results":[{"name":"ada"},{"name":"bob"}],"summary":"Two users."}`)
	})
	wf := NewQuery(api)
	defer wf.Close()

	_, err := wf.Submit(backend.QueryInput{Question: "list users"})
	require.NoError(t, err)
	st, err := wf.Wait(waitCtx(t))
	require.NoError(t, err)

	require.Equal(t, Succeeded, st.Phase)
	assert.Equal(t, "SELECT name FROM users", st.Result.SQL)
	assert.Equal(t, "Two users.", st.Result.Summary)
	assert.Len(t, st.Result.Rows, 2)
	assert.Equal(t, []string{"name"}, st.Result.Columns())
}

func TestQuery_MissingResultsIsEmpty(t *testing.T) {
	api := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"sql_query":"SELECT 1"}`)
	})
	wf := NewQuery(api)
	defer wf.Close()

	_, err := wf.Submit(backend.QueryInput{Question: "one"})
	require.NoError(t, err)
	st, err := wf.Wait(waitCtx(t))
	require.NoError(t, err)

	require.Equal(t, Succeeded, st.Phase)
	assert.NotNil(t, st.Result.Rows)
	assert.Empty(t, st.Result.Rows)
}

func TestWorkflows_NonSuccessFailsWithGenericMessage(t *testing.T) {
	for _, status := range []int{400, 401, 404, 422, 500, 503} {
		api := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"detail":"internal details that must not leak"}`)
		})

		q := NewQuery(api)
		_, err := q.Submit(backend.QueryInput{Question: "x"})
		require.NoError(t, err)
		qs, err := q.Wait(waitCtx(t))
		require.NoError(t, err)
		q.Close()
		assert.Equal(t, Failed, qs.Phase, "status %d", status)
		assert.Equal(t, QueryFailedMessage, qs.Reason)
		assert.Error(t, qs.Err)

		u := NewUpload(api)
		_, err = u.Submit(backend.UploadInput{Filename: "s.sql", File: []byte("CREATE TABLE t (id int);")})
		require.NoError(t, err)
		us, err := u.Wait(waitCtx(t))
		require.NoError(t, err)
		u.Close()
		assert.Equal(t, Failed, us.Phase, "status %d", status)
		assert.Equal(t, UploadFailedMessage, us.Reason)
	}
}

type countingUploader struct {
	calls atomic.Int32
	res   backend.UploadResult
}

func (c *countingUploader) UploadSchema(context.Context, backend.UploadInput) (backend.UploadResult, error) {
	c.calls.Add(1)
	return c.res, nil
}

func TestUpload_NoFileIssuesNothing(t *testing.T) {
	up := &countingUploader{res: backend.UploadResult{Message: "ok"}}
	wf := NewUpload(up)
	defer wf.Close()

	_, err := wf.Submit(backend.UploadInput{})
	require.Error(t, err)
	assert.True(t, qerrors.Is(err, qerrors.Validation))
	assert.Equal(t, UploadState{}, wf.State())
	assert.EqualValues(t, 0, up.calls.Load())
}

func TestUpload_EmptyFileIsStillSent(t *testing.T) {
	up := &countingUploader{res: backend.UploadResult{Message: "ok"}}
	wf := NewUpload(up)
	defer wf.Close()

	_, err := wf.Submit(backend.UploadInput{Filename: "truncated.sql", File: []byte{}})
	require.NoError(t, err)
	st, err := wf.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, Succeeded, st.Phase)
	assert.EqualValues(t, 1, up.calls.Load())
}

func TestUpload_ResponseMapping(t *testing.T) {
	tests := []struct {
		name string
		body string
		want backend.UploadResult
	}{
		{name: "msg and id", body: `{"msg":"Schema ingested","id":"42"}`, want: backend.UploadResult{Message: "Schema ingested", ID: "42"}},
		{name: "id absent", body: `{"msg":"Schema ingested"}`, want: backend.UploadResult{Message: "Schema ingested"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})
			wf := NewUpload(api)
			defer wf.Close()

			_, err := wf.Submit(backend.UploadInput{Filename: "schema.sql", File: []byte("CREATE TABLE t (id int);")})
			require.NoError(t, err)
			st, err := wf.Wait(waitCtx(t))
			require.NoError(t, err)
			require.Equal(t, Succeeded, st.Phase)
			assert.Equal(t, tt.want, st.Result)
		})
	}
}

func TestEngine_CloseFailsInFlightAndRejectsSubmit(t *testing.T) {
	q := &gatedQuerier{gates: map[string]chan struct{}{"stuck": make(chan struct{})}}
	wf := NewQuery(q)

	_, err := wf.Submit(backend.QueryInput{Question: "stuck"})
	require.NoError(t, err)
	wf.Close()

	st := wf.State()
	assert.Equal(t, Failed, st.Phase)
	assert.ErrorIs(t, st.Err, context.Canceled)

	_, err = wf.Submit(backend.QueryInput{Question: "again"})
	assert.Error(t, err)
}

func TestEngine_SubmitRacingClose(t *testing.T) {
	for i := 0; i < 200; i++ {
		wf := NewEngine[int, int]("race", func(ctx context.Context, in int) (int, error) {
			return in, nil
		}, nil, "failed")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = wf.Submit(i)
		}()
		go func() {
			defer wg.Done()
			wf.Close()
		}()
		wg.Wait()
		wf.Close()

		// Whatever won, no attempt may still be running after Close.
		assert.NotEqual(t, Running, wf.State().Phase)
	}
}

func TestSuggestedExtension(t *testing.T) {
	assert.True(t, SuggestedExtension("schema.SQL"))
	assert.True(t, SuggestedExtension("tables.csv"))
	assert.False(t, SuggestedExtension("notes.txt"))
	assert.False(t, SuggestedExtension("Makefile"))
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "failed", Failed.String())
	assert.True(t, Failed.Terminal())
	assert.False(t, Running.Terminal())
}
