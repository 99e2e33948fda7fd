package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querymind/cli/internal/manifest"
)

type staticTokens struct{ token string }

func (s staticTokens) Get() (string, bool) { return s.token, s.token != "" }

func newTestClient(t *testing.T, token string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, manifest.DefaultEndpoints(), staticTokens{token: token})
}

func TestRequest_AttachesBearerWhenTokenPresent(t *testing.T) {
	var got string
	c := newTestClient(t, "abc.def.ghi", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	resp, err := c.Request(context.Background(), http.MethodGet, "/anything", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "Bearer abc.def.ghi", got)
}

func TestRequest_UnauthenticatedWhenStoreEmpty(t *testing.T) {
	var present bool
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["Authorization"]
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := c.Request(context.Background(), http.MethodGet, "/x", nil)
	require.NoError(t, err)
	assert.False(t, present)
}

func TestRequest_BodyReturnedVerbatim(t *testing.T) {
	const payload = `{"b":1,  "a":[2]}`
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, payload)
	})

	resp, err := c.Request(context.Background(), http.MethodGet, "/x", nil)
	require.NoError(t, err)
	assert.Equal(t, payload, string(resp.Body))
}

func TestRequest_NonSuccessIsTransportError(t *testing.T) {
	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Could not validate credentials"}`)
	})

	_, err := c.Request(context.Background(), http.MethodGet, "/users/me", nil)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	assert.True(t, te.Unauthorized())
	assert.False(t, te.Network())
	assert.Equal(t, "Could not validate credentials", te.Detail())
	assert.Contains(t, te.Error(), "GET /users/me: 401 Unauthorized")
}

func TestRequest_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, manifest.DefaultEndpoints(), nil)
	_, err := c.Request(context.Background(), http.MethodGet, "/users/me", nil)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Network())
	assert.NotNil(t, errors.Unwrap(te))
}

func TestWithTimeout_LeavesSharedClientAlone(t *testing.T) {
	tests := []struct {
		name string
		opts func(shared *http.Client) []Option
	}{
		{name: "timeout after client", opts: func(shared *http.Client) []Option {
			return []Option{WithHTTPClient(shared), WithTimeout(time.Second)}
		}},
		{name: "timeout before client", opts: func(shared *http.Client) []Option {
			return []Option{WithTimeout(time.Second), WithHTTPClient(shared)}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shared := &http.Client{Timeout: time.Minute}
			c := NewClient("http://backend", manifest.DefaultEndpoints(), nil, tt.opts(shared)...)

			assert.Equal(t, time.Minute, shared.Timeout)
			assert.NotSame(t, shared, c.client)
			assert.Equal(t, time.Second, c.client.Timeout)
		})
	}

	shared := &http.Client{Timeout: time.Minute}
	c := NewClient("http://backend", manifest.DefaultEndpoints(), nil, WithHTTPClient(shared))
	assert.Same(t, shared, c.client, "without WithTimeout the client is used as given")
}

func TestAuthenticate_FormEncoded(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/token", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("username") != "alice@example.com" || r.PostForm.Get("password") != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"jwt-token","token_type":"bearer"}`)
	})

	token, err := c.Authenticate(context.Background(), Credentials{Username: "alice@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)

	_, err = c.Authenticate(context.Background(), Credentials{Username: "alice@example.com", Password: "wrong"})
	var te *TransportError
	assert.ErrorAs(t, err, &te)
}

func TestAuthenticate_MissingToken(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"token_type":"bearer"}`)
	})
	_, err := c.Authenticate(context.Background(), Credentials{Username: "u", Password: "p"})
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestWhoAmI(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    Identity
		wantErr bool
	}{
		{name: "full identity", status: 200, body: `{"email":"a@b.c","full_name":"Ada Lovelace","id":7}`, want: Identity{Email: "a@b.c", FullName: "Ada Lovelace"}},
		{name: "fields optional", status: 200, body: `{"email":"a@b.c"}`, want: Identity{Email: "a@b.c"}},
		{name: "not json", status: 200, body: `<html>`, wantErr: true},
		{name: "json null", status: 200, body: `null`, wantErr: true},
		{name: "array", status: 200, body: `[]`, wantErr: true},
		{name: "unauthorized", status: 401, body: `{"detail":"nope"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/users/me", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			got, err := c.WhoAmI(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUploadSchema_Multipart(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/upload-schema", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "schema.sql", hdr.Filename)
		assert.Equal(t, "CREATE TABLE users (id int);", string(data))
		_, _ = io.WriteString(w, `{"msg":"Schema ingested","id":"42"}`)
	})

	res, err := c.UploadSchema(context.Background(), UploadInput{Filename: "schema.sql", File: []byte("CREATE TABLE users (id int);")})
	require.NoError(t, err)
	assert.Equal(t, UploadResult{Message: "Schema ingested", ID: "42"}, res)
	assert.EqualValues(t, 1, calls.Load())
}

func TestDecodeUploadResult(t *testing.T) {
	tests := []struct {
		name string
		body string
		want UploadResult
	}{
		{name: "msg and string id", body: `{"msg":"Schema ingested","id":"42"}`, want: UploadResult{Message: "Schema ingested", ID: "42"}},
		{name: "no id", body: `{"msg":"Schema ingested"}`, want: UploadResult{Message: "Schema ingested"}},
		{name: "message casing", body: `{"message":"ok","id":17}`, want: UploadResult{Message: "ok", ID: "17"}},
		{name: "msg wins over message", body: `{"message":"b","msg":"a"}`, want: UploadResult{Message: "a"}},
		{name: "empty object", body: `{}`, want: UploadResult{Message: DefaultUploadMessage}},
		{name: "not json", body: `done`, want: UploadResult{Message: DefaultUploadMessage}},
		{name: "id of other type ignored", body: `{"msg":"x","id":{"n":1}}`, want: UploadResult{Message: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeUploadResult([]byte(tt.body)))
		})
	}
}

func TestQuery_RoundTrip(t *testing.T) {
	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "how many users", body["question"])
		_, _ = io.WriteString(w, `{"sql_query":"SELECT COUNT(*) FROM users","results":[{"n":5}],"summary":"Five users."}`)
	})

	res, err := c.Query(context.Background(), QueryInput{Question: "how many users"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM users", res.SQL)
	assert.Equal(t, "Five users.", res.Summary)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []string{"n"}, res.Columns())
	v, ok := res.Rows[0].Get("n")
	require.True(t, ok)
	assert.Equal(t, json.Number("5"), v)
}

func TestDecodeQueryResult(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		sql      string
		summary  string
		rows     int
		firstCol []string
	}{
		{name: "missing results", body: `{"sql_query":"SELECT 1"}`, sql: "SELECT 1", rows: 0},
		{name: "results not a list", body: `{"results":"oops","summary":"s"}`, summary: "s", rows: 0},
		{name: "results null", body: `{"results":null}`, rows: 0},
		{name: "column order kept", body: `{"results":[{"z":1,"a":2,"m":3},{"a":4}]}`, rows: 2, firstCol: []string{"z", "a", "m"}},
		{name: "scalar rows", body: `{"results":[1,"two"]}`, rows: 2, firstCol: []string{ValueColumn}},
		{name: "mistyped sql", body: `{"sql_query":42}`, rows: 0},
		{name: "not json", body: `Internal`, rows: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeQueryResult([]byte(tt.body))
			assert.Equal(t, tt.sql, got.SQL)
			assert.Equal(t, tt.summary, got.Summary)
			assert.NotNil(t, got.Rows)
			assert.Len(t, got.Rows, tt.rows)
			assert.Equal(t, tt.firstCol, got.Columns())
		})
	}
}

func TestRecord_JSONPreservesOrder(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"name":"bob","age":30,"tags":null}`), &r))
	assert.Equal(t, []string{"name", "age", "tags"}, r.Columns)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"bob","age":30,"tags":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`[1]`), &r))
}
