package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querymind/cli/internal/backend"
)

func decode(t *testing.T, body string) backend.QueryResult {
	t.Helper()
	var rows []backend.Record
	require.NoError(t, json.Unmarshal([]byte(body), &rows))
	return backend.QueryResult{Rows: rows}
}

func TestTableData_HeaderFromFirstRow(t *testing.T) {
	res := decode(t, `[{"id":1,"name":"ada","email":null},{"name":"bob","extra":true},{"id":3}]`)

	assert.Equal(t, [][]string{
		{"id", "name", "email"},
		{"1", "ada", NullText},
		{"", "bob", ""},
		{"3", "", ""},
	}, TableData(res))
}

func TestTableData_Empty(t *testing.T) {
	assert.Nil(t, TableData(backend.QueryResult{Rows: []backend.Record{}}))
}

func TestCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{"x", "x"},
		{json.Number("12.50"), "12.50"},
		{true, "true"},
		{2.5, "2.5"},
		{map[string]any{"a": 1}, `{"a":1}`},
		{[]any{"a", json.Number("2")}, `["a",2]`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Cell(tt.in))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "a b", truncate("a\nb", 5))
}

func TestQueryJSON_KeepsColumnOrder(t *testing.T) {
	res := decode(t, `[{"z":1,"a":"x"}]`)
	res.SQL = "SELECT z, a FROM t"

	var buf bytes.Buffer
	require.NoError(t, QueryJSON(&buf, res))
	out := buf.String()
	assert.Contains(t, out, `"sql_query": "SELECT z, a FROM t"`)
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(`"z"`)), bytes.Index(buf.Bytes(), []byte(`"a"`)))
}
