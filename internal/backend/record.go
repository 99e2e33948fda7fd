// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ValueColumn names the single column of a result row that was not a JSON object.
const ValueColumn = "value"

// Record is one result row. Columns keeps the order in which the backend sent the keys;
// column sets may differ from row to row.
type Record struct {
	Columns []string
	Values  map[string]any
}

// NewRecord builds a record from parallel column and value slices.
func NewRecord(columns []string, values []any) Record {
	r := Record{Values: make(map[string]any, len(columns))}
	for i, c := range columns {
		if _, dup := r.Values[c]; !dup {
			r.Columns = append(r.Columns, c)
		}
		var v any
		if i < len(values) {
			v = values[i]
		}
		r.Values[c] = v
	}
	return r
}

// Get returns the value of column and whether the row has it.
func (r Record) Get(column string) (any, bool) {
	v, ok := r.Values[column]
	return v, ok
}

// UnmarshalJSON decodes a JSON object, keeping key order. Numbers stay json.Number
// so large integers and decimals print exactly as sent.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record: expected object, got %v", tok)
	}

	r.Columns = nil
	r.Values = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: unexpected key %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		if _, dup := r.Values[key]; !dup {
			r.Columns = append(r.Columns, key)
		}
		r.Values[key] = v
	}
	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the record as an object in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.Values[c])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeRows turns the raw "results" value into records. Anything that is not an
// array yields no rows; array elements that are not objects become one-column rows.
func decodeRows(raw json.RawMessage) []Record {
	rows := []Record{}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return rows
	}
	for _, item := range items {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			var rec Record
			if err := rec.UnmarshalJSON(trimmed); err == nil {
				rows = append(rows, rec)
				continue
			}
		}
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			continue
		}
		rows = append(rows, NewRecord([]string{ValueColumn}, []any{v}))
	}
	return rows
}
