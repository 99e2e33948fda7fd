// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package schemadump reads table definitions from a live PostgreSQL database and
// renders them as CREATE TABLE statements, the format the backend ingests on upload.
package schemadump

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Querier is the subset of *pgxpool.Pool the inspector needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Column describes one table column.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	// Default is the column default expression, empty when none.
	Default string
}

// Table holds the structure of a single base table.
type Table struct {
	Schema     string
	Name       string
	Columns    []Column
	PrimaryKey []string
	// Constraints are CHECK and FOREIGN KEY definitions as printed by pg_get_constraintdef.
	Constraints []string
	// EnumValues maps column names to the values allowed by an IN/ANY check constraint.
	EnumValues map[string][]string
}

// QualifiedName returns schema.name, omitting the public schema.
func (t *Table) QualifiedName() string {
	if t.Schema == "" || t.Schema == "public" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Inspector queries the catalog and caches table structures.
type Inspector struct {
	// pool is the connection pool for executing schema queries
	pool Querier
	// cache stores table structures keyed by schema.table
	cache map[string]*Table
	// mu protects concurrent access to the cache
	mu  sync.RWMutex
	log *zap.Logger
}

// NewInspector creates an inspector. A nil logger is replaced by a no-op logger.
func NewInspector(pool Querier, log *zap.Logger) *Inspector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Inspector{pool: pool, cache: make(map[string]*Table), log: log}
}

// ListTables returns schema.table names of every base table in schemas, sorted.
func (in *Inspector) ListTables(ctx context.Context, schemas []string) ([]string, error) {
	const q = `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE' AND table_schema = ANY($1)
		ORDER BY table_schema, table_name`

	rows, err := in.pool.Query(ctx, q, schemas)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var schema, table string
		if err := rows.Scan(&schema, &table); err != nil {
			return nil, err
		}
		out = append(out, schema+"."+table)
	}
	return out, rows.Err()
}

// Table retrieves or caches the structure of a table. The name can be either
// "table" or "schema.table".
func (in *Inspector) Table(ctx context.Context, tableName string) (*Table, error) {
	schema, name := parseTableName(tableName)
	key := schema + "." + name

	in.mu.RLock()
	if t, ok := in.cache[key]; ok {
		in.mu.RUnlock()
		return t, nil
	}
	in.mu.RUnlock()

	t := &Table{Schema: schema, Name: name, EnumValues: make(map[string][]string)}
	if err := in.loadColumns(ctx, t); err != nil {
		return nil, err
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("table %s not found", key)
	}
	if err := in.loadPrimaryKey(ctx, t); err != nil {
		return nil, err
	}
	if err := in.loadConstraints(ctx, t); err != nil {
		// Non-fatal: the DDL is still useful without constraints
		in.log.Debug("failed to load constraints", zap.String("table", key), zap.Error(err))
	}

	in.mu.Lock()
	in.cache[key] = t
	in.mu.Unlock()
	return t, nil
}

// parseTableName splits a table name into schema and table components.
// If no schema is specified, it defaults to "public".
func parseTableName(tableName string) (schema string, table string) {
	parts := strings.SplitN(tableName, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "public", tableName
}

func (in *Inspector) loadColumns(ctx context.Context, t *Table) error {
	const q = `
		SELECT a.attname,
		       format_type(a.atttypid, a.atttypmod),
		       NOT a.attnotnull,
		       COALESCE(pg_get_expr(d.adbin, d.adrelid), '')
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
		WHERE n.nspname = $1 AND c.relname = $2 AND a.attnum > 0 AND NOT a.attisdropped
		ORDER BY a.attnum`

	rows, err := in.pool.Query(ctx, q, t.Schema, t.Name)
	if err != nil {
		return fmt.Errorf("columns of %s.%s: %w", t.Schema, t.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type, &c.Nullable, &c.Default); err != nil {
			return err
		}
		t.Columns = append(t.Columns, c)
	}
	return rows.Err()
}

// loadPrimaryKey queries primary key columns in key order.
func (in *Inspector) loadPrimaryKey(ctx context.Context, t *Table) error {
	const q = `
		SELECT kc.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kc
		  ON tc.constraint_name = kc.constraint_name
		 AND tc.table_schema = kc.table_schema
		 AND tc.table_name = kc.table_name
		WHERE tc.table_schema = $1 AND tc.table_name = $2 AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kc.ordinal_position`

	rows, err := in.pool.Query(ctx, q, t.Schema, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return err
		}
		t.PrimaryKey = append(t.PrimaryKey, col)
	}
	return rows.Err()
}

// loadConstraints collects CHECK and FOREIGN KEY definitions.
func (in *Inspector) loadConstraints(ctx context.Context, t *Table) error {
	const q = `
		SELECT con.contype::text, pg_get_constraintdef(con.oid)
		FROM pg_constraint con
		JOIN pg_class c ON c.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2 AND con.contype IN ('c', 'f')
		ORDER BY con.contype, con.conname`

	rows, err := in.pool.Query(ctx, q, t.Schema, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var kind, def string
		if err := rows.Scan(&kind, &def); err != nil {
			return err
		}
		t.Constraints = append(t.Constraints, def)
		if kind == "c" {
			if col, values := extractEnumValues(def); col != "" && len(values) > 0 {
				t.EnumValues[col] = values
			}
		}
	}
	return rows.Err()
}
