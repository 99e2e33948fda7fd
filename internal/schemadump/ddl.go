// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package schemadump

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultFilename is the name given to a dumped schema when it is uploaded.
const DefaultFilename = "schema.sql"

// inspectConcurrency bounds parallel catalog queries against the pool.
const inspectConcurrency = 4

// Dump inspects every base table in schemas and returns their CREATE TABLE statements.
// Tables are inspected in parallel but rendered in name order.
func Dump(ctx context.Context, in *Inspector, schemas []string) ([]byte, int, error) {
	if len(schemas) == 0 {
		schemas = []string{"public"}
	}
	names, err := in.ListTables(ctx, schemas)
	if err != nil {
		return nil, 0, err
	}
	if len(names) == 0 {
		return nil, 0, fmt.Errorf("no tables found in schema(s) %s", strings.Join(schemas, ", "))
	}

	tables := make([]*Table, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(inspectConcurrency)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			t, err := in.Table(gctx, name)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	return []byte(Render(tables)), len(tables), nil
}

// Render formats tables as CREATE TABLE statements separated by blank lines.
func Render(tables []*Table) string {
	var b strings.Builder
	for i, t := range tables {
		if i > 0 {
			b.WriteString("\n")
		}
		writeTable(&b, t)
	}
	return b.String()
}

func writeTable(b *strings.Builder, t *Table) {
	lines := make([]string, 0, len(t.Columns)+len(t.Constraints)+1)
	for _, c := range t.Columns {
		line := "  " + quoteIdent(c.Name) + " " + c.Type
		if c.Default != "" {
			line += " DEFAULT " + c.Default
		}
		if !c.Nullable {
			line += " NOT NULL"
		}
		lines = append(lines, line)
	}
	if len(t.PrimaryKey) > 0 {
		cols := make([]string, len(t.PrimaryKey))
		for i, c := range t.PrimaryKey {
			cols[i] = quoteIdent(c)
		}
		lines = append(lines, "  PRIMARY KEY ("+strings.Join(cols, ", ")+")")
	}
	for _, def := range t.Constraints {
		lines = append(lines, "  "+def)
	}

	fmt.Fprintf(b, "CREATE TABLE %s (\n%s\n);\n", t.QualifiedName(), strings.Join(lines, ",\n"))
	for _, c := range t.Columns {
		if values, ok := t.EnumValues[c.Name]; ok {
			fmt.Fprintf(b, "-- %s.%s allowed values: %s\n", t.Name, c.Name, strings.Join(values, ", "))
		}
	}
}

var plainIdent = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// quoteIdent double-quotes identifiers that would not survive unquoted.
func quoteIdent(s string) string {
	if plainIdent.MatchString(s) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

var createTableBlock = regexp.MustCompile(`(?ims)(CREATE\s+TABLE\s+.*?(?:;|^\s*GO))`)

// ExtractTables returns the CREATE TABLE blocks of a SQL script, the same blocks the
// backend keeps when it ingests an upload.
func ExtractTables(blob []byte) []string {
	return createTableBlock.FindAllString(string(blob), -1)
}

// CountTables returns the number of CREATE TABLE blocks in blob.
func CountTables(blob []byte) int {
	return len(ExtractTables(blob))
}
