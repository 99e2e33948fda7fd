// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package render prints workflow outcomes to the terminal with pterm.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"querymind/cli/internal/backend"
	"querymind/cli/internal/logging"
)

// NullText is printed for JSON null cells.
const NullText = "NULL"

// maxCellWidth keeps very wide values from wrapping the whole table.
const maxCellWidth = 60

var (
	titleStyle = pterm.NewStyle(pterm.FgLightCyan, pterm.Bold)
	sqlStyle   = pterm.NewStyle(pterm.FgLightBlue)
	dimStyle   = pterm.NewStyle(pterm.FgGray)
)

// TableData builds pterm table rows: the header is the first row's columns and each
// following line holds that row's values for those columns. Cells a row lacks stay empty;
// columns that only later rows have are not shown.
func TableData(res backend.QueryResult) [][]string {
	cols := res.Columns()
	if len(cols) == 0 {
		return nil
	}
	data := make([][]string, 0, len(res.Rows)+1)
	data = append(data, append([]string(nil), cols...))
	for _, row := range res.Rows {
		line := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := row.Get(c); ok {
				line[i] = truncate(Cell(v), maxCellWidth)
			}
		}
		data = append(data, line)
	}
	return data
}

// Cell formats one result value.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return NullText
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return fmt.Sprintf("%g", x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

// QueryResult prints summary, SQL and rows. Parts the backend omitted are skipped.
func QueryResult(res backend.QueryResult) {
	if res.Summary != "" {
		pterm.Println(pterm.DefaultBox.WithTitle(titleStyle.Sprint("Summary")).WithTopPadding(1).WithBottomPadding(1).WithLeftPadding(1).WithRightPadding(1).Sprint(res.Summary))
	}
	if res.SQL != "" {
		pterm.Println(titleStyle.Sprint("Generated SQL"))
		pterm.Println(sqlStyle.Sprint(strings.TrimSpace(res.SQL)))
		pterm.Println()
	}
	data := TableData(res)
	if data == nil {
		pterm.Info.Println("No rows returned.")
		return
	}
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
	pterm.Println(dimStyle.Sprintf("%d row(s)", len(res.Rows)))
}

// QueryJSON writes the result as indented JSON, keeping column order.
func QueryJSON(w io.Writer, res backend.QueryResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// UploadResult prints an upload acknowledgement.
func UploadResult(res backend.UploadResult) {
	msg := res.Message
	if res.ID != "" {
		msg += dimStyle.Sprintf(" (id %s)", res.ID)
	}
	pterm.Success.Println(msg)
}

// Failure prints a workflow failure reason, with the cause only when verbose.
func Failure(reason string, cause error, verbose bool) {
	pterm.Error.Println(reason)
	if verbose && cause != nil {
		pterm.Println(dimStyle.Sprint(logging.Mask(cause.Error())))
	}
}
