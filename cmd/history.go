// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"querymind/cli/internal/history"
)

var (
	historyLimit int
	historyClear bool
)

// historyCmd lists questions recorded by ask and shell.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently asked questions",
	Long: `The history command lists the questions you asked on this machine, newest first,
with the generated SQL and how many rows came back. Result rows are never stored.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := history.DefaultPath()
		if err != nil {
			return err
		}
		h, err := history.Open(path)
		if err != nil {
			return err
		}
		defer h.Close()

		if historyClear {
			if err := h.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear history: %w", err)
			}
			pterm.Success.Println("History cleared")
			return nil
		}
		return printHistory(cmd.Context(), h, historyLimit)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Delete all recorded questions")
}

func printHistory(ctx context.Context, h *history.Store, limit int) error {
	entries, err := h.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		pterm.Info.Println("No questions asked yet.")
		return nil
	}

	data := [][]string{{"#", "When", "Question", "Outcome", "Rows", "SQL"}}
	for _, e := range entries {
		rows := "-"
		if e.Outcome == history.OutcomeSucceeded {
			rows = strconv.Itoa(e.RowCount)
		}
		data = append(data, []string{
			strconv.FormatInt(e.ID, 10),
			e.AskedAt.Local().Format("2006-01-02 15:04"),
			e.Question,
			e.Outcome,
			rows,
			oneLine(e.SQL, 60),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// oneLine collapses whitespace and cuts s to n runes.
func oneLine(s string, n int) string {
	var out []rune
	space := false
	for _, r := range s {
		if r == '\n' || r == '\t' || r == '\r' || r == ' ' {
			space = len(out) > 0
			continue
		}
		if space {
			out = append(out, ' ')
			space = false
		}
		out = append(out, r)
	}
	if len(out) > n {
		return string(out[:n-1]) + "…"
	}
	return string(out)
}
