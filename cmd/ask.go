// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"querymind/cli/internal/backend"
	qmerrors "querymind/cli/internal/errors"
	"querymind/cli/internal/history"
	"querymind/cli/internal/render"
	"querymind/cli/internal/workflow"
)

var (
	askJSON      bool
	askNoHistory bool
)

// askCmd sends one natural-language question and prints the generated SQL,
// the rows and the summary.
var askCmd = &cobra.Command{
	Use:     "ask <question>",
	Aliases: []string{"query"},
	Short:   "Ask a question about your data in plain language",
	Long: `The ask command sends a question to the backend, which turns it into SQL,
runs it against the uploaded schema's database and summarizes the result.

The summary, the generated SQL and the result table are printed in that order.
Use --json to get the raw result with columns in the order the backend sent them.

Every question is recorded in the local history (see 'querymind history'); the
result rows are never stored.`,
	Example: `  querymind ask "top 5 customers by revenue last quarter"
  querymind ask --json how many orders were refunded in March`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if _, err := requireSession(ctx); err != nil {
			return err
		}

		wf := workflow.NewQuery(app.api, workflow.WithLogger(app.log), workflow.WithContext(ctx))
		defer wf.Close()

		hist := openHistory()
		if hist != nil {
			defer hist.Close()
		}
		return askQuestion(ctx, wf, hist, strings.Join(args, " "), askJSON)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the result as JSON")
	askCmd.Flags().BoolVar(&askNoHistory, "no-history", false, "Do not record this question in the local history")
}

// askQuestion submits question, waits for it to settle and prints the outcome.
func askQuestion(ctx context.Context, wf *workflow.QueryWorkflow, hist *history.Store, question string, asJSON bool) error {
	if _, err := wf.Submit(backend.QueryInput{Question: question}); err != nil {
		pterm.Error.Println(qmerrors.UserMessage(err))
		return reported(err)
	}

	stop := func() {}
	if !asJSON {
		stop = startSpinner("Thinking")
	}
	st, err := wf.Wait(ctx)
	stop()
	if err != nil {
		return err
	}

	recordQuestion(ctx, hist, st)

	if st.Phase == workflow.Failed {
		showFailure(st.Reason, st.Err)
		return reported(st.Err)
	}
	if asJSON {
		return render.QueryJSON(os.Stdout, st.Result)
	}
	render.QueryResult(st.Result)
	return nil
}

// openHistory opens the local question history. History is best-effort: any
// failure is logged and nil is returned.
func openHistory() *history.Store {
	if askNoHistory {
		return nil
	}
	path, err := history.DefaultPath()
	if err != nil {
		app.log.Debug("history unavailable", zap.Error(err))
		return nil
	}
	h, err := history.Open(path)
	if err != nil {
		app.log.Debug("history unavailable", zap.String("path", path), zap.Error(err))
		return nil
	}
	return h
}

func recordQuestion(ctx context.Context, hist *history.Store, st workflow.QueryState) {
	if hist == nil || !st.Phase.Terminal() {
		return
	}
	e := history.Entry{
		InstanceID: app.cfg.InstanceID,
		Question:   st.Input.Question,
		Outcome:    history.OutcomeSucceeded,
	}
	if st.Phase == workflow.Failed {
		e.Outcome = history.OutcomeFailed
	} else {
		e.SQL = st.Result.SQL
		e.RowCount = len(st.Result.Rows)
	}
	if _, err := hist.Record(context.WithoutCancel(ctx), e); err != nil {
		app.log.Debug("history record failed", zap.Error(err))
	}
}
