// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"querymind/cli/internal/httperrors"
	"querymind/cli/internal/terminal"
	"querymind/cli/internal/workflow"
)

const shellPrompt = "querymind> "

const shellHelp = `Type a question and press Enter. Commands:
  :upload <file>   upload a schema file
  :history         show the last 10 questions
  :json            toggle JSON output
  :clear           clear the screen
  :quit            leave the shell`

// shellCmd runs an interactive loop on one long-lived query workflow.
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Ask questions interactively",
	Long: `The shell command starts an interactive session. Each line you type is sent as
a question; lines starting with ':' are shell commands (type :help).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := requireSession(ctx)
		if err != nil {
			return err
		}

		opts := []workflow.Option{workflow.WithLogger(app.log), workflow.WithContext(ctx)}
		queries := workflow.NewQuery(app.api, opts...)
		defer queries.Close()
		uploads := workflow.NewUpload(app.api, opts...)
		defer uploads.Close()

		hist := openHistory()
		if hist != nil {
			defer hist.Close()
		}

		pterm.Info.Printfln("signed in as %s, type :help for commands", id.DisplayName())
		lines := readLines(ctx, os.Stdin)
		jsonOut := false

		for {
			os.Stdout.WriteString(shellPrompt)
			var line string
			select {
			case <-ctx.Done():
				pterm.Println()
				return nil
			case l, ok := <-lines:
				if !ok {
					pterm.Println()
					return nil
				}
				line = strings.TrimSpace(l)
			}

			switch {
			case line == "":
				continue
			case line == ":quit" || line == ":q" || line == "exit":
				return nil
			case line == ":help":
				pterm.Println(shellHelp)
			case line == ":clear":
				os.Stdout.WriteString("\033[H\033[2J")
			case line == ":json":
				jsonOut = !jsonOut
				if jsonOut {
					pterm.Info.Println("JSON output on")
				} else {
					pterm.Info.Println("JSON output off")
				}
			case line == ":history":
				if hist == nil {
					pterm.Warning.Println("history is not available")
					continue
				}
				if err := printHistory(ctx, hist, 10); err != nil {
					pterm.Error.Println(err.Error())
				}
			case strings.HasPrefix(line, ":upload"):
				path := strings.TrimSpace(strings.TrimPrefix(line, ":upload"))
				if path == "" {
					pterm.Warning.Println("usage: :upload <file>")
					continue
				}
				in, err := readSchemaFile(path)
				if err != nil {
					pterm.Error.Println(err.Error())
					continue
				}
				if err := runUpload(ctx, uploads, in); err != nil && sessionLost(ctx, err) {
					return err
				}
			case strings.HasPrefix(line, ":"):
				pterm.Warning.Printfln("unknown command %s, type :help", line)
			default:
				if terminal.IsInteractive() {
					terminal.ClearPreviousLines(os.Stdout, len(shellPrompt)+len(line))
					pterm.Println(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("❯ " + line))
				}
				if err := askQuestion(ctx, queries, hist, line, jsonOut); err != nil && sessionLost(ctx, err) {
					return err
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

// sessionLost re-checks the session after a 401 and reports whether the shell must end.
func sessionLost(ctx context.Context, err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	if httperrors.Classify(err) != httperrors.Unauthorized {
		return false
	}
	_, gerr := requireSession(ctx)
	return gerr != nil
}

// readLines feeds stdin lines to a channel so the loop can also watch ctx.
// The goroutine ends when stdin closes; it may outlive the loop on Ctrl+C.
func readLines(ctx context.Context, f *os.File) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		r := bufio.NewReader(f)
		for {
			line, err := terminal.ReadLine(r)
			if err != nil {
				return
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
