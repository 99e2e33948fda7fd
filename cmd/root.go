// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the QueryMind CLI.
// It implements subcommands for authentication, schema upload and natural-language
// questions using the Cobra CLI framework, and renders results with pterm.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	showVersion bool
	serverFlag  string
	verboseFlag bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "querymind",
	Short: "Ask questions about your database in plain language",
	Long: `QueryMind turns natural-language questions into SQL. Upload your schema once,
then ask questions; the backend generates the SQL, runs it and summarizes the result.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipSetup(cmd) {
			return nil
		}
		return setupApp()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		app.close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion()
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application.
// Interrupts cancel the command context. Errors that were already shown to the
// user only set the exit code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	app.close()
	if err != nil {
		var shown *reportedError
		if !errors.As(err, &shown) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// reportedError marks an error whose message has already been printed.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// skipSetup reports commands that run without config, token store or backend.
func skipSetup(cmd *cobra.Command) bool {
	if !cmd.HasParent() {
		return true
	}
	switch cmd.Name() {
	case "version", "help", "completion":
		return true
	}
	return false
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Backend base URL (overrides server_url and QUERYMIND_SERVER)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose debug output")
}
