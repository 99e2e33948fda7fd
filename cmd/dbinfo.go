// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"querymind/cli/internal/dsn"
	"querymind/cli/internal/logging"
)

// dbinfoCmd shows the configured database with the password masked.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show the database used by upload --from-db",
	Long: `The dbinfo command displays the configured database connection string (DSN)
with the password masked, and the schemas that upload --from-db will dump.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		raw, source, err := resolveDSN()
		if err != nil {
			pterm.Println("❌ Secure storage is not available on this system")
			return reported(err)
		}
		if raw == "" {
			pterm.Println("⚠️  No database connection configured")
			pterm.Println("   Please run: querymind connect")
			return nil
		}
		pterm.Println("Using DSN from " + string(source))
		pterm.Println()

		info, err := dsn.Parse(raw)
		if err != nil {
			pterm.Println(logging.Mask(raw))
			pterm.Error.Println(err.Error())
			return reported(err)
		}

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Database Connection")).
			WithTopPadding(1).WithBottomPadding(1).WithLeftPadding(1).WithRightPadding(1).
			Println(info.Redacted() + "\nschemas: " + strings.Join(info.Schemas, ", "))
		pterm.Println()
		pterm.Println("To update this connection, run: querymind connect")
		pterm.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
}
