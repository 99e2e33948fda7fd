// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"querymind/cli/internal/auth"
	"querymind/cli/internal/keychain"
)

var logoutForgetDB bool

// logoutCmd removes the stored access token. The backend has no logout endpoint,
// so this is purely local.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored access token",
	Long: `The logout command clears the access token from the configured token store.
With --forget-db the saved database connection is removed as well.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		svc := auth.NewService(app.api, app.store, app.log)
		if err := svc.Logout(); err != nil {
			return fmt.Errorf("clear token: %w", err)
		}
		if logoutForgetDB {
			if err := forgetDB(); err != nil {
				pterm.Warning.Printfln("Could not remove the saved database connection: %v", err)
			}
		}

		fmt.Println("✅ Signed out")
		return nil
	},
}

// forgetDB removes the saved DSN from the keychain namespace configured at startup.
func forgetDB() error {
	km, err := keychain.GetManager()
	if err != nil {
		return err
	}
	return km.ClearDB()
}

func init() {
	rootCmd.AddCommand(logoutCmd)
	logoutCmd.Flags().BoolVar(&logoutForgetDB, "forget-db", false, "Also remove the saved database connection")
}
