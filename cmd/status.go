// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"querymind/cli/internal/auth"
)

// statusCmd shows local session state without contacting the backend.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local configuration and stored token details",
	Long: `The status command prints the backend address, where the token is stored and,
when the token is a JWT, its subject and expiry. Claims are read without verifying
the signature; only the backend decides whether a token is valid.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		rows := [][]string{
			{"Server", app.cfg.ServerURL},
			{"Instance", app.cfg.InstanceID},
			{"Token store", app.store.BackendName()},
		}

		token, ok := app.store.Get()
		if !ok {
			rows = append(rows, []string{"Token", "none (run `querymind login`)"})
		} else {
			rows = append(rows, []string{"Token", "present"})
			if info, err := auth.InspectToken(token); err == nil {
				if info.Subject != "" {
					rows = append(rows, []string{"Subject", info.Subject})
				}
				if info.HasExpiry() {
					exp := info.ExpiresAt.Local().Format(time.RFC1123)
					if info.Expired(time.Now()) {
						exp += " (expired)"
					}
					rows = append(rows, []string{"Expires", exp})
				}
			} else {
				rows = append(rows, []string{"Claims", "opaque token"})
			}
		}

		return pterm.DefaultTable.WithData(rows).Render()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
