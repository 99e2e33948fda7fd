package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"querymind/cli/internal/logging"
	"querymind/cli/internal/session"
)

// whoamiCmd validates the stored token with the backend and shows the account behind it.
var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Aliases: []string{"me"},
	Short:   "Show current authenticated account",
	Long: `The whoami command checks the stored token with the backend and prints the
account it belongs to. A token the backend no longer accepts is removed, so the
next command will ask you to log in again.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		guard := session.NewGuard(app.api, app.store, session.WithLogger(app.log))
		id, err := guard.Activate(cmd.Context())
		if err != nil {
			fmt.Println("🔒 You're not logged in.")
			fmt.Println("   Run 'querymind login' to get started.")
			if app.verbose {
				pterm.Println(logging.PresentError("whoami", err))
			}
			return nil
		}

		if id.FullName != "" && id.Email != "" {
			fmt.Printf("👤 %s <%s>\n", id.FullName, id.Email)
		} else {
			fmt.Printf("👤 %s\n", id.DisplayName())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
