// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"querymind/cli/internal/auth"
	"querymind/cli/internal/backend"
	"querymind/cli/internal/session"
	"querymind/cli/internal/terminal"
)

var loginUser string

// loginCmd exchanges email and password for an access token and resolves the
// identity behind it.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Sign in with your QueryMind account",
	Long: `The login command asks for your email and password and exchanges them for an
access token. The password is read without echo and is never stored; only the token
is kept, in the configured token store (OS keychain by default).

After the token is stored the session is checked once against the backend so the
greeting shows who you are signed in as.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		reader := bufio.NewReader(os.Stdin)

		user := strings.TrimSpace(loginUser)
		if user == "" {
			v, err := terminal.Prompt(reader, "Email: ")
			if err != nil && !errors.Is(err, terminal.ErrNoInput) {
				return err
			}
			user = v
		}

		var password string
		var err error
		if terminal.IsInteractive() {
			password, err = terminal.ReadPassword("Password: ")
		} else {
			password, err = terminal.ReadLine(reader)
		}
		if err != nil && !errors.Is(err, terminal.ErrNoInput) {
			return err
		}

		svc := auth.NewService(app.api, app.store, app.log)
		stop := startSpinner("Signing in")
		_, err = svc.SubmitCredentials(ctx, backend.Credentials{Username: user, Password: password})
		stop()
		if err != nil {
			pterm.Error.Println("Login failed: " + auth.InvalidCredentialsMessage)
			if app.verbose {
				pterm.Println(err.Error())
			}
			return reported(err)
		}

		guard := session.NewGuard(app.api, app.store, session.WithLogger(app.log))
		id, err := guard.Activate(ctx)
		if err != nil {
			showFailure("signed in, but the session could not be verified", err)
			return reported(err)
		}

		pterm.Println(loginGreeting(id.DisplayName()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVarP(&loginUser, "user", "u", "", "Email to sign in with (prompted when omitted)")
}

// loginGreeting returns a random greeting phrase with the user's name.
func loginGreeting(name string) string {
	greetings := []string{
		"🎉 Welcome back, %s!",
		"✨ Great to see you, %s!",
		"🚀 You're all set, %s!",
		"👋 Hello %s! What would you like to know?",
		"🔓 Access granted! Welcome %s!",
		"✅ Signed in as %s",
	}
	return fmt.Sprintf(greetings[rand.Intn(len(greetings))], name)
}
