// ABOUTME: CLI commands for accounts: signup, login, logout, whoami, passwd.
// ABOUTME: The signed-in user is remembered in session.json between runs.
package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/healthstatus/internal/auth"
	"github.com/spf13/cobra"
)

var (
	authEmail       string
	authPassword    string
	authName        string
	authNewPassword string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your account",
	Long: `Sign up, sign in and out, and change your password.

Passwords can be passed with --password or typed on stdin when prompted.

COMMANDS:

  signup   Create an account and sign in
  login    Sign in
  logout   Sign out
  whoami   Show the signed-in user
  passwd   Change your password`,
}

var authSignupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Long:  "Create an account and sign in.\n\n" + auth.PasswordRules(),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordOrPrompt(cmd, authPassword, "Password: ")
		if err != nil {
			return err
		}
		u, err := provider.SignUp(cmd.Context(), session, authEmail, password, authName)
		if err != nil {
			return err
		}
		color.Green("✓ Signed up as %s", u.Email)
		return nil
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordOrPrompt(cmd, authPassword, "Password: ")
		if err != nil {
			return err
		}
		u, err := provider.SignIn(cmd.Context(), session, authEmail, password)
		if err != nil {
			return err
		}
		color.Green("✓ Signed in as %s", u.Email)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	RunE: func(cmd *cobra.Command, args []string) error {
		if session.Current() == nil {
			fmt.Println("Not signed in.")
			return nil
		}
		provider.SignOut(session)
		color.Yellow("✓ Signed out")
		return nil
	},
}

var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		u := session.Current()
		if u == nil {
			fmt.Println("Not signed in.")
			return nil
		}
		fmt.Println(u.Email)
		fmt.Printf("  %s\n", color.New(color.Faint).Sprint(u.ID))
		return nil
	},
}

var authPasswdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change your password",
	Long:  "Change your password. The current password is required.\n\n" + auth.PasswordRules(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := currentUserID(); err != nil {
			return err
		}
		current, err := passwordOrPrompt(cmd, authPassword, "Current password: ")
		if err != nil {
			return err
		}
		next, err := passwordOrPrompt(cmd, authNewPassword, "New password: ")
		if err != nil {
			return err
		}
		if err := provider.UpdatePassword(cmd.Context(), session, current, next); err != nil {
			return err
		}
		color.Green("✓ Password updated")
		return nil
	},
}

// passwordOrPrompt returns flagValue, or reads one line from stdin.
func passwordOrPrompt(cmd *cobra.Command, flagValue, prompt string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	for _, c := range []*cobra.Command{authSignupCmd, authLoginCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "account email")
		c.Flags().StringVar(&authPassword, "password", "", "password (prompted when omitted)")
		_ = c.MarkFlagRequired("email")
	}
	authSignupCmd.Flags().StringVar(&authName, "name", "", "display name")
	authPasswdCmd.Flags().StringVar(&authPassword, "current", "", "current password (prompted when omitted)")
	authPasswdCmd.Flags().StringVar(&authNewPassword, "new", "", "new password (prompted when omitted)")

	authCmd.AddCommand(authSignupCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authWhoamiCmd)
	authCmd.AddCommand(authPasswdCmd)
	rootCmd.AddCommand(authCmd)
}
