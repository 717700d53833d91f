package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mymovies/pkg/auth"
	"mymovies/pkg/errors"
	"mymovies/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored site logins",
	Long: `Manage the logins mymovies uses to sign in to your library.

Logins are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables MYMOVIES_USERNAME and MYMOVIES_PASSWORD (read only)

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store a login securely",
	Long: `Store a username and password in the system keychain or the encrypted
credential file. The password is read without echo.

The most recently stored login is used when a run names no account.`,
	Example: `  # Interactive login
  mymovies auth login

  # Login with username
  mymovies auth login me@example.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove a stored login",
	Long: `Remove a stored login from every store.

If no username is provided, you will be shown the stored logins to choose from.`,
	Example: `  # Interactive logout
  mymovies auth logout

  # Logout specific account
  mymovies auth logout me@example.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored logins",
	Long:  `List stored logins, newest first, with passwords masked.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func newManager() (*auth.Manager, error) {
	manager, err := auth.NewManager()
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeConfig, "credentials", err, "failed to initialize credential manager")
	}
	return manager, nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := newManager()
	if err != nil {
		return err
	}

	var name string
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	prompter := auth.NewTerminalPrompter()
	if name != "" {
		if existing, _ := manager.Retrieve(name); existing != nil {
			fmt.Fprintf(prompter.Out, "Login for '%s' already exists. Replace it? (y/N): ", name)
			answer, _ := prompter.ReadLine()
			if !strings.HasPrefix(strings.ToLower(answer), "y") {
				return nil
			}
		}
	}

	cred, err := prompter.Prompt(name)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeConfig, "login", err, "")
	}

	if err := manager.Store(cred); err != nil {
		return errors.Wrap(errors.ErrorTypeConfig, "login", err, "failed to store credentials")
	}

	ui.PrintSuccess(fmt.Sprintf("Login saved: %s", cred.Username))
	ui.PrintInfo("Use it with", fmt.Sprintf("mymovies scrape --account %s", cred.Username))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := newManager()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		return removeLogin(manager, args[0])
	}

	creds, err := manager.List()
	if err != nil || len(creds) == 0 {
		ui.PrintWarning("No stored logins found")
		return nil
	}

	prompter := auth.NewTerminalPrompter()
	if len(creds) == 1 {
		fmt.Fprintf(prompter.Out, "Remove login '%s'? (y/N): ", creds[0].Username)
		answer, _ := prompter.ReadLine()
		if !strings.HasPrefix(strings.ToLower(answer), "y") {
			return nil
		}
		return removeLogin(manager, creds[0].Username)
	}

	fmt.Fprintln(prompter.Out, "Select login to remove:")
	for i, cred := range creds {
		fmt.Fprintf(prompter.Out, "  %d. %s\n", i+1, cred.Username)
	}
	fmt.Fprintf(prompter.Out, "  0. Cancel\n\nChoice: ")

	answer, _ := prompter.ReadLine()
	var choice int
	fmt.Sscanf(answer, "%d", &choice)

	switch {
	case choice == 0:
		return nil
	case choice > 0 && choice <= len(creds):
		return removeLogin(manager, creds[choice-1].Username)
	default:
		return errors.New(errors.ErrorTypeConfig, "logout", fmt.Sprintf("invalid choice %q", answer))
	}
}

func removeLogin(manager *auth.Manager, name string) error {
	if err := manager.Delete(name); err != nil {
		return errors.Wrap(errors.ErrorTypeConfig, "logout", err, "")
	}
	ui.PrintSuccess("Login removed: " + name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := newManager()
	if err != nil {
		return err
	}

	creds, err := manager.List()
	if err != nil {
		return errors.Wrap(errors.ErrorTypeConfig, "list", err, "failed to list logins")
	}

	if len(creds) == 0 {
		ui.PrintInfo("No stored logins", "Use 'mymovies auth login' to add one")
		return nil
	}

	out := cmd.OutOrStdout()
	for i, cred := range creds {
		sanitized := auth.SanitizeCredential(cred)
		fmt.Fprintf(out, "%d. Username: %s\n", i+1, sanitized.Username)
		fmt.Fprintf(out, "   Password: %s\n", sanitized.Password)
		if !sanitized.LastModified.IsZero() {
			fmt.Fprintf(out, "   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}
