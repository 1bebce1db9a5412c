package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"daycaresync/pkg/auth"
	"daycaresync/pkg/config"
	"daycaresync/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Procare credentials",
	Long: `Manage the Procare login stored in credentials.yml and the cached
session token.

Tokens are cached using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variable (DAYCARESYNC_AUTH_TOKEN, read-only)

Never share your credentials file!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store your Procare login",
	Long: `Store your Procare username and password in the credentials file.

The password is needed for the browser login that obtains a session token.
The token itself is cached after the first sync so later runs skip the
browser entirely.`,
	Example: `  # Interactive login
  daycaresync auth login`,
	Args: cobra.NoArgs,
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the cached session token",
	Long: `Remove the cached session token from the token store and from the
credentials file. The username and password stay on file, so the next
sync logs in through the browser again.`,
	Args: cobra.NoArgs,
	Run:  runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored account and cached token",
	Args:  cobra.NoArgs,
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
}

func credentialsPath() string {
	if credentialsFile != "" {
		return credentialsFile
	}
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return config.DefaultConfig().Procare.CredentialsFile
	}
	return cfg.Procare.CredentialsFile
}

func runLogin(cmd *cobra.Command, args []string) {
	path := credentialsPath()
	reader := bufio.NewReader(os.Stdin)

	creds, err := auth.LoadCredentials(path)
	if err != nil {
		creds = &auth.Credentials{}
	} else {
		fmt.Printf("Account '%s' already on file. Update it? (y/N): ", creds.Daycare.Username)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Print("Procare email: ")
	input, err := reader.ReadString('\n')
	if err != nil {
		ui.PrintError("Failed to read username", err.Error())
		os.Exit(1)
	}
	username := strings.TrimSpace(input)
	if username == "" {
		ui.PrintError("Username is required")
		os.Exit(1)
	}

	fmt.Print("Password: ")
	password, err := readPassword()
	if err != nil {
		ui.PrintError("Failed to read password", err.Error())
		os.Exit(1)
	}
	if password == "" {
		ui.PrintError("Password is required")
		os.Exit(1)
	}

	creds.Daycare.Username = username
	creds.Daycare.Password = password
	// A new login invalidates any token cached for the old one
	creds.Daycare.AuthToken = ""

	if err := creds.Save(path); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Credentials saved: " + path)
	fmt.Println("\nNext step, download your media:")
	fmt.Println("  $ daycaresync sync")
}

func runLogout(cmd *cobra.Command, args []string) {
	path := credentialsPath()

	creds, err := auth.LoadCredentials(path)
	if err != nil {
		ui.PrintError("No credentials file found", path)
		os.Exit(1)
	}

	if store, err := auth.NewStoreChain(); err == nil {
		if err := store.DeleteToken(creds.Daycare.Username); err != nil {
			ui.PrintWarning("Token store: " + err.Error())
		}
	}

	if creds.Daycare.AuthToken != "" {
		creds.Daycare.AuthToken = ""
		if err := creds.Save(path); err != nil {
			ui.PrintError("Failed to update credentials file", err.Error())
			os.Exit(1)
		}
	}

	ui.PrintSuccess("Cached token removed")
}

func runStatus(cmd *cobra.Command, args []string) {
	path := credentialsPath()

	creds, err := auth.LoadCredentials(path)
	if err != nil {
		ui.PrintInfo("No credentials on file", "Use 'daycaresync auth login' to add them")
		return
	}

	ui.PrintInfo("Credentials file", path)
	ui.PrintInfo("Account", creds.Daycare.Username)

	token := creds.Daycare.AuthToken
	source := "credentials file"
	if token == "" {
		if store, err := auth.NewStoreChain(); err == nil {
			if cached, err := store.RetrieveToken(creds.Daycare.Username); err == nil {
				token = cached
				source = "token store"
			}
		}
	}

	if token == "" {
		ui.PrintInfo("Cached token", "none (next sync will log in through the browser)")
		return
	}
	ui.PrintInfo("Cached token", auth.MaskToken(token)+" ("+source+")")
}

// readPassword reads a password from stdin without echoing
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
