package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mitenedl/pkg/auth"
	"mitenedl/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored album passwords",
	Long: `Manage stored album passwords securely.

Passwords are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (MITENEDL_ALBUM_PASSWORD)`,
}

// saveCmd represents the auth save command
var saveCmd = &cobra.Command{
	Use:   "save <album-url>",
	Short: "Store an album password securely",
	Long: `Store the password for an album in the system keychain or
an encrypted file. Later downloads of the same album pick it up
automatically.`,
	Example: `  mitenedl auth save https://media-asset.example.com/f/abcd1234`,
	Args:    cobra.ExactArgs(1),
	Run:     runAuthSave,
}

// removeAll clears every stored password instead of a single album's
var removeAll bool

// removeCmd represents the auth remove command
var removeCmd = &cobra.Command{
	Use:   "remove [album-url]",
	Short: "Remove a stored album password",
	Long:  `Remove the stored password for an album, or every stored password with --all.`,
	Args:  cobra.MaximumNArgs(1),
	Run:   runAuthRemove,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List albums with stored passwords",
	Run:   runAuthList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(saveCmd)
	authCmd.AddCommand(removeCmd)
	authCmd.AddCommand(listCmd)

	removeCmd.Flags().BoolVar(&removeAll, "all", false, "remove every stored password")
}

func runAuthSave(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager: %v", err)
		os.Exit(1)
	}

	albumURL := strings.TrimSpace(args[0])

	if existing, _ := manager.Retrieve(albumURL); existing != nil {
		reader := bufio.NewReader(os.Stdin)
		fmt.Printf("A password for this album is already stored. Replace it? (y/N): ")
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Print("Album password: ")
	pw, err := readPassword()
	if err != nil {
		ui.PrintError("Failed to read password: %v", err)
		os.Exit(1)
	}
	if pw == "" {
		ui.PrintError("Password must not be empty")
		os.Exit(1)
	}

	cred := &auth.Credential{
		Album:    albumURL,
		Password: pw,
	}
	if err := manager.Store(cred); err != nil {
		ui.PrintError("Failed to store password: %v", err)
		os.Exit(1)
	}

	ui.PrintSuccess("Password stored for " + albumURL)
}

func runAuthRemove(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager: %v", err)
		os.Exit(1)
	}

	if removeAll {
		if err := manager.DeleteAll(); err != nil {
			ui.PrintError("Failed to remove stored passwords: %v", err)
			os.Exit(1)
		}
		ui.PrintSuccess("All stored passwords removed")
		return
	}

	if len(args) == 0 {
		ui.PrintError("An album URL is required unless --all is given")
		os.Exit(1)
	}

	albumURL := strings.TrimSpace(args[0])
	if err := manager.Delete(albumURL); err != nil {
		ui.PrintError("Failed to remove password: %v", err)
		os.Exit(1)
	}

	ui.PrintSuccess("Password removed for " + albumURL)
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager: %v", err)
		os.Exit(1)
	}

	creds, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list stored passwords: %v", err)
		os.Exit(1)
	}

	if len(creds) == 0 {
		ui.PrintInfo("No stored passwords", "Use 'mitenedl auth save <album-url>' to add one")
		return
	}

	for i, cred := range creds {
		sanitized := auth.Sanitize(cred)
		fmt.Printf("%d. Album: %s\n", i+1, sanitized.Album)
		fmt.Printf("   Password: %s\n", sanitized.Password)
		fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
}

// readPassword reads a password from stdin without echoing
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println() // New line after password
		if err == nil {
			return string(password), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
