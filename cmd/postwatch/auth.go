package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"postwatch/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage bot and provider credentials",
	Long: `Manage stored bot and scraping provider credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (containers and CI)

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store credentials securely",
	Long: `Store bot and provider credentials securely in the system keychain or
an encrypted file.

You will be prompted for:
  - Telegram bot token (from @BotFather, required)
  - RapidAPI key for the X provider (optional)
  - Instagram sessionid and csrftoken cookies (optional)
  - User agent for Instagram requests (optional)

Run 'postwatch auth setup' first for a walkthrough of where each value
comes from.`,
	Example: `  # Interactive login
  postwatch auth login

  # Store under a named profile
  postwatch auth login staging`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove stored credentials",
	Long: `Remove stored credentials.

If no profile is provided, you will be shown a list of stored profiles
to choose from. You can also remove all profiles at once.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored credential profiles",
	Long:  `List all stored credential profiles with sanitized secret values.`,
	Run:   runList,
}

// setupCmd represents the auth setup command
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Show the credential setup guide",
	Long:  `Show a step by step guide for obtaining every credential postwatch uses.`,
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowSetupGuide()
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(setupCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fatal("Failed to initialize credential manager", err)
	}

	name := "default"
	if len(args) > 0 {
		name = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	// Check if the profile already exists
	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("⚠️  Profile '%s' already exists. Update credentials? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
		fmt.Println()
	}

	fmt.Println("🔐 Enter your credentials (secret values are hidden as you type):")
	fmt.Println()

	// Bot token with validation
	var botToken string
	for {
		fmt.Print("Telegram bot token: ")
		botToken, err = readPassword()
		if err != nil {
			fatal("Failed to read bot token", err)
		}

		// Tokens look like 123456789:AAF0abc...
		if len(botToken) < 20 || !strings.Contains(botToken, ":") {
			fmt.Println("\n❌ That doesn't look like a valid bot token.")
			fmt.Println("   It should contain a colon, like 123456789:AAF0abc...")
			fmt.Println("   Message @BotFather on Telegram to create one.")
			fmt.Print("\nTry again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				os.Exit(1)
			}
			continue
		}
		break
	}

	fmt.Print("\nRapidAPI key for X (Enter to skip): ")
	xAPIKey, err := readPassword()
	if err != nil {
		fatal("Failed to read API key", err)
	}

	fmt.Print("\nInstagram sessionid cookie (Enter to skip): ")
	sessionID, err := readPassword()
	if err != nil {
		fatal("Failed to read session ID", err)
	}

	var csrfToken string
	if sessionID != "" {
		fmt.Print("\nInstagram csrftoken cookie (Enter to skip): ")
		csrfToken, err = readPassword()
		if err != nil {
			fatal("Failed to read CSRF token", err)
		}
	}

	fmt.Print("\n\n🌐 User agent for Instagram (press Enter to use default): ")
	userAgent, _ := reader.ReadString('\n')
	userAgent = strings.TrimSpace(userAgent)

	creds := &auth.Credentials{
		Name:         name,
		BotToken:     botToken,
		XAPIKey:      xAPIKey,
		IGSessionID:  sessionID,
		IGCSRFToken:  csrfToken,
		UserAgent:    userAgent,
		LastModified: time.Now(),
	}

	// Show what we're about to store, with secrets masked
	sanitized := auth.Sanitize(creds)
	fmt.Println("\n📋 Summary:")
	fmt.Printf("   Profile: %s\n", sanitized.Name)
	fmt.Printf("   Bot token: %s\n", sanitized.BotToken)
	if sanitized.XAPIKey != "" {
		fmt.Printf("   X API key: %s\n", sanitized.XAPIKey)
	}
	if sanitized.IGSessionID != "" {
		fmt.Printf("   IG session: %s\n", sanitized.IGSessionID)
	}
	if userAgent != "" {
		fmt.Printf("   User agent: %s\n", userAgent)
	}

	fmt.Println("\n💾 Storing credentials securely...")
	if err := manager.Store(creds); err != nil {
		fatal("Failed to store credentials", err)
	}

	fmt.Println("\n🎉 Credentials stored successfully!")

	fmt.Println("\n🔒 Security Information:")
	fmt.Println("   Your credentials are encrypted and stored in:")
	if auth.IsKeyringAvailable() {
		fmt.Println("   • System keychain (primary)")
	}
	fmt.Println("   • Encrypted file (backup)")

	fmt.Println("\n📖 Quick Start:")
	fmt.Println("   Start the bot:")
	fmt.Println("   $ postwatch run")
	fmt.Println("\n   Then message your bot on Telegram:")
	fmt.Println("   /latest nasa")
	fmt.Println("\n⚠️  Never share your credentials or config files!")
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fatal("Failed to initialize credential manager", err)
	}

	if len(args) > 0 {
		if err := manager.Delete(args[0]); err != nil {
			fatal("Failed to remove profile", err)
		}
		fmt.Println("✅ Profile removed: " + args[0])
		return
	}

	profiles, err := manager.List()
	if err != nil || len(profiles) == 0 {
		fmt.Println("No stored profiles found.")
		return
	}

	reader := bufio.NewReader(os.Stdin)

	if len(profiles) == 1 {
		fmt.Printf("Remove profile '%s'? (y/N): ", profiles[0].Name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
		if err := manager.Delete(profiles[0].Name); err != nil {
			fatal("Failed to remove profile", err)
		}
		fmt.Println("✅ Profile removed: " + profiles[0].Name)
		return
	}

	fmt.Println("Select profile to remove:")
	for i, p := range profiles {
		fmt.Printf("  %d. %s\n", i+1, p.Name)
	}
	fmt.Printf("  %d. Remove all profiles\n", len(profiles)+1)
	fmt.Printf("  0. Cancel\n\n")

	fmt.Print("Choice: ")
	input, _ := reader.ReadString('\n')

	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

	switch {
	case choice == 0:
		return
	case choice == len(profiles)+1:
		fmt.Print("Remove ALL profiles? This cannot be undone! (yes/N): ")
		confirm, _ := reader.ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			return
		}
		if err := manager.DeleteAll(); err != nil {
			fatal("Failed to remove all profiles", err)
		}
		fmt.Println("✅ All profiles removed")
	case choice > 0 && choice <= len(profiles):
		p := profiles[choice-1]
		if err := manager.Delete(p.Name); err != nil {
			fatal("Failed to remove profile", err)
		}
		fmt.Println("✅ Profile removed: " + p.Name)
	default:
		fatal("Invalid choice", nil)
	}
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fatal("Failed to initialize credential manager", err)
	}

	profiles, err := manager.List()
	if err != nil {
		fatal("Failed to list profiles", err)
	}
	if len(profiles) == 0 {
		fmt.Println("No stored profiles found.")
		fmt.Println("\nRun 'postwatch auth login' to store credentials.")
		return
	}

	fmt.Printf("Stored profiles (%d):\n\n", len(profiles))
	for _, p := range profiles {
		s := auth.Sanitize(p)
		fmt.Printf("  %s\n", s.Name)
		fmt.Printf("    Bot token:  %s\n", s.BotToken)
		if s.XAPIKey != "" {
			fmt.Printf("    X API key:  %s\n", s.XAPIKey)
		}
		if s.IGSessionID != "" {
			fmt.Printf("    IG session: %s\n", s.IGSessionID)
		}
		if !p.LastModified.IsZero() {
			fmt.Printf("    Modified:   %s\n", p.LastModified.Format("2006-01-02 15:04"))
		}
		fmt.Println()
	}
}

// readPassword reads a line of hidden input from the terminal.
func readPassword() (string, error) {
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func fatal(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "❌ %s\n", msg)
	}
	os.Exit(1)
}
