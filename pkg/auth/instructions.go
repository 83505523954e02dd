package auth

import (
	"fmt"
	"strings"
)

// ShowSetupGuide displays step-by-step instructions for collecting every
// secret the bot can use
func ShowSetupGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("📚 POSTWATCH CREDENTIAL SETUP GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("The bot needs a Telegram token, and one key per provider you want")
	fmt.Println("to enable. Collect them as follows:")
	fmt.Println()

	// Telegram
	fmt.Println("🤖 STEP 1: Create a Telegram bot token")
	fmt.Println("   - Open Telegram and message @BotFather")
	fmt.Println("   - Send /newbot and follow the prompts")
	fmt.Println("   - Copy the token it gives you (looks like 123456789:AAF...)")
	fmt.Println()

	// RapidAPI
	fmt.Println("🔑 STEP 2: Get a RapidAPI key (for X lookups)")
	fmt.Println("   - Sign up at https://rapidapi.com")
	fmt.Println("   - Subscribe to a Twitter/X data API on the marketplace")
	fmt.Println("   - Copy your application key from the endpoint playground")
	fmt.Println("   - Skip this step if you only need Instagram")
	fmt.Println()

	// Instagram cookies
	fmt.Println("🍪 STEP 3: Extract Instagram session cookies (for Instagram lookups)")
	fmt.Println("   1. Log in to https://www.instagram.com in your browser")
	fmt.Println("   2. Open Developer Tools (F12 or Ctrl+Shift+I, Cmd+Option+I on Mac)")
	fmt.Println("   3. Go to the Application tab (Chrome) or Storage tab (Firefox)")
	fmt.Println("   4. Expand 'Cookies' and click 'https://www.instagram.com'")
	fmt.Println("   5. Copy these values:")
	fmt.Println()
	fmt.Println("   ┌─────────────┬──────────────────────────────────────────────┐")
	fmt.Println("   │ Cookie Name │ What it looks like                           │")
	fmt.Println("   ├─────────────┼──────────────────────────────────────────────┤")
	fmt.Println("   │ sessionid   │ Long string with %3A and %2C                 │")
	fmt.Println("   │             │ Example: 12345678%3Aabcdef...                │")
	fmt.Println("   ├─────────────┼──────────────────────────────────────────────┤")
	fmt.Println("   │ csrftoken   │ 32-character string                          │")
	fmt.Println("   │             │ Example: YTQHujAgMhyveLvvuwCfw9CPI8ROAHoy    │")
	fmt.Println("   └─────────────┴──────────────────────────────────────────────┘")
	fmt.Println()

	// Tips
	fmt.Println("💡 TIPS:")
	fmt.Println("   • Copy the ENTIRE value (everything after the = sign)")
	fmt.Println("   • Don't include quotes or semicolons")
	fmt.Println("   • Session cookies expire, so you may need to refresh them periodically")
	fmt.Println("   • Use a secondary Instagram account to avoid issues with your main one")
	fmt.Println()

	// Security warning
	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • The bot token controls your bot; session cookies give FULL access")
	fmt.Println("     to the Instagram account")
	fmt.Println("   • NEVER share them with anyone")
	fmt.Println("   • Store them securely (this tool encrypts them)")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickSetupGuide shows a condensed version for experienced users
func ShowQuickSetupGuide() {
	fmt.Println("\n🤖 Quick Guide: @BotFather → /newbot → copy token")
	fmt.Println("   X: rapidapi.com → subscribe to a Twitter/X API → copy key")
	fmt.Println("   Instagram: F12 → Application → Cookies → sessionid + csrftoken")
	fmt.Println("   Type 'help' for detailed instructions")
}
