package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Credentials holds the secrets a running bot needs: the Telegram bot
// token plus the optional provider keys. Profiles are keyed by Name so
// several bots can share one machine.
type Credentials struct {
	Name         string    `json:"name"`
	BotToken     string    `json:"bot_token"`
	XAPIKey      string    `json:"x_api_key,omitempty"`
	IGSessionID  string    `json:"ig_session_id,omitempty"`
	IGCSRFToken  string    `json:"ig_csrf_token,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves a credential profile
	Store(creds *Credentials) error

	// Retrieve gets the profile with the given name
	Retrieve(name string) (*Credentials, error)

	// List returns all stored profiles
	List() ([]*Credentials, error)

	// Delete removes the profile with the given name
	Delete(name string) error

	// Exists checks if a profile exists
	Exists(name string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a new credential manager with appropriate storage backends
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	// Try keyring first (system keychain)
	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	// Always add encrypted file store as fallback
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	// Add environment store as last resort
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves credentials using the first available store
func (m *Manager) Store(creds *Credentials) error {
	if creds.Name == "" {
		return errors.New("profile name is required")
	}
	if creds.BotToken == "" {
		return errors.New("bot token is required")
	}

	creds.LastModified = time.Now()

	// Try each store in order
	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(creds); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(name string) (*Credentials, error) {
	for _, store := range m.stores {
		if creds, err := store.Retrieve(name); err == nil && creds != nil {
			return creds, nil
		}
	}
	return nil, fmt.Errorf("credentials not found for profile: %s", name)
}

// RetrieveDefault gets the default profile or the first available one.
// Environment variables win so that containerized deployments never have
// to touch a keychain.
func (m *Manager) RetrieveDefault() (*Credentials, error) {
	if envStore, ok := m.stores[len(m.stores)-1].(*EnvironmentStore); ok {
		if creds, err := envStore.Retrieve(""); err == nil && creds != nil {
			return creds, nil
		}
	}

	profiles, err := m.List()
	if err == nil && len(profiles) > 0 {
		return profiles[0], nil
	}

	return nil, errors.New("no credentials found")
}

// List returns all stored profiles from all stores
func (m *Manager) List() ([]*Credentials, error) {
	profileMap := make(map[string]*Credentials)

	for _, store := range m.stores {
		profiles, err := store.List()
		if err != nil {
			continue
		}
		for _, creds := range profiles {
			// Use the most recently modified version
			if existing, ok := profileMap[creds.Name]; !ok || creds.LastModified.After(existing.LastModified) {
				profileMap[creds.Name] = creds
			}
		}
	}

	var result []*Credentials
	for _, creds := range profileMap {
		result = append(result, creds)
	}

	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("credentials not found for profile: %s", name)
	}

	return nil
}

// DeleteAll removes all stored credentials
func (m *Manager) DeleteAll() error {
	profiles, err := m.List()
	if err != nil {
		return err
	}

	for _, creds := range profiles {
		_ = m.Delete(creds.Name) // Ignore individual errors
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "postwatch")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "postwatch")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "postwatch")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "postwatch")
		}
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Sanitize creates a copy of the credentials with sensitive data masked
func Sanitize(creds *Credentials) *Credentials {
	if creds == nil {
		return nil
	}

	return &Credentials{
		Name:         creds.Name,
		BotToken:     maskString(creds.BotToken),
		XAPIKey:      maskString(creds.XAPIKey),
		IGSessionID:  maskString(creds.IGSessionID),
		IGCSRFToken:  maskString(creds.IGCSRFToken),
		UserAgent:    creds.UserAgent,
		LastModified: creds.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
