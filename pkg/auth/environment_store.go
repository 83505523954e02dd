package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// This is the usual path for containerized deployments.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(name string) (*Credentials, error) {
	botToken := os.Getenv("POSTWATCH_BOT_TOKEN")
	if botToken == "" {
		return nil, ErrCredentialsNotFound
	}

	// Environment variables don't store a profile name, so we use "default"
	// unless the caller asked for a specific one
	if name == "" {
		name = "default"
	}

	return &Credentials{
		Name:         name,
		BotToken:     botToken,
		XAPIKey:      os.Getenv("POSTWATCH_X_API_KEY"),
		IGSessionID:  os.Getenv("POSTWATCH_IG_SESSION_ID"),
		IGCSRFToken:  os.Getenv("POSTWATCH_IG_CSRF_TOKEN"),
		UserAgent:    os.Getenv("POSTWATCH_IG_USER_AGENT"),
		LastModified: time.Now(),
	}, nil
}

// List returns a single profile if environment variables are set
func (e *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := e.Retrieve("")
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv("POSTWATCH_BOT_TOKEN") != ""
}
