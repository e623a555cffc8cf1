// Package creds stores notification secrets (Discord webhook URL,
// Telegram bot token and chat id) outside of config files, preferring
// the system keychain with an encrypted file as fallback.
package creds

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Secrets holds the notification credentials for one profile.
type Secrets struct {
	Profile           string    `json:"profile"`
	DiscordWebhookURL string    `json:"discord_webhook_url,omitempty"`
	TelegramBotToken  string    `json:"telegram_bot_token,omitempty"`
	TelegramChatID    string    `json:"telegram_chat_id,omitempty"`
	LastModified      time.Time `json:"last_modified"`
}

// IsEmpty reports whether no channel is configured at all.
func (s *Secrets) IsEmpty() bool {
	return s.DiscordWebhookURL == "" && s.TelegramBotToken == "" && s.TelegramChatID == ""
}

// Store persists and retrieves profiles of secrets.
type Store interface {
	Save(secrets *Secrets) error
	Load(profile string) (*Secrets, error)
	Delete(profile string) error
}

var (
	// ErrNotFound means no secrets exist for the profile.
	ErrNotFound = errors.New("credentials not found")
	// ErrInvalid means the profile name or payload is unusable.
	ErrInvalid = errors.New("invalid credentials")
)

// DefaultProfile is used when the CLI gives no profile name.
const DefaultProfile = "default"

// Manager tries the keychain first and the encrypted file after it.
type Manager struct {
	stores []Store
}

// NewManager builds the store chain. The keychain is skipped when the
// platform has none available.
func NewManager() (*Manager, error) {
	var stores []Store

	if ks, err := NewKeyringStore(); err == nil {
		stores = append(stores, ks)
	}

	configDir, err := configDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config directory: %w", err)
	}
	es, err := NewEncryptedStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("create encrypted store: %w", err)
	}
	stores = append(stores, es)

	return &Manager{stores: stores}, nil
}

// Save writes the secrets to the first store that accepts them.
func (m *Manager) Save(secrets *Secrets) error {
	if secrets == nil || secrets.Profile == "" {
		return ErrInvalid
	}
	if secrets.IsEmpty() {
		return ErrInvalid
	}
	secrets.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Save(secrets); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("save credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Load returns the secrets from the first store that has them.
func (m *Manager) Load(profile string) (*Secrets, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	for _, store := range m.stores {
		if s, err := store.Load(profile); err == nil && s != nil {
			return s, nil
		}
	}
	return nil, ErrNotFound
}

// Delete removes the profile from every store that holds it.
func (m *Manager) Delete(profile string) error {
	if profile == "" {
		profile = DefaultProfile
	}
	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(profile); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// Mask hides all but the edges of a secret for display.
func Mask(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

func configDir() (string, error) {
	var dir string
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, "Library", "Application Support", "redscraper")
	case "windows":
		dir = filepath.Join(os.Getenv("APPDATA"), "redscraper")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dir = filepath.Join(xdg, "redscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dir = filepath.Join(home, ".config", "redscraper")
		}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}
