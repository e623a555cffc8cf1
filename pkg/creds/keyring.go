package creds

import (
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "redscraper"
	keyringPrefix  = "notify_"
)

// KeyringStore keeps secrets in the system keychain.
type KeyringStore struct{}

// NewKeyringStore probes keychain availability before returning.
func NewKeyringStore() (*KeyringStore, error) {
	const probe = "probe_availability"
	if err := keyring.Set(keyringService, probe, "ok"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, probe)
	return &KeyringStore{}, nil
}

func (k *KeyringStore) Save(secrets *Secrets) error {
	if secrets == nil || secrets.Profile == "" {
		return ErrInvalid
	}
	data, err := json.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}
	if err := keyring.Set(keyringService, keyringPrefix+secrets.Profile, string(data)); err != nil {
		return fmt.Errorf("store in keyring: %w", err)
	}
	return nil
}

func (k *KeyringStore) Load(profile string) (*Secrets, error) {
	if profile == "" {
		return nil, ErrInvalid
	}
	data, err := keyring.Get(keyringService, keyringPrefix+profile)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read from keyring: %w", err)
	}
	var secrets Secrets
	if err := json.Unmarshal([]byte(data), &secrets); err != nil {
		return nil, fmt.Errorf("unmarshal secrets: %w", err)
	}
	return &secrets, nil
}

func (k *KeyringStore) Delete(profile string) error {
	if profile == "" {
		return ErrInvalid
	}
	err := keyring.Delete(keyringService, keyringPrefix+profile)
	if err != nil {
		if err == keyring.ErrNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("delete from keyring: %w", err)
	}
	return nil
}
