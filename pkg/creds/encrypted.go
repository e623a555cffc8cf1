package creds

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000
)

// EncryptedStore keeps all profiles in one AES-GCM encrypted file,
// keyed by a passphrase derived with PBKDF2.
type EncryptedStore struct {
	path       string
	passphrase string
	mu         sync.RWMutex
}

// NewEncryptedStore opens or prepares the encrypted file. The
// passphrase comes from REDSCRAPER_PASSPHRASE or a generated file
// beside the store.
func NewEncryptedStore(path string) (*EncryptedStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}

	store := &EncryptedStore{path: path}
	passphrase, err := store.loadPassphrase()
	if err != nil {
		return nil, fmt.Errorf("load passphrase: %w", err)
	}
	store.passphrase = passphrase
	return store, nil
}

func (e *EncryptedStore) Save(secrets *Secrets) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if secrets == nil || secrets.Profile == "" {
		return ErrInvalid
	}

	profiles, _, err := e.loadProfiles()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load existing profiles: %w", err)
	}
	if profiles == nil {
		profiles = make(map[string]Secrets)
	}
	profiles[secrets.Profile] = *secrets
	return e.saveProfiles(profiles)
}

func (e *EncryptedStore) Load(profile string) (*Secrets, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if profile == "" {
		return nil, ErrInvalid
	}
	profiles, _, err := e.loadProfiles()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	secrets, ok := profiles[profile]
	if !ok {
		return nil, ErrNotFound
	}
	return &secrets, nil
}

func (e *EncryptedStore) Delete(profile string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if profile == "" {
		return ErrInvalid
	}
	profiles, _, err := e.loadProfiles()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("load profiles: %w", err)
	}
	if _, ok := profiles[profile]; !ok {
		return ErrNotFound
	}
	delete(profiles, profile)
	if len(profiles) == 0 {
		return os.Remove(e.path)
	}
	return e.saveProfiles(profiles)
}

type encryptedFile struct {
	Salt      string    `json:"salt"`
	Encrypted string    `json:"encrypted"`
	Version   int       `json:"version"`
	Modified  time.Time `json:"modified"`
}

func (e *EncryptedStore) loadProfiles() (map[string]Secrets, string, error) {
	content, err := os.ReadFile(e.path)
	if err != nil {
		return nil, "", err
	}

	var file encryptedFile
	if err := json.Unmarshal(content, &file); err != nil {
		return nil, "", fmt.Errorf("parse store file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, "", fmt.Errorf("decode salt: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(file.Encrypted)
	if err != nil {
		return nil, "", fmt.Errorf("decode payload: %w", err)
	}

	key := pbkdf2.Key([]byte(e.passphrase), salt, iterations, keySize, sha256.New)
	plaintext, err := decrypt(ciphertext, key)
	if err != nil {
		return nil, "", fmt.Errorf("decrypt payload: %w", err)
	}

	var profiles map[string]Secrets
	if err := json.Unmarshal(plaintext, &profiles); err != nil {
		return nil, "", fmt.Errorf("parse profiles: %w", err)
	}
	return profiles, file.Salt, nil
}

func (e *EncryptedStore) saveProfiles(profiles map[string]Secrets) error {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(e.passphrase), salt, iterations, keySize, sha256.New)
	plaintext, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}
	ciphertext, err := encrypt(plaintext, key)
	if err != nil {
		return fmt.Errorf("encrypt profiles: %w", err)
	}

	content, err := json.MarshalIndent(encryptedFile{
		Salt:      base64.StdEncoding.EncodeToString(salt),
		Encrypted: base64.StdEncoding.EncodeToString(ciphertext),
		Version:   1,
		Modified:  time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store file: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	return os.Rename(tmp, e.path)
}

func (e *EncryptedStore) loadPassphrase() (string, error) {
	if pass := os.Getenv("REDSCRAPER_PASSPHRASE"); pass != "" {
		return pass, nil
	}

	passphraseFile := filepath.Join(filepath.Dir(e.path), ".passphrase")
	if content, err := os.ReadFile(passphraseFile); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("generate passphrase: %w", err)
	}
	passphrase := base64.URLEncoding.EncodeToString(b)
	if err := os.WriteFile(passphraseFile, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("save passphrase: %w", err)
	}
	return passphrase, nil
}

func encrypt(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
