// Package keychain stores secrets (S3 secret key, JWT signing secret) in
// the OS credential store, with an encrypted file fallback for headless
// machines.
package keychain

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/99designs/keyring"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "commitorm"

// Keys used for storing secrets.
const (
	KeyS3SecretKey = "s3_secret_key"
	KeyJWTSecret   = "jwt_secret"
	KeyGitToken    = "git_token"
)

// ErrNotFound is returned when a secret has not been stored.
var ErrNotFound = errors.New("secret not found")

var (
	globalManager *Manager
	mu            sync.Mutex
)

// Manager provides thread-safe access to a keyring.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

func NewManager() (*Manager, error) {
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return NewManagerWithRing(ring), nil
}

func NewManagerWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the global manager, retrying initialization after a
// failure.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	m, err := NewManager()
	if err != nil {
		return nil, err
	}
	globalManager = m
	return globalManager, nil
}

// openRing prefers native backends. The file backend is encrypted with
// COMMITORM_KEYRING_PASSWORD.
func openRing() (keyring.Keyring, error) {
	dir := os.Getenv("COMMITORM_KEYRING_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".commitorm", "keyring")
	}

	return keyring.Open(keyring.Config{
		ServiceName: ServiceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		PassPrefix:       ServiceName,
		WinCredPrefix:    ServiceName,
		FileDir:          dir,
		FilePasswordFunc: keyring.FixedStringPrompt(os.Getenv("COMMITORM_KEYRING_PASSWORD")),
	})
}

func (m *Manager) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ring.Set(keyring.Item{Key: key, Data: []byte(value)})
}

func (m *Manager) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, err := m.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if len(it.Data) == 0 {
		return "", ErrNotFound
	}
	return string(it.Data), nil
}

func (m *Manager) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.ring.Remove(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Secret resolves a secret from the environment first, then the keyring.
// A nil manager only consults the environment.
func Secret(m *Manager, envKey, key string) (string, error) {
	if v := os.Getenv(envKey); v != "" {
		return v, nil
	}
	if m == nil {
		return "", ErrNotFound
	}
	return m.Get(key)
}

// ClearAll removes every secret stored by CommitORM.
func (m *Manager) ClearAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_ = m.ring.Remove(KeyS3SecretKey)
	_ = m.ring.Remove(KeyJWTSecret)
	_ = m.ring.Remove(KeyGitToken)
	return nil
}
