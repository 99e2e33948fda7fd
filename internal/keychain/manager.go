// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe secret storage for querymind.
// This module manages all interactions with the OS keychain/credential store,
// providing a unified interface for storing and retrieving sensitive data such as
// the backend bearer token and the database DSN used for schema dumps.
//
// Secrets are namespaced per client instance: two installations on the same machine
// use different service names and never see each other's token. On hosts without a
// usable OS keychain the encrypted file backend of the keyring library is used.
package keychain

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
	"go.uber.org/zap"
)

// Global keychain manager instance
var (
	globalManager *Manager
	globalOpts    = Options{Service: ServiceName}
	mu            sync.Mutex
)

// ErrNotFound is returned when no secret is stored under a key.
var ErrNotFound = errors.New("secret not found")

// Manager provides centralized, thread-safe operations for the secret store.
type Manager struct {
	mu      sync.RWMutex
	ring    keyring.Keyring
	backend keychainBackend
	service string
	log     *zap.Logger
}

// keychainBackend defines the interface for keychain operations.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "querymind"

// KeyDBDSN holds the saved database connection string.
const KeyDBDSN = "db_dsn"

// Options selects where secrets live.
type Options struct {
	// Service is the keychain namespace. Use ScopedService to derive it from an instance id.
	Service string
	// File forces the encrypted file keyring instead of the OS store.
	File bool
	// FileDir is the directory of the file keyring.
	FileDir string
	// Passphrase encrypts the file keyring.
	Passphrase string
	// Logger receives backend debug output. Nil discards it.
	Logger *zap.Logger
}

// ScopedService returns the namespace used for a given client instance.
func ScopedService(instanceID string) string {
	id := strings.TrimSpace(instanceID)
	if id == "" {
		return ServiceName
	}
	return ServiceName + "-" + id
}

// NewManager creates a new keychain manager for the given options.
func NewManager(opts Options) (*Manager, error) {
	if opts.Service == "" {
		opts.Service = ServiceName
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("keychain")

	if opts.File {
		ring, err := openFileRing(opts)
		if err != nil {
			return nil, err
		}
		return &Manager{ring: ring, service: opts.Service, log: log}, nil
	}

	// Try native security backend first on macOS
	if runtime.GOOS == "darwin" {
		backend, err := newSecurityBackend(opts.Service, log)
		if err == nil {
			return &Manager{backend: backend, service: opts.Service, log: log}, nil
		}
		// Fall through to keyring library if security command fails
	}

	ring, err := openRing(opts.Service)
	if err != nil {
		return nil, err
	}

	return &Manager{ring: ring, service: opts.Service, log: log}, nil
}

// Configure sets the options used by GetManager. A manager created with
// different options is dropped so the next GetManager call reopens the store.
func Configure(opts Options) {
	mu.Lock()
	defer mu.Unlock()
	if opts.Service == "" {
		opts.Service = ServiceName
	}
	if globalManager != nil && globalOpts != opts {
		globalManager = nil
	}
	globalOpts = opts
}

// GetManager returns the global keychain manager instance.
// If not initialized, it will be created on first call.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	m, err := NewManager(globalOpts)
	if err != nil {
		return nil, err
	}
	globalManager = m
	return globalManager, nil
}

// openRing opens the OS keyring using native platform backends only.
func openRing(service string) (keyring.Keyring, error) {
	var allowedBackends []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		// Pass requires 'pass' utility installed: brew install pass
		allowedBackends = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.PassBackend,
		}
	case "windows":
		allowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	default:
		allowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		}
	}

	cfg := keyring.Config{
		ServiceName:     service,
		AllowedBackends: allowedBackends,
		PassPrefix:      service,
	}

	// Hint prefixes where supported to minimize namespace collisions
	if runtime.GOOS == "windows" {
		cfg.WinCredPrefix = service
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("OS keychain unavailable (set token_backend: file to use an encrypted file instead): %w", err)
	}

	return ring, nil
}

func openFileRing(opts Options) (keyring.Keyring, error) {
	if opts.FileDir == "" {
		return nil, errors.New("file keyring requires a directory")
	}
	return keyring.Open(keyring.Config{
		ServiceName:      opts.Service,
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          opts.FileDir,
		FilePasswordFunc: keyring.FixedStringPrompt(opts.Passphrase),
	})
}

// Service returns the namespace this manager writes to.
func (m *Manager) Service() string { return m.service }

// SetSecret stores value under key, replacing any previous value.
// This method is thread-safe.
func (m *Manager) SetSecret(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Set(key, value)
	}
	m.log.Debug("set secret", zap.String("service", m.service), zap.String("key", key), zap.Int("bytes", len(value)))
	return m.ring.Set(keyring.Item{Key: key, Data: []byte(value)})
}

// Secret retrieves the value stored under key.
// It returns ErrNotFound when nothing (or an empty value) is stored.
// This method is thread-safe.
func (m *Manager) Secret(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.backend != nil {
		v, err := m.backend.Get(key)
		if err != nil {
			return "", err
		}
		if v == "" {
			return "", ErrNotFound
		}
		return v, nil
	}

	it, err := m.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		m.log.Debug("secret not found", zap.String("service", m.service), zap.String("key", key))
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

// RemoveSecret deletes key. Removing a missing key is not an error.
// This method is thread-safe.
func (m *Manager) RemoveSecret(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Delete(key)
	}
	err := m.ring.Remove(key)
	if err == nil || errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	// The file backend reports a missing item as a plain fs error.
	if _, getErr := m.ring.Get(key); errors.Is(getErr, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}

// SaveDBDSN stores the database DSN.
func (m *Manager) SaveDBDSN(dsn string) error {
	return m.SetSecret(KeyDBDSN, dsn)
}

// LoadDBDSN retrieves the database DSN.
func (m *Manager) LoadDBDSN() (string, error) {
	return m.Secret(KeyDBDSN)
}

// ClearDB removes DB-related secrets.
func (m *Manager) ClearDB() error {
	return m.RemoveSecret(KeyDBDSN)
}
