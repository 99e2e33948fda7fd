// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package tokenstore

import (
	"errors"

	"querymind/cli/internal/keychain"
)

// KeychainBackend stores the token through a keychain.Manager (OS store or encrypted file).
type KeychainBackend struct {
	m    *keychain.Manager
	name string
}

// NewKeychainBackend wraps m. name is reported by Name ("keychain" or "file").
func NewKeychainBackend(m *keychain.Manager, name string) *KeychainBackend {
	return &KeychainBackend{m: m, name: name}
}

func (k *KeychainBackend) Name() string { return k.name }

func (k *KeychainBackend) Get(key string) (string, error) {
	v, err := k.m.Secret(key)
	if errors.Is(err, keychain.ErrNotFound) {
		return "", ErrNotFound
	}
	return v, err
}

func (k *KeychainBackend) Set(key, value string) error {
	return k.m.SetSecret(key, value)
}

func (k *KeychainBackend) Remove(key string) error {
	return k.m.RemoveSecret(key)
}
