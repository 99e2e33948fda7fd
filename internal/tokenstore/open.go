// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package tokenstore

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"querymind/cli/internal/config"
	"querymind/cli/internal/keychain"
	"querymind/cli/internal/xdg"
)

// OpenBackend builds the backend named by cfg.TokenBackend.
// cfg.InstanceID must already be assigned; it namespaces the stored token.
// log may be nil.
func OpenBackend(cfg config.Config, log *zap.Logger) (Backend, error) {
	switch cfg.TokenBackend {
	case config.BackendMemory:
		return NewMemoryBackend(), nil

	case config.BackendRedis:
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("token_backend redis requires redis.addr (or QUERYMIND_REDIS_ADDR)")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
		return NewRedisBackend(client, cfg.InstanceID), nil

	case config.BackendFile:
		dir, err := xdg.StateDir()
		if err != nil {
			return nil, err
		}
		opts := keychain.Options{
			Service:    keychain.ScopedService(cfg.InstanceID),
			File:       true,
			FileDir:    dir,
			Passphrase: filePassphrase(cfg),
			Logger:     log,
		}
		keychain.Configure(opts)
		m, err := keychain.GetManager()
		if err != nil {
			return nil, err
		}
		return NewKeychainBackend(m, config.BackendFile), nil

	case config.BackendKeychain, "":
		keychain.Configure(keychain.Options{Service: keychain.ScopedService(cfg.InstanceID), Logger: log})
		m, err := keychain.GetManager()
		if err != nil {
			return nil, err
		}
		return NewKeychainBackend(m, config.BackendKeychain), nil

	default:
		return nil, fmt.Errorf("unknown token_backend %q (want keychain, file, redis or memory)", cfg.TokenBackend)
	}
}

// filePassphrase returns QUERYMIND_KEYRING_PASSWORD, falling back to the instance id.
func filePassphrase(cfg config.Config) string {
	if p := os.Getenv("QUERYMIND_KEYRING_PASSWORD"); p != "" {
		return p
	}
	return cfg.InstanceID
}
