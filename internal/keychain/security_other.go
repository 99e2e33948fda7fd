// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build !darwin

package keychain

import (
	"errors"

	"go.uber.org/zap"
)

var errNoSecurityCLI = errors.New("the security CLI backend is only available on macOS")

// securityBackend is never constructed off macOS; NewManager falls through to keyring.
type securityBackend struct{}

func newSecurityBackend(string, *zap.Logger) (*securityBackend, error) { return nil, errNoSecurityCLI }

func (*securityBackend) Set(string, string) error   { return errNoSecurityCLI }
func (*securityBackend) Get(string) (string, error) { return "", errNoSecurityCLI }
func (*securityBackend) Delete(string) error        { return errNoSecurityCLI }
