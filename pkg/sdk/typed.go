package sdk

import (
	"encoding/json"
	"fmt"

	"github.com/celerix-dev/celerix-gestao/internal/vault"
	"github.com/celerix-dev/celerix-gestao/pkg/engine"
)

// Get retrieves a type-safe value, decoding the stored JSON into T.
func Get[T any](s engine.AreaScope, key string) (T, error) {
	var target T
	raw, err := s.GetItem(key)
	if err != nil {
		return target, err
	}
	if err := json.Unmarshal([]byte(raw), &target); err != nil {
		return target, fmt.Errorf("decode %s/%s: %w", s.Name(), key, err)
	}
	return target, nil
}

// Set encodes val as JSON and stores it under key.
func Set[T any](s engine.AreaScope, key string, val T) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", s.Name(), key, err)
	}
	return s.SetItem(key, string(raw))
}

// VaultScope encrypts values on the client before they reach the store.
type VaultScope struct {
	scope     engine.AreaScope
	masterKey []byte
}

// Vault returns a scope that automatically encrypts/decrypts data.
func Vault(scope engine.AreaScope, masterKey []byte) *VaultScope {
	return &VaultScope{scope: scope, masterKey: masterKey}
}

// Set encrypts the plaintext and stores the hex ciphertext as a JSON string.
func (v *VaultScope) Set(key, plaintext string) error {
	ciphertext, err := vault.Encrypt([]byte(plaintext), v.masterKey)
	if err != nil {
		return err
	}
	return Set(v.scope, key, ciphertext)
}

// Get retrieves and decrypts a value.
func (v *VaultScope) Get(key string) (string, error) {
	ciphertext, err := Get[string](v.scope, key)
	if err != nil {
		return "", err
	}
	plain, err := vault.Decrypt(ciphertext, v.masterKey)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
