// Package auth stores the xAI API key used when no key is configured
// through flags, the environment or the config file.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quocvuong92/grok-cli/internal/constants"
)

// KeyFileName is the name of the stored key file
const KeyFileName = "api-key"

// ErrNotLoggedIn is returned when no key has been stored
var ErrNotLoggedIn = errors.New("not logged in, please run 'grok login' first")

// GetKeyPath returns the path where the API key is stored
func GetKeyPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".local", "share", constants.AppName, KeyFileName), nil
}

// SaveAPIKey writes key to disk, readable only by the current user
func SaveAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key is empty")
	}

	keyPath, err := GetKeyPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(keyPath), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(keyPath, []byte(key), 0600); err != nil {
		return fmt.Errorf("failed to write API key: %w", err)
	}

	return nil
}

// LoadAPIKey reads the stored API key
func LoadAPIKey() (string, error) {
	keyPath, err := GetKeyPath()
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(keyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotLoggedIn
		}
		return "", fmt.Errorf("failed to read API key: %w", err)
	}

	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("key file is empty, please run 'grok login' again")
	}

	return key, nil
}

// DeleteAPIKey removes the stored API key. Deleting a missing key is not an error.
func DeleteAPIKey() error {
	keyPath, err := GetKeyPath()
	if err != nil {
		return err
	}

	if err := os.Remove(keyPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete API key: %w", err)
	}

	return nil
}

// IsLoggedIn reports whether a non-empty key is stored
func IsLoggedIn() bool {
	key, err := LoadAPIKey()
	return err == nil && key != ""
}

// MaskKey hides all but the first and last four characters of key
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
