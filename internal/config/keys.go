package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no API key is configured.
var ErrNoAPIKey = errors.New("no Anthropic API key configured")

// keyPrefix is the prefix every Anthropic API key carries.
const keyPrefix = "sk-ant-"

// KeySource identifies where the effective API key came from.
type KeySource string

const (
	// KeySourceEnv means the key came from ANTHROPIC_API_KEY.
	KeySourceEnv KeySource = "environment"
	// KeySourceConfig means the key came from the config file.
	KeySourceConfig KeySource = "config"
	// KeySourceNone means no key is configured.
	KeySourceNone KeySource = "none"
)

// lookupAPIKey resolves the effective key and where it came from.
// The environment wins over the config file; config values may carry
// ${VAR} references, which are expanded here.
func lookupAPIKey(cfg *Config) (string, KeySource) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key, KeySourceEnv
	}
	if cfg != nil {
		key := os.ExpandEnv(cfg.Anthropic.APIKey)
		if key != "" && !strings.HasPrefix(key, "${") {
			return key, KeySourceConfig
		}
	}
	return "", KeySourceNone
}

// GetAPIKey returns the Anthropic API key from the environment or the
// configuration, in that order.
func GetAPIKey(cfg *Config) (string, error) {
	key, source := lookupAPIKey(cfg)
	if source == KeySourceNone {
		return "", ErrNoAPIKey
	}
	return key, nil
}

// GetAPIKeySource reports where GetAPIKey would find the key.
func GetAPIKeySource(cfg *Config) KeySource {
	_, source := lookupAPIKey(cfg)
	return source
}

// ValidateAPIKey checks the key's format. It does not verify the key
// against the API.
func ValidateAPIKey(key string) error {
	switch {
	case key == "":
		return ErrNoAPIKey
	case !strings.HasPrefix(key, keyPrefix):
		return fmt.Errorf("invalid API key format: expected %q prefix", keyPrefix)
	case len(key) < 20:
		return errors.New("invalid API key format: key too short")
	}
	return nil
}

// MaskAPIKey returns a display form of the key: the prefix, an
// ellipsis, and the last four characters.
func MaskAPIKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 15:
		return "****"
	}
	return key[:len(keyPrefix)] + "..." + key[len(key)-4:]
}
