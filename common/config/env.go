package config

import (
	"fmt"
	"os"
	"strings"
)

// EnvLoader reads bootstrap settings that are needed before viper runs,
// such as where the config file lives.
type EnvLoader struct {
	prefix string
}

func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{prefix: prefix}
}

// GetString retrieves a string value from environment variable
// Returns defaultValue if not found
func (e *EnvLoader) GetString(key, defaultValue string) string {
	envKey := e.buildKey(key)
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return defaultValue
}

// GetBool accepts true/1/yes/on and false/0/no/off. Anything else yields
// defaultValue.
func (e *EnvLoader) GetBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(e.buildKey(key)))

	switch value {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// buildKey constructs the full environment variable key with prefix
// Example: prefix="ESCROW", key="CONFIG_PATH" -> "ESCROW_CONFIG_PATH"
func (e *EnvLoader) buildKey(key string) string {
	if e.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s_%s", e.prefix, key)
}
