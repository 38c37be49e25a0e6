// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Restriction-code message lookup

package config

import (
	"fmt"
	"os"
	"strconv"
)

// Settings holds all application configuration.
type Settings struct {
	AppName string
	Chat    ChatConfig
	Storage StorageConfig
}

// ChatConfig holds chat run configuration.
type ChatConfig struct {
	// MaxTurns bounds the tool-use loop per run.
	MaxTurns int
	// MaxRetries bounds the empty-response retry loop per run.
	MaxRetries int
	// TokenBudget caps the estimated prompt size before dispatch.
	TokenBudget int
	// StreamToken prefixes object-enveloped stream lines.
	StreamToken string
	// ObjectEnvelope selects the tagged-object envelope over the
	// bare-string one.
	ObjectEnvelope bool
	// TagCapacity bounds each user's persona tag list.
	TagCapacity int
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DatabasePath    string
	ModelConfigPath string
	MCPConfigPath   string
}

// RestrictionMessages maps plan-limit codes to human-readable text.
var RestrictionMessages = map[string]string{
	"MODEL_REQUEST_LIMIT_REACHED":   "You've reached your usage limit for this model",
	"FEATURE_REQUEST_LIMIT_REACHED": "You've reached the usage limit for this feature",
}

// DefaultRestrictionMessage is returned for unknown restriction codes.
const DefaultRestrictionMessage = "Usage limit reached"

// RestrictionMessage resolves a restriction code to display text.
func RestrictionMessage(code string) string {
	if msg, ok := RestrictionMessages[code]; ok {
		return msg
	}
	return DefaultRestrictionMessage
}

// New creates settings, loading values from environment variables.
// Returns an error if any variable contains an invalid value.
func New() (Settings, error) {
	maxTurns, err := getEnvInt("CHAT_MAX_TURNS", 3)
	if err != nil {
		return Settings{}, err
	}
	maxRetries, err := getEnvInt("CHAT_MAX_RETRIES", 3)
	if err != nil {
		return Settings{}, err
	}
	tokenBudget, err := getEnvInt("CHAT_TOKEN_BUDGET", 100000)
	if err != nil {
		return Settings{}, err
	}
	tagCapacity, err := getEnvInt("PERSONA_TAG_CAPACITY", 20)
	if err != nil {
		return Settings{}, err
	}
	objectEnvelope, err := getEnvBool("CHAT_OBJECT_ENVELOPE", false)
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		AppName: getEnvString("APP_NAME", "Catalyst"),
		Chat: ChatConfig{
			MaxTurns:       maxTurns,
			MaxRetries:     maxRetries,
			TokenBudget:    tokenBudget,
			StreamToken:    getEnvString("STREAM_TOKEN", "__stream__"),
			ObjectEnvelope: objectEnvelope,
			TagCapacity:    tagCapacity,
		},
		Storage: StorageConfig{
			DatabasePath:    getEnvString("DATABASE_PATH", "catalyst.db"),
			ModelConfigPath: getEnvString("MODEL_CONFIG_PATH", "models.json"),
			MCPConfigPath:   getEnvString("MCP_CONFIG_PATH", ""),
		},
	}, nil
}

// MustNew creates settings, panicking on invalid environment values.
// Use this only when configuration errors should be fatal.
func MustNew() Settings {
	settings, err := New()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// Environment variable helpers with proper error handling

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return b, nil
}
