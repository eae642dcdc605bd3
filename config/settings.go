// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Vendor credential and model lookup

package config

import (
	"fmt"
	"os"
	"strconv"
)

// Well-known loopback addresses for the local inference servers.
const (
	DefaultOllamaURL   = "http://127.0.0.1:11434/v1"
	DefaultLMStudioURL = "http://127.0.0.1:1234/v1"
	DefaultLlamaCppURL = "http://127.0.0.1:8080/v1"
)

// Settings holds all application configuration.
type Settings struct {
	LLM       LLMConfig
	Endpoints EndpointConfig
	Chat      ChatConfig
}

// LLMConfig holds model request configuration shared by all backends.
type LLMConfig struct {
	MaxTokens   uint32
	Temperature float64
}

// EndpointConfig holds addresses and model overrides per candidate backend.
type EndpointConfig struct {
	OllamaURL   string
	LMStudioURL string
	LlamaCppURL string

	CustomURL   string // Empty means no custom endpoint is configured.
	CustomKey   string
	CustomModel string

	OpenAIModel    string
	AnthropicModel string
	GeminiModel    string
}

// ChatConfig holds conversation loop configuration.
type ChatConfig struct {
	// MaxModelTurns caps model turns per user input so a model that
	// keeps requesting tools cannot loop forever.
	MaxModelTurns int
}

// vendorInfo holds configuration for a cloud vendor backend.
type vendorInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// Supported vendors and their configuration.
var vendors = map[string]vendorInfo{
	"openai":    {"OPENAI_MODEL", "gpt-4o", "OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514", "ANTHROPIC_API_KEY"},
	"gemini":    {"GEMINI_MODEL", "gemini-2.5-flash", "GEMINI_API_KEY"},
}

// New creates settings, loading values from environment variables.
// Returns an error if environment variables contain invalid values.
func New() (Settings, error) {
	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 4096)
	if err != nil {
		return Settings{}, err
	}

	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0.7)
	if err != nil {
		return Settings{}, err
	}

	maxTurns, err := getEnvInt("CHAT_MAX_MODEL_TURNS", 5)
	if err != nil {
		return Settings{}, err
	}
	if maxTurns < 1 {
		return Settings{}, fmt.Errorf("CHAT_MAX_MODEL_TURNS must be at least 1, got %d", maxTurns)
	}

	return Settings{
		LLM: LLMConfig{
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
		Endpoints: EndpointConfig{
			OllamaURL:      getEnvString("OLLAMA_URL", DefaultOllamaURL),
			LMStudioURL:    getEnvString("LMSTUDIO_URL", DefaultLMStudioURL),
			LlamaCppURL:    getEnvString("LLAMACPP_URL", DefaultLlamaCppURL),
			CustomURL:      os.Getenv("CUSTOM_ENDPOINT_URL"),
			CustomKey:      os.Getenv("CUSTOM_ENDPOINT_KEY"),
			CustomModel:    getEnvString("CUSTOM_ENDPOINT_MODEL", "default"),
			OpenAIModel:    ModelFor("openai"),
			AnthropicModel: ModelFor("anthropic"),
			GeminiModel:    ModelFor("gemini"),
		},
		Chat: ChatConfig{
			MaxModelTurns: maxTurns,
		},
	}, nil
}

// APIKeyFor returns the API key for a vendor from environment variables,
// or the empty string when it is not configured.
func APIKeyFor(vendor string) string {
	info, ok := vendors[vendor]
	if !ok {
		return ""
	}
	return os.Getenv(info.apiKeyEnv)
}

// APIKeyEnvFor returns the environment variable name holding a vendor's
// API key. Used for operator-facing configuration hints.
func APIKeyEnvFor(vendor string) string {
	return vendors[vendor].apiKeyEnv
}

// ModelFor returns the model for a vendor, checking environment first.
func ModelFor(vendor string) string {
	info, ok := vendors[vendor]
	if !ok {
		return ""
	}
	if val := os.Getenv(info.modelEnv); val != "" {
		return val
	}
	return info.defaultModel
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

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}
