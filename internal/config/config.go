package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/quocvuong92/grok-cli/internal/auth"
	"github.com/quocvuong92/grok-cli/internal/constants"
)

// Environment variable names
const (
	EnvAPIKey    = "GROK_API_KEY"
	EnvXAPIKey   = "X_API_KEY"
	EnvBaseURL   = "GROK_BASE_URL"
	EnvModel     = "GROK_MODEL"
	EnvModels    = "GROK_MODELS"
	EnvLogLevel  = "GROK_LOG_LEVEL"
	EnvNoColor   = "NO_COLOR"
	EnvRateLimit = "GROK_REQUESTS_PER_MINUTE"
)

// Defaults - re-exported from constants for convenience
const (
	DefaultModel         = constants.DefaultModel
	DefaultBaseURL       = constants.DefaultBaseURL
	DefaultSystemMessage = constants.DefaultSystemMessage
	DefaultTemperature   = constants.DefaultTemperature
	DefaultMaxTokens     = constants.DefaultMaxTokens
	DefaultMaxRetries    = constants.DefaultMaxRetries
	DefaultAPITimeout    = constants.DefaultAPITimeout
)

// DefaultGrokModels - re-exported from constants for convenience
var DefaultGrokModels = constants.DefaultGrokModels

// Where the API key was found
const (
	SourceFlag   = "flag"
	SourceEnv    = "environment"
	SourceFile   = "config file"
	SourceStored = "stored key"
)

// Errors
var (
	ErrAPIKeyNotFound     = errors.New("API key not found. Set GROK_API_KEY, add api_key to config.yaml, or run 'grok login'")
	ErrInvalidModel       = errors.New("invalid model specified")
	ErrInvalidTemperature = errors.New("temperature must be between 0 and 2")
	ErrInvalidMaxTokens   = errors.New("max_tokens must be positive")
)

// Config holds the application configuration
type Config struct {
	// Credentials
	APIKey       string
	APIKeySource string

	// Endpoint and model
	BaseURL         string
	Model           string
	AvailableModels []string

	// Request parameters. A zero Temperature or MaxTokens means "not set".
	SystemPrompt      string
	Temperature       float64
	MaxTokens         int
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerMinute int

	// Diagnostics
	LogLevel  string
	LogFormat string
	LogFile   string
	Verbose   bool

	// ConfigFile is the file the configuration was loaded from, if any
	ConfigFile string

	// Flags
	Stream      bool
	Render      bool
	Usage       bool
	Interactive bool
	NoColor     bool
}

// NewConfig creates a new Config with defaults
func NewConfig() *Config {
	return &Config{}
}

// Resolve fills every unset field from the environment, the config file,
// the stored key and finally the defaults, in that order. It does not
// require an API key.
func (c *Config) Resolve() error {
	c.applyEnv()

	fileConfig, path, err := LoadConfigFile()
	if err != nil {
		return err
	}
	c.ConfigFile = path
	c.ApplyFileConfig(fileConfig)

	if c.APIKey == "" {
		if key, err := auth.LoadAPIKey(); err == nil {
			c.APIKey = key
			c.APIKeySource = SourceStored
		}
	}

	c.applyDefaults()
	return c.check()
}

// Validate resolves the configuration and requires an API key
func (c *Config) Validate() error {
	if err := c.Resolve(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return ErrAPIKeyNotFound
	}
	return nil
}

func (c *Config) applyEnv() {
	if c.APIKey != "" && c.APIKeySource == "" {
		c.APIKeySource = SourceFlag
	}
	if c.APIKey == "" {
		for _, env := range []string{EnvAPIKey, EnvXAPIKey} {
			if key := strings.TrimSpace(os.Getenv(env)); key != "" {
				c.APIKey = key
				c.APIKeySource = SourceEnv
				break
			}
		}
	}

	if c.BaseURL == "" {
		c.BaseURL = os.Getenv(EnvBaseURL)
	}
	if c.Model == "" {
		c.Model = os.Getenv(EnvModel)
	}
	if models := splitList(os.Getenv(EnvModels)); len(models) > 0 {
		c.AvailableModels = models
	}
	if c.LogLevel == "" {
		c.LogLevel = os.Getenv(EnvLogLevel)
	}
	if c.RequestsPerMinute == 0 {
		if rpm, err := parsePositiveInt(os.Getenv(EnvRateLimit)); err == nil {
			c.RequestsPerMinute = rpm
		}
	}
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		c.NoColor = true
	}
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if len(c.AvailableModels) == 0 {
		c.AvailableModels = DefaultGrokModels
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemMessage
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultAPITimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	c.LogFile = expandHome(c.LogFile)
}

func (c *Config) check() error {
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v", ErrInvalidTemperature, c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxTokens, c.MaxTokens)
	}
	return nil
}

// APIURL joins path onto the configured base URL
func (c *Config) APIURL(path string) string {
	return c.BaseURL + "/" + strings.TrimPrefix(path, "/")
}

// MaskedAPIKey returns the API key with its middle hidden
func (c *Config) MaskedAPIKey() string {
	if c.APIKey == "" {
		return "(not set)"
	}
	return auth.MaskKey(c.APIKey)
}

// ValidateModel checks if the given model is in available models
func (c *Config) ValidateModel(model string) bool {
	if len(c.AvailableModels) == 0 {
		return true // No validation if models not configured
	}
	for _, m := range c.AvailableModels {
		if m == model {
			return true
		}
	}
	return false
}

// GetAvailableModelsString returns a formatted string of available models
func (c *Config) GetAvailableModelsString() string {
	if len(c.AvailableModels) == 0 {
		return "(not configured - set GROK_MODELS)"
	}
	return strings.Join(c.AvailableModels, ", ")
}

// splitList splits a comma-separated list, dropping blanks
func splitList(s string) []string {
	var result []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

func parsePositiveInt(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("not positive: %d", n)
	}
	return n, nil
}
