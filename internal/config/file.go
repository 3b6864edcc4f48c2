package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quocvuong92/grok-cli/internal/constants"
)

// ConfigFileName is the name of the config file
const ConfigFileName = "config.yaml"

// ProjectDir is the per-project configuration directory
const ProjectDir = ".grok"

// FileConfig represents the configuration file structure
type FileConfig struct {
	APIKey       string   `yaml:"api_key,omitempty"`
	BaseURL      string   `yaml:"base_url,omitempty"`
	Model        string   `yaml:"model,omitempty"`
	Models       []string `yaml:"models,omitempty"`
	SystemPrompt string   `yaml:"system_prompt,omitempty"`

	Temperature       float64 `yaml:"temperature,omitempty"`
	MaxTokens         int     `yaml:"max_tokens,omitempty"`
	TimeoutSeconds    int     `yaml:"timeout_seconds,omitempty"`
	MaxRetries        int     `yaml:"max_retries,omitempty"`
	RequestsPerMinute int     `yaml:"requests_per_minute,omitempty"`

	LogLevel  string `yaml:"log_level,omitempty"`
	LogFormat string `yaml:"log_format,omitempty"`
	LogFile   string `yaml:"log_file,omitempty"`

	// Default flags
	Defaults *DefaultsConfig `yaml:"defaults,omitempty"`
}

// DefaultsConfig holds default flag values
type DefaultsConfig struct {
	Stream bool `yaml:"stream,omitempty"`
	Render bool `yaml:"render,omitempty"`
	Usage  bool `yaml:"usage,omitempty"`
}

// GetConfigPaths returns the paths to check for config files (in order of priority)
func GetConfigPaths() []string {
	var paths []string

	// 1. Current directory
	paths = append(paths, filepath.Join(".", ProjectDir, ConfigFileName))

	// 2. User config directory
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, constants.AppName, ConfigFileName))
	}

	// 3. Home directory
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", constants.AppName, ConfigFileName))
	}

	return paths
}

// LoadConfigFile loads the first config file that exists and returns it with
// its path. With no file present it returns an empty config and no path.
func LoadConfigFile() (*FileConfig, string, error) {
	for _, path := range GetConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			fc, err := loadConfigFromPath(path)
			if err != nil {
				return nil, "", err
			}
			return fc, path, nil
		}
	}

	return &FileConfig{}, "", nil
}

// loadConfigFromPath loads config from a specific path
func loadConfigFromPath(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &cfg, nil
}

// ApplyFileConfig applies file configuration to the main Config
// File config has lower priority than environment variables and CLI flags
func (c *Config) ApplyFileConfig(fc *FileConfig) {
	if fc == nil {
		return
	}

	if c.APIKey == "" && fc.APIKey != "" {
		c.APIKey = fc.APIKey
		c.APIKeySource = SourceFile
	}
	if c.BaseURL == "" {
		c.BaseURL = fc.BaseURL
	}
	if c.Model == "" {
		c.Model = fc.Model
	}
	if len(c.AvailableModels) == 0 && len(fc.Models) > 0 {
		c.AvailableModels = fc.Models
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = fc.SystemPrompt
	}

	if c.Temperature == 0 {
		c.Temperature = fc.Temperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = fc.MaxTokens
	}
	if c.Timeout == 0 && fc.TimeoutSeconds > 0 {
		c.Timeout = time.Duration(fc.TimeoutSeconds) * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = fc.MaxRetries
	}
	if c.RequestsPerMinute == 0 {
		c.RequestsPerMinute = fc.RequestsPerMinute
	}

	if c.LogLevel == "" {
		c.LogLevel = fc.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = fc.LogFormat
	}
	if c.LogFile == "" {
		c.LogFile = fc.LogFile
	}

	// A flag left at false cannot be told apart from one not given, so the
	// file can only switch defaults on.
	if fc.Defaults != nil {
		c.Stream = c.Stream || fc.Defaults.Stream
		c.Render = c.Render || fc.Defaults.Render
		c.Usage = c.Usage || fc.Defaults.Usage
	}
}

// expandHome replaces a leading "~/" with the user's home directory
func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, rest)
}

// DefaultConfigPath returns where `grok config init` writes the config file
func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine config directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, constants.AppName, ConfigFileName), nil
}

const defaultConfigTemplate = `# Grok CLI Configuration
# Location: ~/.config/grok-cli/config.yaml

# xAI API key (GROK_API_KEY or X_API_KEY take precedence)
# api_key: xai-...

# API endpoint
# base_url: https://api.x.ai

# Default model and the models accepted by /model
# model: grok-3
# models:
#   - grok-3
#   - grok-3-mini
#   - grok-2-latest

# System prompt sent with every conversation
# system_prompt: You are Grok, a helpful AI assistant.

# Request parameters
# temperature: 0.7
# max_tokens: 4096
# timeout_seconds: 120
# max_retries: 3
# requests_per_minute: 0   # 0 = unlimited

# Diagnostics (written only with --verbose or when log_file is set)
# log_level: info          # debug, info, warn, error, none
# log_format: text         # text or json
# log_file: ~/.local/share/grok-cli/grok.log

# Default flags
# defaults:
#   stream: true
#   render: false
#   usage: false
`

// CreateDefaultConfigFile creates a default config file at the user config directory
func CreateDefaultConfigFile() (string, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0600); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}
