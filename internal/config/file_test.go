package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestGetConfigPaths(t *testing.T) {
	home := runInTempDir(t)

	paths := GetConfigPaths()
	if len(paths) != 3 {
		t.Fatalf("GetConfigPaths() returned %d paths, want 3", len(paths))
	}

	want := []string{
		filepath.Join(".", ".grok", "config.yaml"),
		filepath.Join(home, ".config", "grok-cli", "config.yaml"),
		filepath.Join(home, ".config", "grok-cli", "config.yaml"),
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("GetConfigPaths()[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestLoadConfigFile_NoFile(t *testing.T) {
	runInTempDir(t)

	fc, path, err := LoadConfigFile()
	if err != nil {
		t.Fatalf("LoadConfigFile() unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("LoadConfigFile() path = %q, want empty", path)
	}
	if fc == nil || fc.Model != "" {
		t.Errorf("LoadConfigFile() = %+v, want empty config", fc)
	}
}

func TestLoadConfigFile_ProjectBeforeUser(t *testing.T) {
	home := runInTempDir(t)
	writeFile(t, filepath.Join(home, ".config", "grok-cli", "config.yaml"), "model: grok-2\n")
	writeFile(t, filepath.Join(ProjectDir, ConfigFileName), "model: grok-3-mini\n")

	fc, path, err := LoadConfigFile()
	if err != nil {
		t.Fatalf("LoadConfigFile() unexpected error: %v", err)
	}
	if fc.Model != "grok-3-mini" {
		t.Errorf("Model = %q, want project file value", fc.Model)
	}
	if !strings.HasSuffix(path, filepath.Join(".grok", "config.yaml")) {
		t.Errorf("path = %q, want project config path", path)
	}
}

func TestLoadConfigFromPath_AllFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
api_key: xai-file
base_url: https://api.x.ai
model: grok-3
models:
  - grok-3
  - grok-3-mini
system_prompt: Answer in haiku.
temperature: 1.1
max_tokens: 1000
timeout_seconds: 60
max_retries: 5
requests_per_minute: 20
log_level: debug
log_format: json
log_file: /tmp/grok.log
defaults:
  stream: true
  render: true
  usage: true
`)

	fc, err := loadConfigFromPath(path)
	if err != nil {
		t.Fatalf("loadConfigFromPath() unexpected error: %v", err)
	}

	if fc.APIKey != "xai-file" || fc.Model != "grok-3" || len(fc.Models) != 2 {
		t.Errorf("credentials/model fields = %+v", fc)
	}
	if fc.SystemPrompt != "Answer in haiku." {
		t.Errorf("SystemPrompt = %q", fc.SystemPrompt)
	}
	if fc.Temperature != 1.1 || fc.MaxTokens != 1000 || fc.TimeoutSeconds != 60 {
		t.Errorf("request fields = %+v", fc)
	}
	if fc.MaxRetries != 5 || fc.RequestsPerMinute != 20 {
		t.Errorf("retry fields = %+v", fc)
	}
	if fc.LogLevel != "debug" || fc.LogFormat != "json" || fc.LogFile != "/tmp/grok.log" {
		t.Errorf("log fields = %+v", fc)
	}
	if fc.Defaults == nil || !fc.Defaults.Stream || !fc.Defaults.Render || !fc.Defaults.Usage {
		t.Errorf("Defaults = %+v, want all true", fc.Defaults)
	}
}

func TestLoadConfigFromPath_Missing(t *testing.T) {
	if _, err := loadConfigFromPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("loadConfigFromPath() on a missing file should return error")
	}
}

func TestApplyFileConfig(t *testing.T) {
	tests := []struct {
		name  string
		cfg   *Config
		fc    *FileConfig
		check func(t *testing.T, c *Config)
	}{
		{
			name: "nil file config",
			cfg:  &Config{Model: "grok-3"},
			fc:   nil,
			check: func(t *testing.T, c *Config) {
				if c.Model != "grok-3" {
					t.Errorf("Model = %q, want unchanged", c.Model)
				}
			},
		},
		{
			name: "fills unset fields",
			cfg:  &Config{},
			fc:   &FileConfig{Model: "grok-2", SystemPrompt: "short", LogFile: "a.log"},
			check: func(t *testing.T, c *Config) {
				if c.Model != "grok-2" || c.SystemPrompt != "short" || c.LogFile != "a.log" {
					t.Errorf("Config = %+v, want file values", c)
				}
			},
		},
		{
			name: "keeps set fields",
			cfg:  &Config{Model: "grok-beta", APIKey: "xai-env", APIKeySource: SourceEnv},
			fc:   &FileConfig{Model: "grok-2", APIKey: "xai-file"},
			check: func(t *testing.T, c *Config) {
				if c.Model != "grok-beta" {
					t.Errorf("Model = %q, want grok-beta", c.Model)
				}
				if c.APIKey != "xai-env" || c.APIKeySource != SourceEnv {
					t.Errorf("APIKey = %q (%s), want env key", c.APIKey, c.APIKeySource)
				}
			},
		},
		{
			name: "defaults switch flags on",
			cfg:  &Config{Render: true},
			fc:   &FileConfig{Defaults: &DefaultsConfig{Stream: true}},
			check: func(t *testing.T, c *Config) {
				if !c.Stream || !c.Render || c.Usage {
					t.Errorf("flags = stream:%v render:%v usage:%v", c.Stream, c.Render, c.Usage)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ApplyFileConfig(tt.fc)
			tt.check(t, tt.cfg)
		})
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	home := runInTempDir(t)

	path, err := CreateDefaultConfigFile()
	if err != nil {
		t.Fatalf("CreateDefaultConfigFile() unexpected error: %v", err)
	}

	want := filepath.Join(home, ".config", "grok-cli", "config.yaml")
	if path != want {
		t.Errorf("CreateDefaultConfigFile() path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() unexpected error: %v", err)
	}

	// The template is all comments, so it must parse to an empty config.
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		t.Errorf("default config does not parse: %v", err)
	}
	if fc.Model != "" || fc.APIKey != "" {
		t.Errorf("default config sets values: %+v", fc)
	}

	if _, err := CreateDefaultConfigFile(); err == nil {
		t.Error("CreateDefaultConfigFile() twice should report the existing file")
	}
}

func TestExpandHome(t *testing.T) {
	home := runInTempDir(t)

	if got := expandHome("~/logs/grok.log"); got != filepath.Join(home, "logs", "grok.log") {
		t.Errorf("expandHome() = %q, want path under home", got)
	}
	if got := expandHome("/var/log/grok.log"); got != "/var/log/grok.log" {
		t.Errorf("expandHome() = %q, want absolute path unchanged", got)
	}
	if got := expandHome(""); got != "" {
		t.Errorf("expandHome(\"\") = %q, want empty", got)
	}
}
