package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/grok-cli/internal/config"
	"github.com/quocvuong92/grok-cli/internal/display"
)

// NewConfigCmd creates the config command and its subcommands
func NewConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
		Long: `Inspect or create the configuration file.

Settings are resolved in this order: command-line flags, environment
variables, the first config file found, the stored API key, defaults.

Examples:
  grok config show
  grok config init
  grok config path`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(); err != nil {
				display.ShowError(err.Error())
				return err
			}
			app.showConfig()
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfigFile()
			if err != nil {
				display.ShowError(err.Error())
				return err
			}
			display.ShowSuccess(fmt.Sprintf("Created %s", path))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "List the config file search paths",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.GetConfigPaths() {
				marker := " "
				if _, err := os.Stat(p); err == nil {
					marker = "*"
				}
				_, _ = fmt.Fprintf(app.out, "%s %s\n", marker, p)
			}
		},
	})

	return cmd
}

// showConfig prints the resolved configuration with the key masked
func (app *App) showConfig() {
	cfg := app.cfg

	source := cfg.ConfigFile
	if source == "" {
		source = "(none)"
	}
	keySource := cfg.APIKeySource
	if keySource == "" {
		keySource = "-"
	}
	logLevel := cfg.LogLevel
	if logLevel == "" {
		logLevel = "(default)"
	}
	rpm := "unlimited"
	if cfg.RequestsPerMinute > 0 {
		rpm = fmt.Sprintf("%d", cfg.RequestsPerMinute)
	}

	display.ShowTable("Configuration:", []display.Row{
		{Key: "config file", Value: source},
		{Key: "api_key", Value: fmt.Sprintf("%s (%s)", cfg.MaskedAPIKey(), keySource)},
		{Key: "base_url", Value: cfg.BaseURL},
		{Key: "model", Value: cfg.Model},
		{Key: "models", Value: strings.Join(cfg.AvailableModels, ", ")},
		{Key: "system_prompt", Value: preview(cfg.SystemPrompt, 60)},
		{Key: "temperature", Value: fmt.Sprintf("%g", cfg.Temperature)},
		{Key: "max_tokens", Value: fmt.Sprintf("%d", cfg.MaxTokens)},
		{Key: "timeout", Value: cfg.Timeout.String()},
		{Key: "max_retries", Value: fmt.Sprintf("%d", cfg.MaxRetries)},
		{Key: "requests_per_minute", Value: rpm},
		{Key: "log_level", Value: logLevel},
		{Key: "stream", Value: onOff(cfg.Stream)},
		{Key: "render", Value: onOff(cfg.Render)},
	})
}
