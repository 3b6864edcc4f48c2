package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/grok-cli/internal/auth"
	"github.com/quocvuong92/grok-cli/internal/config"
	"github.com/quocvuong92/grok-cli/internal/constants"
	"github.com/quocvuong92/grok-cli/internal/display"
	"github.com/quocvuong92/grok-cli/internal/logging"
	"github.com/quocvuong92/grok-cli/internal/terminal"
)

// NewLoginCmd creates the login command
func NewLoginCmd(app *App) *cobra.Command {
	var skipVerify bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an xAI API key",
		Long: `Store an xAI API key for future use.

The key is read without echo (or taken from --key), checked against the
models endpoint and written to ~/.local/share/grok-cli/api-key with
permissions 0600. Keys from GROK_API_KEY or the config file still take
precedence over the stored key.

Examples:
  grok login
  grok login --key xai-... --skip-verify`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runLogin(cmd.Context(), skipVerify)
		},
	}

	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Store the key without contacting the API")
	return cmd
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API key",
		Long: `Remove the stored xAI API key.

Keys set through the environment or the config file are not affected.

Examples:
  grok logout`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runLogout()
		},
	}
}

// NewStatusCmd creates the status command
func NewStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Long: `Show where the active API key comes from.

Examples:
  grok status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runStatus()
		},
	}
}

func (app *App) runLogin(ctx context.Context, skipVerify bool) error {
	// Only --key is set before the configuration is resolved.
	key := strings.TrimSpace(app.cfg.APIKey)

	if err := app.setup(); err != nil {
		display.ShowError(err.Error())
		return err
	}

	if key == "" {
		var err error
		key, err = terminal.ReadSecret("Enter your xAI API key: ")
		if err != nil {
			return err
		}
		key = strings.TrimSpace(key)
	}
	if key == "" {
		return fmt.Errorf("no API key entered")
	}

	if !skipVerify {
		if err := app.verifyKey(ctx, key); err != nil {
			display.ShowError(err.Error())
			return err
		}
	}

	if err := auth.SaveAPIKey(key); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}

	keyPath, _ := auth.GetKeyPath()
	app.log.Info("api key stored", logging.Fields{"path": keyPath, "verified": !skipVerify})
	display.ShowSuccess("API key saved.")
	_, _ = fmt.Fprintf(app.out, "Stored at: %s\n", keyPath)
	return nil
}

// verifyKey lists the models with key to make sure the API accepts it
func (app *App) verifyKey(ctx context.Context, key string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := *app.cfg
	cfg.APIKey = key
	client, err := app.newClient(&cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, constants.DefaultHealthTimeout)
	defer cancel()

	sp := display.NewSpinner("Verifying API key...")
	sp.Start()
	_, err = client.ListModels(ctx)
	sp.Stop()

	if err != nil {
		return fmt.Errorf("API key verification failed: %w", err)
	}
	return nil
}

func (app *App) runLogout() error {
	if !auth.IsLoggedIn() {
		_, _ = fmt.Fprintln(app.out, "No API key stored.")
		return nil
	}

	if err := auth.DeleteAPIKey(); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}

	display.ShowSuccess("Stored API key removed.")
	return nil
}

func (app *App) runStatus() error {
	if err := app.setup(); err != nil {
		display.ShowError(err.Error())
		return err
	}

	keyPath, _ := auth.GetKeyPath()
	stored := "not stored"
	if auth.IsLoggedIn() {
		stored = keyPath
	}

	rows := []display.Row{
		{Key: "Stored key", Value: stored},
	}
	if app.cfg.APIKey == "" {
		rows = append(rows, display.Row{Key: "Active key", Value: "none"})
	} else {
		rows = append(rows, display.Row{
			Key:   "Active key",
			Value: fmt.Sprintf("%s (from %s)", app.cfg.MaskedAPIKey(), app.cfg.APIKeySource),
		})
	}

	display.ShowTable("Authentication status:", rows)
	if app.cfg.APIKey == "" {
		display.ShowMuted(config.ErrAPIKeyNotFound.Error())
	}
	return nil
}
