package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/grok-cli/internal/constants"
	"github.com/quocvuong92/grok-cli/internal/display"
	"github.com/quocvuong92/grok-cli/internal/logging"
)

// errUnhealthy is returned by `grok health` when any check fails
var errUnhealthy = errors.New("health check failed")

// NewHealthCmd creates the health command
func NewHealthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check configuration and API connectivity",
		Long: `Check that the configuration loads, an API key is available and the
Grok API answers.

Examples:
  grok health`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runHealth(cmd.Context())
		},
	}
}

type healthCheck struct {
	name   string
	ok     bool
	detail string
}

func (app *App) runHealth(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	checks := app.healthChecks(ctx)

	rows := make([]display.Row, 0, len(checks))
	healthy := true
	for _, c := range checks {
		mark := "✓"
		if !c.ok {
			mark = "✗"
			healthy = false
		}
		rows = append(rows, display.Row{Key: mark + " " + c.name, Value: c.detail})
	}
	display.ShowTable("Health check:", rows)

	if !healthy {
		return errUnhealthy
	}
	display.ShowSuccess("All checks passed.")
	return nil
}

// healthChecks runs the checks in order, skipping those whose prerequisite
// failed.
func (app *App) healthChecks(ctx context.Context) []healthCheck {
	if err := app.setup(); err != nil {
		return []healthCheck{{name: "Configuration", detail: err.Error()}}
	}

	source := app.cfg.ConfigFile
	if source == "" {
		source = "defaults (no config file)"
	}
	checks := []healthCheck{{name: "Configuration", ok: true, detail: source}}

	if app.cfg.APIKey == "" {
		return append(checks, healthCheck{name: "API key", detail: "not found"})
	}
	checks = append(checks, healthCheck{
		name:   "API key",
		ok:     true,
		detail: fmt.Sprintf("%s (from %s)", app.cfg.MaskedAPIKey(), app.cfg.APIKeySource),
	})

	return append(checks, app.checkAPI(ctx))
}

func (app *App) checkAPI(ctx context.Context) healthCheck {
	check := healthCheck{name: "API reachable"}

	client, err := app.newClient(app.cfg)
	if err != nil {
		check.detail = err.Error()
		return check
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, constants.DefaultHealthTimeout)
	defer cancel()

	start := time.Now()
	models, err := client.ListModels(ctx)
	elapsed := time.Since(start).Round(time.Millisecond)

	app.log.Debug("health probe", logging.Fields{
		"base_url": app.cfg.BaseURL,
		"elapsed":  elapsed.String(),
		"ok":       err == nil,
	})

	if err != nil {
		check.detail = fmt.Sprintf("%v (%s)", err, elapsed)
		return check
	}
	check.ok = true
	check.detail = fmt.Sprintf("%s, %d models (%s)", app.cfg.BaseURL, len(models), elapsed)
	return check
}
