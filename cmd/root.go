package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/grok-cli/internal/api"
	"github.com/quocvuong92/grok-cli/internal/config"
	"github.com/quocvuong92/grok-cli/internal/constants"
	"github.com/quocvuong92/grok-cli/internal/display"
	"github.com/quocvuong92/grok-cli/internal/logging"
)

// App holds the application state
type App struct {
	cfg        *config.Config
	out        io.Writer
	errOut     io.Writer
	listModels bool
	ready      bool
	closeLog   func() error
	log        *logging.Logger

	// newClient builds the API client; tests replace it with a mock
	newClient func(*config.Config) (api.AIClient, error)
	// newEditor builds the interactive line editor; tests script it
	newEditor func() lineReader
}

// NewApp creates a new App instance with default configuration
func NewApp() *App {
	app := &App{
		cfg:       config.NewConfig(),
		out:       os.Stdout,
		errOut:    os.Stderr,
		log:       logging.Named("cmd"),
		newClient: api.NewClient,
	}
	app.newEditor = app.defaultEditor
	return app
}

// Execute runs the root command
func Execute() {
	app := NewApp()
	rootCmd := NewRootCmd(app)

	err := rootCmd.Execute()
	app.shutdown()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree around app
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "grok [query]",
		Short: "A command-line client for xAI Grok",
		Long: `Grok CLI is a command-line client for the xAI Grok models.

Ask a single question, or start an interactive session where slash commands
complete as you type.

Examples:
  grok "What is Kubernetes?"
  grok -m grok-3-mini "Explain Docker"
  grok -s "Write a haiku about Go"     # Stream the answer
  grok -i                              # Interactive mode
  grok -ir                             # Interactive with markdown rendering`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			display.SetOutput(app.out, app.errOut)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, args)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.cfg.Verbose, "verbose", "v", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().StringVarP(&app.cfg.Model, "model", "m", "", "Model name (e.g., grok-3, grok-3-mini)")
	rootCmd.PersistentFlags().StringVar(&app.cfg.APIKey, "key", "", "xAI API key (overrides environment and config)")
	rootCmd.PersistentFlags().StringVarP(&app.cfg.SystemPrompt, "system", "S", "", "System prompt")
	rootCmd.PersistentFlags().Float64Var(&app.cfg.Temperature, "temperature", 0, "Sampling temperature between 0 and 2 (default 0.7)")
	rootCmd.PersistentFlags().IntVar(&app.cfg.MaxTokens, "max-tokens", 0, "Maximum tokens in the response (default 4096)")
	rootCmd.PersistentFlags().BoolVarP(&app.cfg.Stream, "stream", "s", false, "Stream output in real-time")
	rootCmd.PersistentFlags().BoolVarP(&app.cfg.Render, "render", "r", false, "Render markdown with colors and formatting")
	rootCmd.PersistentFlags().BoolVarP(&app.cfg.Usage, "usage", "u", false, "Show token usage statistics")

	rootCmd.Flags().BoolVarP(&app.cfg.Interactive, "interactive", "i", false, "Interactive chat mode")
	rootCmd.Flags().BoolVar(&app.listModels, "list-models", false, "List available models")

	rootCmd.AddCommand(NewChatCmd(app))
	rootCmd.AddCommand(NewLoginCmd(app))
	rootCmd.AddCommand(NewLogoutCmd(app))
	rootCmd.AddCommand(NewStatusCmd(app))
	rootCmd.AddCommand(NewConfigCmd(app))
	rootCmd.AddCommand(NewSessionsCmd(app))
	rootCmd.AddCommand(NewHealthCmd(app))
	rootCmd.AddCommand(NewVersionCmd(app))

	return rootCmd
}

// setup resolves the configuration and configures logging. It runs once per
// process and does not require an API key.
func (app *App) setup() error {
	if app.ready {
		return nil
	}

	if err := app.cfg.Resolve(); err != nil {
		return err
	}

	closeLog, err := logging.Setup(logging.Config{
		Level:   app.cfg.LogLevel,
		Format:  app.cfg.LogFormat,
		File:    app.cfg.LogFile,
		Verbose: app.cfg.Verbose,
	})
	if err != nil {
		return err
	}
	app.closeLog = closeLog
	app.ready = true

	app.log.Debug("configuration resolved", logging.Fields{
		"model":       app.cfg.Model,
		"base_url":    app.cfg.BaseURL,
		"key_source":  app.cfg.APIKeySource,
		"config_file": app.cfg.ConfigFile,
	})
	return nil
}

func (app *App) shutdown() {
	if app.closeLog != nil {
		_ = app.closeLog()
		app.closeLog = nil
	}
}

// client validates the configuration and creates the API client
func (app *App) client() (api.AIClient, error) {
	if err := app.setup(); err != nil {
		return nil, err
	}
	if app.cfg.APIKey == "" {
		return nil, config.ErrAPIKeyNotFound
	}
	if app.cfg.Model != "" && !app.cfg.ValidateModel(app.cfg.Model) {
		return nil, fmt.Errorf("%w: %s (available: %s)", config.ErrInvalidModel, app.cfg.Model, app.cfg.GetAvailableModelsString())
	}

	if app.cfg.Render {
		if err := display.InitRenderer(); err != nil {
			app.log.Warn("markdown rendering disabled", logging.Fields{"error": err.Error()})
		}
	}

	return app.newClient(app.cfg)
}

func (app *App) run(cmd *cobra.Command, args []string) error {
	if err := app.setup(); err != nil {
		display.ShowError(err.Error())
		return err
	}

	if app.listModels {
		display.ShowModels(app.cfg.AvailableModels, app.cfg.Model)
		return nil
	}

	if app.cfg.Interactive {
		return app.runInteractive()
	}

	if len(args) == 0 {
		return cmd.Help()
	}

	return app.runQuery(args[0])
}

// runQuery sends a single question and prints the answer
func (app *App) runQuery(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		err := errors.New("query is empty")
		display.ShowError(err.Error())
		return err
	}

	client, err := app.client()
	if err != nil {
		display.ShowError(err.Error())
		return err
	}
	defer client.Close()

	app.log.Debug("one-shot query", logging.Fields{
		"model":  app.cfg.Model,
		"stream": app.cfg.Stream,
		"render": app.cfg.Render,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	messages := []api.Message{
		{Role: api.RoleSystem, Content: app.cfg.SystemPrompt},
		{Role: api.RoleUser, Content: query},
	}

	if _, err := app.sendMessage(ctx, client, messages); err != nil {
		display.ShowError(err.Error())
		return err
	}
	return nil
}

// sendMessage queries the API and prints the reply, streaming or rendering
// it as configured. It returns the reply text.
func (app *App) sendMessage(ctx context.Context, client api.AIClient, messages []api.Message) (string, error) {
	var resp *api.ChatResponse

	if app.cfg.Stream {
		var full strings.Builder
		firstChunk := true

		sp := display.NewSpinner("Thinking...")
		sp.Start()

		err := client.QueryStreamWithHistoryContext(ctx, messages,
			func(content string) {
				if firstChunk {
					firstChunk = false
					if app.cfg.Render {
						sp.UpdateMessage("Receiving...")
					} else {
						sp.Stop()
					}
				}
				full.WriteString(content)
				if !app.cfg.Render {
					_, _ = fmt.Fprint(app.out, content)
				}
			},
			func(r *api.ChatResponse) { resp = r },
		)
		sp.Stop()

		if err != nil {
			if !firstChunk && !app.cfg.Render {
				_, _ = fmt.Fprintln(app.out)
			}
			return "", err
		}

		if app.cfg.Render {
			display.ShowContentRendered(full.String())
		} else {
			_, _ = fmt.Fprintln(app.out)
		}
		app.showUsage(resp)
		return full.String(), nil
	}

	sp := display.NewSpinner("Thinking...")
	sp.Start()
	resp, err := client.QueryWithHistoryContext(ctx, messages)
	sp.Stop()

	if err != nil {
		return "", err
	}

	content := resp.GetContent()
	if app.cfg.Render {
		display.ShowContentRendered(content)
	} else {
		display.ShowContent(content)
	}
	app.showUsage(resp)
	return content, nil
}

func (app *App) showUsage(resp *api.ChatResponse) {
	if !app.cfg.Usage || resp == nil {
		return
	}
	display.ShowUsage(resp.GetUsageMap())
}

// NewVersionCmd creates the version command
func NewVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(app.out, versionString())
		},
	}
}

func versionString() string {
	return fmt.Sprintf("grok-cli %s (%s, %s/%s)", constants.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
