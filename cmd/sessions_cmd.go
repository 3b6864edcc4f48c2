package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/grok-cli/internal/display"
	"github.com/quocvuong92/grok-cli/internal/history"
)

// NewSessionsCmd creates the sessions command for managing named sessions
func NewSessionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage named chat sessions",
		Long: `Manage chat sessions saved with /save in interactive mode.

Sessions are stored as JSON files under ~/.grok/sessions.

Examples:
  grok sessions list
  grok sessions show work
  grok sessions delete work`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.newSessionStore()
			if err != nil {
				return err
			}
			names, err := store.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				_, _ = fmt.Fprintln(app.out, "No saved sessions.")
				return nil
			}
			for _, name := range names {
				_, _ = fmt.Fprintln(app.out, name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Print a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.newSessionStore()
			if err != nil {
				return err
			}
			session, err := store.Load(args[0])
			if err != nil {
				display.ShowError(err.Error())
				return err
			}

			display.ShowTable(fmt.Sprintf("Session %s:", session.Name), []display.Row{
				{Key: "Model", Value: session.Model},
				{Key: "Saved", Value: session.SavedAt.Format("2006-01-02 15:04")},
				{Key: "Messages", Value: fmt.Sprintf("%d", len(session.Messages))},
			})
			_, _ = fmt.Fprintln(app.out)
			for _, m := range session.Messages {
				_, _ = fmt.Fprintf(app.out, "[%s] %s\n\n", m.Role, m.Content)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.newSessionStore()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				display.ShowError(err.Error())
				return err
			}
			display.ShowSuccess(fmt.Sprintf("Deleted session %s", args[0]))
			return nil
		},
	})

	return cmd
}

func (app *App) newSessionStore() (history.SessionManager, error) {
	store, err := history.NewSessionStore()
	if err != nil {
		return nil, err
	}
	return store, nil
}
