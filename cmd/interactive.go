package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/quocvuong92/grok-cli/internal/api"
	"github.com/quocvuong92/grok-cli/internal/constants"
	"github.com/quocvuong92/grok-cli/internal/display"
	"github.com/quocvuong92/grok-cli/internal/history"
	"github.com/quocvuong92/grok-cli/internal/lineedit"
	"github.com/quocvuong92/grok-cli/internal/logging"
	"github.com/quocvuong92/grok-cli/internal/terminal"
)

// lineReader reads one committed line per prompt.
type lineReader interface {
	EditLine(prompt string, suggestions []lineedit.Suggestion) (string, error)
	// Interactive reports whether an empty line means the user cancelled.
	Interactive() bool
}

// InteractiveSession holds the state for an interactive chat session.
// messages[0] is always the system prompt.
type InteractiveSession struct {
	app            *App
	client         api.AIClient
	editor         lineReader
	messages       []api.Message
	history        history.HistoryManager
	sessions       history.SessionManager
	conversationID string
	exitFlag       bool
	log            *logging.Logger
}

// NewChatCmd creates the chat command, an alias for `grok -i`
func NewChatCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Type a message and press Enter to send it. Lines starting with "/" are
commands; matching commands are listed below the input box as you type.
Use Up/Down to pick one, Tab to complete it and Esc to close the list.
Press Ctrl+C on an empty prompt or type /quit to leave.

Examples:
  grok chat
  grok chat -m grok-3-mini -s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(); err != nil {
				display.ShowError(err.Error())
				return err
			}
			return app.runInteractive()
		},
	}
}

// defaultEditor returns the boxed line editor on the process terminal
func (app *App) defaultEditor() lineReader {
	opts := []lineedit.Option{lineedit.WithLogger(logging.Named("lineedit"))}
	if app.cfg.NoColor {
		opts = append(opts, lineedit.WithProfile(termenv.Ascii))
	}
	return lineedit.New(terminal.Stdio(), opts...)
}

// runInteractive starts the interactive chat mode and reads lines until the
// user quits. Editor I/O errors end the session and are returned.
func (app *App) runInteractive() error {
	client, err := app.client()
	if err != nil {
		display.ShowError(err.Error())
		return err
	}
	defer client.Close()

	session := app.newSession(client)
	session.showWelcome()
	return session.run()
}

func (app *App) newSession(client api.AIClient) *InteractiveSession {
	hist := history.NewHistory()
	if err := hist.Load(); err != nil {
		display.ShowWarning(fmt.Sprintf("Could not load history: %v", err))
	}

	s := &InteractiveSession{
		app:            app,
		client:         client,
		editor:         app.newEditor(),
		history:        hist,
		conversationID: history.NewConversationID(),
		log:            logging.Named("session"),
	}
	s.resetMessages()

	if store, err := history.NewSessionStore(); err != nil {
		display.ShowWarning(fmt.Sprintf("Named sessions unavailable: %v", err))
	} else {
		s.sessions = store
	}
	return s
}

func (s *InteractiveSession) showWelcome() {
	display.ShowTitle("Grok CLI - Interactive Mode")
	_, _ = fmt.Fprintf(s.app.out, "Model: %s\n", s.app.cfg.Model)
	display.ShowMuted("Type /help for commands. Commands complete as you type; Ctrl+C quits.")
	_, _ = fmt.Fprintln(s.app.out)
}

// run is the read-eval loop. History is saved on every exit path.
func (s *InteractiveSession) run() error {
	defer s.saveHistory()

	for !s.exitFlag {
		line, err := s.editor.EditLine(s.prompt(), s.suggestions())
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.goodbye()
				return nil
			}
			display.ShowError(err.Error())
			return err
		}

		if line == "" && s.editor.Interactive() {
			s.goodbye()
			return nil
		}
		s.execute(line)
	}
	return nil
}

func (s *InteractiveSession) goodbye() {
	_, _ = fmt.Fprintln(s.app.out, "Goodbye!")
	s.exitFlag = true
}

// execute handles one committed line: a slash command or a chat message.
func (s *InteractiveSession) execute(input string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return
	}

	if strings.HasPrefix(input, lineedit.CommandPrefix) {
		if s.handleCommand(input) {
			s.exitFlag = true
		}
		return
	}

	s.chat(input)
}

// chat sends input with the recent conversation and records the reply.
// A failed request leaves the conversation as it was.
func (s *InteractiveSession) chat(input string) {
	s.messages = append(s.messages, api.Message{Role: api.RoleUser, Content: input})

	// Ctrl+C while waiting aborts the request, not the session.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, _ = fmt.Fprintln(s.app.out)
	reply, err := s.app.sendMessage(ctx, s.client, s.requestMessages())
	if err != nil {
		s.messages = s.messages[:len(s.messages)-1]
		if errors.Is(err, context.Canceled) {
			display.ShowWarning("Request cancelled")
			return
		}
		display.ShowError(err.Error())
		return
	}

	s.messages = append(s.messages, api.Message{Role: api.RoleAssistant, Content: reply})
	_, _ = fmt.Fprintln(s.app.out)
	s.log.Debug("exchange complete", logging.Fields{
		"conversation": s.conversationID,
		"messages":     len(s.messages),
	})
}

// requestMessages returns the system prompt followed by the most recent
// conversation messages.
func (s *InteractiveSession) requestMessages() []api.Message {
	convo := s.messages[1:]
	if len(convo) > constants.ContextMessages {
		convo = convo[len(convo)-constants.ContextMessages:]
	}

	out := make([]api.Message, 0, len(convo)+1)
	out = append(out, s.messages[0])
	return append(out, convo...)
}

// resetMessages starts an empty conversation with the configured system prompt
func (s *InteractiveSession) resetMessages() {
	s.messages = []api.Message{{Role: api.RoleSystem, Content: s.app.cfg.SystemPrompt}}
}

// messageCount returns the number of messages after the system prompt
func (s *InteractiveSession) messageCount() int {
	return len(s.messages) - 1
}

// saveHistory persists the current conversation. Conversations without any
// message beyond the system prompt are not recorded.
func (s *InteractiveSession) saveHistory() {
	if s.history == nil || s.messageCount() == 0 {
		return
	}

	s.history.AddConversation(s.conversationID, s.app.cfg.Model, s.messages)
	if err := s.history.Save(); err != nil {
		display.ShowWarning(fmt.Sprintf("Could not save history: %v", err))
	}
}

// prompt returns the input box prompt, e.g. "Grok (grok-3) [src | 2 messages] > "
func (s *InteractiveSession) prompt() string {
	dir := "?"
	if wd, err := os.Getwd(); err == nil {
		dir = filepath.Base(wd)
	}

	count := "new"
	switch n := s.messageCount(); n {
	case 0:
	case 1:
		count = "1 message"
	default:
		count = fmt.Sprintf("%d messages", n)
	}

	return display.PromptStyle(fmt.Sprintf("Grok (%s)", s.app.cfg.Model)) +
		fmt.Sprintf(" [%s | %s] > ", dir, count)
}

// suggestions returns the slash commands offered in the popup. Commands
// taking a model or session name also get one entry per known argument.
func (s *InteractiveSession) suggestions() []lineedit.Suggestion {
	cfg := s.app.cfg
	out := make([]lineedit.Suggestion, 0, len(slashCommands)+len(cfg.AvailableModels))

	for _, c := range slashCommands {
		desc := c.Description
		if c.Name == "/model" {
			desc = fmt.Sprintf("%s (current: %s)", desc, cfg.Model)
		}
		out = append(out, lineedit.Suggestion{Text: c.Name, Description: desc})
	}

	for _, m := range cfg.AvailableModels {
		if m == cfg.Model {
			continue
		}
		out = append(out, lineedit.Suggestion{Text: "/model " + m, Description: "Switch to " + m})
	}

	if s.sessions != nil {
		names, err := s.sessions.List()
		if err != nil {
			s.log.Debug("listing sessions failed", logging.Fields{"error": err.Error()})
		}
		for _, name := range names {
			out = append(out, lineedit.Suggestion{Text: "/load " + name, Description: "Load saved session"})
		}
	}
	return out
}
