package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/muesli/termenv"

	"github.com/quocvuong92/grok-cli/internal/api"
	"github.com/quocvuong92/grok-cli/internal/display"
	"github.com/quocvuong92/grok-cli/internal/history"
)

// slashCommand describes one interactive command for /help and completion
type slashCommand struct {
	Name        string
	Usage       string
	Description string
}

// slashCommands lists the commands in the order they are suggested.
// Aliases come last so the full names are offered first.
var slashCommands = []slashCommand{
	{"/help", "/help, /h", "Show available commands"},
	{"/model", "/model [name]", "Show or switch the model"},
	{"/system", "/system [prompt]", "Show or set the system prompt"},
	{"/clear", "/clear, /cls", "Clear the screen"},
	{"/reset", "/reset", "Start a new conversation"},
	{"/history", "/history", "Show this conversation"},
	{"/recent", "/recent", "Show recent conversations"},
	{"/resume", "/resume", "Resume the last saved conversation"},
	{"/save", "/save <name>", "Save this conversation as a named session"},
	{"/load", "/load <name>", "Load a named session"},
	{"/list", "/list", "List named sessions"},
	{"/status", "/status", "Show session status"},
	{"/config", "/config", "Show the effective configuration"},
	{"/version", "/version", "Show version information"},
	{"/quit", "/quit, /exit, /q", "Exit interactive mode"},
	{"/exit", "", "Exit (alias)"},
	{"/q", "", "Exit (alias)"},
	{"/h", "", "Help (alias)"},
	{"/cls", "", "Clear the screen (alias)"},
}

// recentLimit is how many conversations /recent lists
const recentLimit = 10

// historyPreview is how many characters of each message /history shows
const historyPreview = 100

// handleCommand processes a slash command.
// Returns true if the session should exit, false otherwise.
func (s *InteractiveSession) handleCommand(input string) bool {
	parts := strings.SplitN(input, " ", 2)
	cmd := strings.ToLower(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case "/quit", "/exit", "/q":
		s.goodbye()
		return true

	case "/help", "/h":
		s.showHelp()

	case "/clear", "/cls":
		termenv.NewOutput(s.app.out).ClearScreen()

	case "/model":
		s.handleModelCommand(arg)

	case "/system":
		s.handleSystemCommand(arg)

	case "/history":
		s.showConversation()

	case "/recent":
		s.showRecent()

	case "/resume":
		s.resumeConversation()

	case "/reset":
		s.saveHistory()
		s.resetMessages()
		s.conversationID = history.NewConversationID()
		display.ShowSuccess("Started a new conversation.")

	case "/save":
		s.handleSaveCommand(arg)

	case "/load":
		s.handleLoadCommand(arg)

	case "/list":
		s.listSessions()

	case "/status":
		s.showStatus()

	case "/config":
		s.app.showConfig()

	case "/version":
		_, _ = fmt.Fprintln(s.app.out, versionString())

	default:
		display.ShowWarning(fmt.Sprintf("Unknown command: %s", cmd))
		display.ShowMuted("Type /help for available commands")
	}

	return false
}

// showHelp displays the help message with all available commands.
func (s *InteractiveSession) showHelp() {
	rows := make([]display.Row, 0, len(slashCommands))
	for _, c := range slashCommands {
		if c.Usage == "" {
			continue
		}
		rows = append(rows, display.Row{Key: c.Usage, Value: c.Description})
	}

	_, _ = fmt.Fprintln(s.app.out)
	display.ShowTable("Commands:", rows)
	_, _ = fmt.Fprintln(s.app.out)
	display.ShowTable("Keys:", []display.Row{
		{Key: "Up/Down", Value: "Select a suggestion"},
		{Key: "Tab", Value: "Complete the selected suggestion"},
		{Key: "Esc", Value: "Close the suggestion list"},
		{Key: "Ctrl+C", Value: "Quit (or cancel a running request)"},
	})
	_, _ = fmt.Fprintln(s.app.out)
}

// handleModelCommand shows the current model or switches to arg.
func (s *InteractiveSession) handleModelCommand(arg string) {
	cfg := s.app.cfg
	if arg == "" {
		_, _ = fmt.Fprintf(s.app.out, "Current model: %s\n", cfg.Model)
		_, _ = fmt.Fprintf(s.app.out, "Available: %s\n", cfg.GetAvailableModelsString())
		return
	}

	if !cfg.ValidateModel(arg) {
		display.ShowError(fmt.Sprintf("Invalid model: %s", arg))
		_, _ = fmt.Fprintf(s.app.out, "Available: %s\n", cfg.GetAvailableModelsString())
		return
	}

	cfg.Model = arg
	display.ShowSuccess(fmt.Sprintf("Switched to model: %s", cfg.Model))
}

// handleSystemCommand shows the system prompt or replaces it. The new prompt
// applies to the current conversation immediately.
func (s *InteractiveSession) handleSystemCommand(arg string) {
	if arg == "" {
		_, _ = fmt.Fprintf(s.app.out, "System prompt: %s\n", s.messages[0].Content)
		return
	}

	s.app.cfg.SystemPrompt = arg
	s.messages[0].Content = arg
	display.ShowSuccess("System prompt updated.")
}

// showConversation prints the messages of the current conversation.
func (s *InteractiveSession) showConversation() {
	if s.messageCount() == 0 {
		_, _ = fmt.Fprintln(s.app.out, "No messages in this conversation yet.")
		return
	}

	_, _ = fmt.Fprintln(s.app.out)
	for i, m := range s.messages[1:] {
		_, _ = fmt.Fprintf(s.app.out, "  %d. [%s] %s\n", i+1, m.Role, preview(m.Content, historyPreview))
	}
	_, _ = fmt.Fprintln(s.app.out)
}

// showRecent lists saved conversations, newest first.
func (s *InteractiveSession) showRecent() {
	if s.history == nil {
		_, _ = fmt.Fprintln(s.app.out, "History not available.")
		return
	}

	conversations := s.history.GetRecentConversations(recentLimit)
	if len(conversations) == 0 {
		_, _ = fmt.Fprintln(s.app.out, "No conversation history.")
		return
	}

	_, _ = fmt.Fprintln(s.app.out, "\nRecent conversations:")
	for i, conv := range conversations {
		_, _ = fmt.Fprintf(s.app.out, "  %d. [%s] %s - %s (%d messages)\n",
			i+1,
			conv.UpdatedAt.Format("2006-01-02 15:04"),
			conv.Model,
			conv.Title,
			conv.MessageCount(),
		)
	}
	_, _ = fmt.Fprintln(s.app.out)
}

// resumeConversation replaces the conversation with the last saved one.
func (s *InteractiveSession) resumeConversation() {
	if s.history == nil {
		_, _ = fmt.Fprintln(s.app.out, "History not available.")
		return
	}

	last := s.history.GetLastConversation()
	if last == nil {
		_, _ = fmt.Fprintln(s.app.out, "No conversation to resume.")
		return
	}

	s.loadMessages(last.Messages)
	s.conversationID = last.ID
	display.ShowSuccess(fmt.Sprintf("Resumed conversation from %s (%d messages)",
		last.UpdatedAt.Format("2006-01-02 15:04"),
		last.MessageCount(),
	))
}

// loadMessages replaces the conversation, keeping a system prompt first.
func (s *InteractiveSession) loadMessages(messages []api.Message) {
	s.resetMessages()
	for _, m := range messages {
		if m.Role == api.RoleSystem {
			s.messages[0].Content = m.Content
			continue
		}
		s.messages = append(s.messages, m)
	}
}

func (s *InteractiveSession) handleSaveCommand(name string) {
	if s.sessions == nil {
		display.ShowError("Named sessions are not available.")
		return
	}
	if name == "" {
		_, _ = fmt.Fprintln(s.app.out, "Usage: /save <name>")
		return
	}

	path, err := s.sessions.Save(&history.Session{
		Name:           name,
		ConversationID: s.conversationID,
		Model:          s.app.cfg.Model,
		SystemPrompt:   s.messages[0].Content,
		Messages:       s.messages,
	})
	if err != nil {
		display.ShowError(err.Error())
		return
	}
	display.ShowSuccess(fmt.Sprintf("Session saved to %s", path))
}

func (s *InteractiveSession) handleLoadCommand(name string) {
	if s.sessions == nil {
		display.ShowError("Named sessions are not available.")
		return
	}
	if name == "" {
		_, _ = fmt.Fprintln(s.app.out, "Usage: /load <name>")
		return
	}

	session, err := s.sessions.Load(name)
	if err != nil {
		if errors.Is(err, history.ErrSessionNotFound) {
			display.ShowError(fmt.Sprintf("No session named %q. Use /list to see saved sessions.", name))
			return
		}
		display.ShowError(err.Error())
		return
	}

	s.saveHistory()
	s.loadMessages(session.Messages)
	if session.SystemPrompt != "" {
		s.messages[0].Content = session.SystemPrompt
	}
	s.conversationID = session.ConversationID
	if s.conversationID == "" {
		s.conversationID = history.NewConversationID()
	}
	if session.Model != "" && s.app.cfg.ValidateModel(session.Model) {
		s.app.cfg.Model = session.Model
	}

	display.ShowSuccess(fmt.Sprintf("Loaded session %q (%d messages)", session.Name, s.messageCount()))
}

func (s *InteractiveSession) listSessions() {
	if s.sessions == nil {
		display.ShowError("Named sessions are not available.")
		return
	}

	names, err := s.sessions.List()
	if err != nil {
		display.ShowError(err.Error())
		return
	}
	if len(names) == 0 {
		_, _ = fmt.Fprintln(s.app.out, "No saved sessions.")
		return
	}

	_, _ = fmt.Fprintln(s.app.out, "Saved sessions:")
	for _, name := range names {
		_, _ = fmt.Fprintf(s.app.out, "  %s\n", name)
	}
}

func (s *InteractiveSession) showStatus() {
	cfg := s.app.cfg
	display.ShowTable("Session status:", []display.Row{
		{Key: "Model", Value: cfg.Model},
		{Key: "Conversation", Value: s.conversationID},
		{Key: "Messages", Value: fmt.Sprintf("%d", s.messageCount())},
		{Key: "API endpoint", Value: cfg.BaseURL},
		{Key: "API key", Value: fmt.Sprintf("%s (%s)", cfg.MaskedAPIKey(), cfg.APIKeySource)},
		{Key: "Streaming", Value: onOff(cfg.Stream)},
		{Key: "Markdown", Value: onOff(cfg.Render)},
	})
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// preview flattens s to one line of at most n characters
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
