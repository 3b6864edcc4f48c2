package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"github.com/quocvuong92/grok-cli/internal/api"
	"github.com/quocvuong92/grok-cli/internal/config"
	"github.com/quocvuong92/grok-cli/internal/constants"
	"github.com/quocvuong92/grok-cli/internal/display"
	"github.com/quocvuong92/grok-cli/internal/history"
	"github.com/quocvuong92/grok-cli/internal/lineedit"
)

// MockAIClient implements api.AIClient for testing
type MockAIClient struct {
	responses     []api.ChatResponse
	responseIndex int
	calls         [][]api.Message
	streamChunks  []string
	models        []api.Model
	shouldError   error
}

func NewMockAIClient() *MockAIClient {
	return &MockAIClient{}
}

func (m *MockAIClient) SetResponse(content string) {
	m.responses = []api.ChatResponse{chatResponse(content)}
}

func (m *MockAIClient) AddResponse(content string) {
	m.responses = append(m.responses, chatResponse(content))
}

func (m *MockAIClient) SetStreamChunks(chunks []string) {
	m.streamChunks = chunks
}

func (m *MockAIClient) SetError(err error) {
	m.shouldError = err
}

func (m *MockAIClient) lastMessages() []api.Message {
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

func chatResponse(content string) api.ChatResponse {
	return api.ChatResponse{
		ID: "test-response",
		Choices: []api.Choice{{
			Message:      api.Message{Role: api.RoleAssistant, Content: content},
			FinishReason: "stop",
		}},
		Usage: api.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}
}

func (m *MockAIClient) getNextResponse() (*api.ChatResponse, error) {
	if m.shouldError != nil {
		return nil, m.shouldError
	}
	if m.responseIndex >= len(m.responses) {
		resp := chatResponse("")
		return &resp, nil
	}
	resp := m.responses[m.responseIndex]
	m.responseIndex++
	return &resp, nil
}

func (m *MockAIClient) QueryWithHistoryContext(ctx context.Context, messages []api.Message) (*api.ChatResponse, error) {
	m.calls = append(m.calls, append([]api.Message(nil), messages...))
	return m.getNextResponse()
}

func (m *MockAIClient) QueryStreamWithHistoryContext(ctx context.Context, messages []api.Message, onChunk func(string), onDone func(*api.ChatResponse)) error {
	m.calls = append(m.calls, append([]api.Message(nil), messages...))
	if m.shouldError != nil {
		return m.shouldError
	}
	for _, chunk := range m.streamChunks {
		onChunk(chunk)
	}
	resp, _ := m.getNextResponse()
	if onDone != nil {
		onDone(resp)
	}
	return nil
}

func (m *MockAIClient) ListModels(ctx context.Context) ([]api.Model, error) {
	if m.shouldError != nil {
		return nil, m.shouldError
	}
	return m.models, nil
}

func (m *MockAIClient) Close() {}

// Ensure MockAIClient implements api.AIClient
var _ api.AIClient = (*MockAIClient)(nil)

// scriptedEditor returns queued lines, then io.EOF
type scriptedEditor struct {
	lines       []string
	interactive bool
	err         error
	prompts     []string
	seen        [][]lineedit.Suggestion
}

func (e *scriptedEditor) EditLine(prompt string, suggestions []lineedit.Suggestion) (string, error) {
	e.prompts = append(e.prompts, prompt)
	e.seen = append(e.seen, suggestions)
	if len(e.lines) == 0 {
		if e.err != nil {
			return "", e.err
		}
		return "", io.EOF
	}
	line := e.lines[0]
	e.lines = e.lines[1:]
	return line, nil
}

func (e *scriptedEditor) Interactive() bool { return e.interactive }

// newTestApp returns an App isolated from the user's files, with output
// captured and the API client replaced by a mock.
func newTestApp(t *testing.T) (*App, *MockAIClient, *bytes.Buffer) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv(config.EnvAPIKey, "xai-test-key-123456")
	for _, env := range []string{config.EnvXAPIKey, config.EnvBaseURL, config.EnvModel, config.EnvModels, config.EnvLogLevel, config.EnvRateLimit} {
		t.Setenv(env, "")
	}
	t.Setenv(config.EnvNoColor, "1")

	var out bytes.Buffer
	display.SetOutput(&out, &out)
	t.Cleanup(func() { display.SetOutput(os.Stdout, os.Stderr) })

	mock := NewMockAIClient()
	app := NewApp()
	app.out = &out
	app.errOut = &out
	app.newClient = func(*config.Config) (api.AIClient, error) { return mock, nil }
	return app, mock, &out
}

func runScripted(t *testing.T, app *App, editor *scriptedEditor) error {
	t.Helper()
	app.newEditor = func() lineReader { return editor }
	if err := app.setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	return app.runInteractive()
}

func TestIntegration_ChatRoundTrip(t *testing.T) {
	app, mock, out := newTestApp(t)
	mock.AddResponse("Paris.")
	mock.AddResponse("About 2 million.")

	editor := &scriptedEditor{
		lines:       []string{"What is the capital of France?", "  ", "How many people live there?", ""},
		interactive: true,
	}
	if err := runScripted(t, app, editor); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(mock.calls) != 2 {
		t.Fatalf("Expected 2 API calls, got %d", len(mock.calls))
	}

	last := mock.lastMessages()
	if len(last) != 4 {
		t.Fatalf("Expected system + 3 messages, got %d", len(last))
	}
	if last[0].Role != api.RoleSystem || last[0].Content != constants.DefaultSystemMessage {
		t.Errorf("Expected default system prompt first, got %+v", last[0])
	}
	if last[2].Content != "Paris." {
		t.Errorf("Expected previous reply in context, got %q", last[2].Content)
	}

	output := out.String()
	if !strings.Contains(output, "About 2 million.") {
		t.Errorf("Expected reply in output, got: %s", output)
	}
	if !strings.HasSuffix(strings.TrimSpace(output), "Goodbye!") {
		t.Errorf("Expected empty interactive result to end the session, got: %s", output)
	}

	hist := history.NewHistory()
	if err := hist.Load(); err != nil {
		t.Fatalf("Failed to load history: %v", err)
	}
	conv := hist.GetLastConversation()
	if conv == nil {
		t.Fatal("Expected conversation to be saved")
	}
	if conv.MessageCount() != 4 {
		t.Errorf("Expected 4 saved messages, got %d", conv.MessageCount())
	}
}

func TestIntegration_PromptShowsModelAndCount(t *testing.T) {
	app, mock, _ := newTestApp(t)
	mock.SetResponse("hi")

	editor := &scriptedEditor{lines: []string{"hello"}}
	if err := runScripted(t, app, editor); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(editor.prompts) != 2 {
		t.Fatalf("Expected 2 prompts, got %d", len(editor.prompts))
	}
	first := lineedit.StripANSI(editor.prompts[0])
	second := lineedit.StripANSI(editor.prompts[1])
	if !strings.HasPrefix(first, "Grok (grok-3) [") || !strings.HasSuffix(first, "| new] > ") {
		t.Errorf("Unexpected first prompt %q", first)
	}
	if !strings.Contains(second, "| 2 messages] > ") {
		t.Errorf("Expected message count in prompt, got %q", second)
	}
}

func TestIntegration_NonInteractiveBlankLinesIgnored(t *testing.T) {
	app, mock, out := newTestApp(t)
	mock.SetResponse("ok")

	editor := &scriptedEditor{lines: []string{"", "question", ""}}
	if err := runScripted(t, app, editor); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(mock.calls) != 1 {
		t.Errorf("Expected 1 API call, got %d", len(mock.calls))
	}
	if !strings.Contains(out.String(), "Goodbye!") {
		t.Errorf("Expected EOF to end the session, got: %s", out.String())
	}
}

func TestIntegration_EditorErrorEndsSession(t *testing.T) {
	app, _, _ := newTestApp(t)

	editor := &scriptedEditor{err: errors.New("failed to read key: input/output error"), interactive: true}
	err := runScripted(t, app, editor)
	if err == nil || !strings.Contains(err.Error(), "input/output error") {
		t.Fatalf("Expected editor error to be returned, got %v", err)
	}
}

func TestIntegration_APIErrorKeepsConversation(t *testing.T) {
	app, mock, out := newTestApp(t)
	mock.SetError(&api.APIError{StatusCode: 500, Message: "Grok API error (500): boom"})

	editor := &scriptedEditor{lines: []string{"hello", "/history"}}
	if err := runScripted(t, app, editor); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	output := out.String()
	if !strings.Contains(output, "boom") {
		t.Errorf("Expected API error to be shown, got: %s", output)
	}
	if !strings.Contains(output, "No messages in this conversation yet.") {
		t.Errorf("Expected failed message to be dropped, got: %s", output)
	}
}

func TestIntegration_StreamingResponse(t *testing.T) {
	app, mock, out := newTestApp(t)
	app.cfg.Stream = true
	mock.SetStreamChunks([]string{"Hello", " ", "World", "!"})
	mock.SetResponse("Hello World!")

	messages := []api.Message{
		{Role: api.RoleSystem, Content: "You are a helpful assistant."},
		{Role: api.RoleUser, Content: "Say hello"},
	}

	response, err := app.sendMessage(context.Background(), mock, messages)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if response != "Hello World!" {
		t.Errorf("Expected accumulated chunks, got %q", response)
	}
	if !strings.Contains(out.String(), "Hello World!") {
		t.Errorf("Expected streamed output, got: %s", out.String())
	}
}

func TestIntegration_ContextWindow(t *testing.T) {
	app, mock, _ := newTestApp(t)

	var lines []string
	for i := 0; i < 8; i++ {
		lines = append(lines, fmt.Sprintf("message %d", i))
		mock.AddResponse(fmt.Sprintf("reply %d", i))
	}
	editor := &scriptedEditor{lines: lines}
	if err := runScripted(t, app, editor); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	last := mock.lastMessages()
	if len(last) != constants.ContextMessages+1 {
		t.Fatalf("Expected %d messages, got %d", constants.ContextMessages+1, len(last))
	}
	if last[0].Role != api.RoleSystem {
		t.Errorf("Expected system prompt to be kept, got %+v", last[0])
	}
	if got := last[len(last)-1].Content; got != "message 7" {
		t.Errorf("Expected newest message last, got %q", got)
	}
}

func TestIntegration_SlashCommands(t *testing.T) {
	app, mock, out := newTestApp(t)
	mock.SetResponse("ok")

	editor := &scriptedEditor{lines: []string{
		"/model grok-3-mini",
		"/model not-a-model",
		"/system Answer in French.",
		"bonjour",
		"/status",
		"/nope",
		"/quit",
		"never sent",
	}}
	if err := runScripted(t, app, editor); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if app.cfg.Model != "grok-3-mini" {
		t.Errorf("Expected model switch, got %s", app.cfg.Model)
	}
	if len(mock.calls) != 1 {
		t.Fatalf("Expected 1 API call, got %d", len(mock.calls))
	}
	if got := mock.lastMessages()[0].Content; got != "Answer in French." {
		t.Errorf("Expected new system prompt, got %q", got)
	}

	output := out.String()
	for _, want := range []string{
		"Switched to model: grok-3-mini",
		"Invalid model: not-a-model",
		"Unknown command: /nope",
		"Messages",
		"Goodbye!",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got: %s", want, output)
		}
	}
}

func TestIntegration_SaveLoadSessions(t *testing.T) {
	app, mock, out := newTestApp(t)
	mock.SetResponse("noted")

	editor := &scriptedEditor{lines: []string{
		"remember 42",
		"/save answers",
		"/reset",
		"/history",
		"/list",
		"/load answers",
		"/load missing",
	}}
	if err := runScripted(t, app, editor); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	output := out.String()
	for _, want := range []string{
		"Session saved to",
		"Started a new conversation.",
		"No messages in this conversation yet.",
		"  answers",
		`Loaded session "answers" (2 messages)`,
		`No session named "missing"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got: %s", want, output)
		}
	}

	// Saved sessions are offered for completion.
	last := editor.seen[len(editor.seen)-1]
	found := lineedit.Filter("/load a", last)
	if len(found) != 1 || found[0].Text != "/load answers" {
		t.Errorf("Expected /load answers suggestion, got %+v", found)
	}
}

func TestIntegration_ResumeConversation(t *testing.T) {
	app, mock, out := newTestApp(t)
	mock.AddResponse("first reply")

	first := &scriptedEditor{lines: []string{"first question"}}
	if err := runScripted(t, app, first); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	mock.AddResponse("second reply")
	second := &scriptedEditor{lines: []string{"/recent", "/resume", "follow up"}}
	if err := runScripted(t, app, second); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(out.String(), "Resumed conversation from") {
		t.Errorf("Expected resume confirmation, got: %s", out.String())
	}
	last := mock.lastMessages()
	if len(last) != 4 || last[1].Content != "first question" {
		t.Errorf("Expected resumed context, got %+v", last)
	}
}

func TestSuggestions_ModelEntries(t *testing.T) {
	app, _, _ := newTestApp(t)
	if err := app.setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	s := app.newSession(NewMockAIClient())

	got := lineedit.Filter("/model grok-3", s.suggestions())
	var texts []string
	for _, sg := range got {
		texts = append(texts, sg.Text)
	}
	if strings.Join(texts, ",") != "/model grok-3-mini" {
		t.Errorf("Expected only the other grok-3 model, got %v", texts)
	}

	help := lineedit.Filter("/he", s.suggestions())
	if len(help) != 1 || help[0].Text != "/help" {
		t.Errorf("Expected /help, got %+v", help)
	}
}

// ttyFake is a minimal raw-mode terminal for driving the real line editor
type ttyFake struct {
	in  io.Reader
	out bytes.Buffer
}

func (f *ttyFake) Read(p []byte) (int, error)     { return f.in.Read(p) }
func (f *ttyFake) Write(p []byte) (int, error)    { return f.out.Write(p) }
func (f *ttyFake) Size() (int, int, error)        { return 100, 30, nil }
func (f *ttyFake) IsTerminal() bool               { return true }
func (f *ttyFake) MakeRaw() (func() error, error) { return func() error { return nil }, nil }

func TestIntegration_LineEditorDrivesSession(t *testing.T) {
	app, mock, _ := newTestApp(t)
	mock.SetResponse("ok")

	// "/mo" + Tab completes /model, then the argument narrows the list to
	// one entry which Enter commits. Ctrl+C at the next prompt quits.
	term := &ttyFake{in: strings.NewReader("/mo\t grok-2\x1b[B\rhi\r\x03")}
	editor := lineedit.New(term, lineedit.WithProfile(termenv.Ascii))

	app.newEditor = func() lineReader { return editor }
	if err := app.setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if err := app.runInteractive(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if app.cfg.Model != "grok-2" {
		t.Errorf("Expected model grok-2, got %s", app.cfg.Model)
	}
	if len(mock.calls) != 1 || mock.lastMessages()[1].Content != "hi" {
		t.Errorf("Expected one chat request for 'hi', got %+v", mock.calls)
	}
	if !strings.Contains(term.out.String(), "/model grok-2\r\n") {
		t.Errorf("Expected committed line in scrollback, got %q", term.out.String())
	}
}

func TestRootCmd_Version(t *testing.T) {
	app, _, out := newTestApp(t)

	root := NewRootCmd(app)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "grok-cli "+constants.Version) {
		t.Errorf("Unexpected version output: %s", out.String())
	}
}

func TestRootCmd_OneShotQuery(t *testing.T) {
	app, mock, out := newTestApp(t)
	mock.SetResponse("42")

	root := NewRootCmd(app)
	root.SetArgs([]string{"-u", "What is the answer?"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := mock.lastMessages(); len(got) != 2 || got[1].Content != "What is the answer?" {
		t.Errorf("Unexpected request messages: %+v", got)
	}
	output := out.String()
	if !strings.Contains(output, "42") || !strings.Contains(output, "total_tokens=30") {
		t.Errorf("Expected answer and usage, got: %s", output)
	}
}

func TestRootCmd_MissingKey(t *testing.T) {
	app, _, _ := newTestApp(t)
	t.Setenv(config.EnvAPIKey, "")

	root := NewRootCmd(app)
	root.SetArgs([]string{"hello"})
	err := root.Execute()
	if !errors.Is(err, config.ErrAPIKeyNotFound) {
		t.Errorf("Expected ErrAPIKeyNotFound, got %v", err)
	}
}

func TestHealthCmd(t *testing.T) {
	tests := []struct {
		name    string
		apiErr  error
		wantErr bool
		want    string
	}{
		{"healthy", nil, false, "All checks passed."},
		{"api down", &api.APIError{StatusCode: 503, Message: "unavailable"}, true, "✗ API reachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, mock, out := newTestApp(t)
			mock.models = []api.Model{{ID: "grok-3"}}
			mock.SetError(tt.apiErr)

			root := NewRootCmd(app)
			root.SetArgs([]string{"health"})
			err := root.Execute()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("Expected %q in output, got: %s", tt.want, out.String())
			}
		})
	}
}

func TestLoginLogout(t *testing.T) {
	app, _, out := newTestApp(t)

	root := NewRootCmd(app)
	root.SetArgs([]string{"login", "--key", "xai-stored-key-abcdef"})
	if err := root.Execute(); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(out.String(), "API key saved.") {
		t.Errorf("Expected confirmation, got: %s", out.String())
	}

	logoutApp, _, logoutOut := newTestAppSharingHome(t, app)
	root = NewRootCmd(logoutApp)
	root.SetArgs([]string{"logout"})
	if err := root.Execute(); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if !strings.Contains(logoutOut.String(), "Stored API key removed.") {
		t.Errorf("Expected removal confirmation, got: %s", logoutOut.String())
	}
}

// newTestAppSharingHome returns a fresh App in the same environment as prev
func newTestAppSharingHome(t *testing.T, prev *App) (*App, *MockAIClient, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	display.SetOutput(&out, &out)

	mock := NewMockAIClient()
	app := NewApp()
	app.out = &out
	app.errOut = &out
	app.newClient = prev.newClient
	return app, mock, &out
}

func TestSessionsCmd(t *testing.T) {
	app, _, out := newTestApp(t)

	store, err := history.NewSessionStore()
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	if _, err := store.Save(&history.Session{
		Name:     "demo",
		Model:    "grok-3",
		Messages: []api.Message{{Role: api.RoleUser, Content: "hello there"}},
	}); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	for _, args := range [][]string{
		{"sessions", "list"},
		{"sessions", "show", "demo"},
		{"sessions", "delete", "demo"},
	} {
		root := NewRootCmd(app)
		root.SetArgs(args)
		if err := root.Execute(); err != nil {
			t.Fatalf("%v failed: %v", args, err)
		}
	}

	output := out.String()
	for _, want := range []string{"demo\n", "[user] hello there", "Deleted session demo"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output, got: %s", want, output)
		}
	}

	names, _ := store.List()
	if len(names) != 0 {
		t.Errorf("Expected session to be deleted, got %v", names)
	}
}
