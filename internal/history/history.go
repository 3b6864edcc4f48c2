package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quocvuong92/grok-cli/internal/api"
	"github.com/quocvuong92/grok-cli/internal/constants"
)

// HistoryFileName is the name of the history file
const HistoryFileName = "history.json"

// titleLength is how many characters of the first user message form a title
const titleLength = 60

// ConversationEntry is one saved conversation
type ConversationEntry struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Model     string        `json:"model"`
	Messages  []api.Message `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// MessageCount returns the number of messages excluding system prompts
func (c *ConversationEntry) MessageCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role != api.RoleSystem {
			n++
		}
	}
	return n
}

type historyFile struct {
	Conversations []ConversationEntry `json:"conversations"`
}

// History keeps recent conversations, newest first, in a JSON file.
type History struct {
	mu            sync.Mutex
	path          string
	limit         int
	conversations []ConversationEntry
	now           func() time.Time
}

// NewConversationID returns a fresh conversation identifier
func NewConversationID() string {
	return uuid.New().String()
}

// DefaultPath returns ~/.local/share/grok-cli/history.json
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", constants.AppName, HistoryFileName), nil
}

// NewHistory creates a history backed by the default file. If the home
// directory cannot be found the history works in memory only.
func NewHistory() *History {
	path, err := DefaultPath()
	if err != nil {
		path = ""
	}
	return NewHistoryAt(path)
}

// NewHistoryAt creates a history backed by path
func NewHistoryAt(path string) *History {
	return &History{
		path:  path,
		limit: constants.MaxConversations,
		now:   time.Now,
	}
}

// Path returns the backing file, empty for an in-memory history
func (h *History) Path() string {
	return h.path
}

// Load reads the history file. A missing file leaves the history empty.
func (h *History) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.path == "" {
		return nil
	}

	data, err := os.ReadFile(h.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			h.conversations = nil
			return nil
		}
		return fmt.Errorf("failed to read history: %w", err)
	}

	var file historyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse history %s: %w", h.path, err)
	}

	h.conversations = file.Conversations
	if len(h.conversations) > h.limit {
		h.conversations = h.conversations[:h.limit]
	}
	return nil
}

// Save writes the history file atomically
func (h *History) Save() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(historyFile{Conversations: h.conversations}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	return writeFileAtomic(h.path, data)
}

// AddConversation records a conversation at the front of the history. An
// existing entry with the same ID is replaced and keeps its creation time.
func (h *History) AddConversation(id, model string, messages []api.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	entry := ConversationEntry{
		ID:        id,
		Title:     titleFor(messages),
		Model:     model,
		Messages:  cloneMessages(messages),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if i := h.indexOf(id); i >= 0 {
		entry.CreatedAt = h.conversations[i].CreatedAt
		h.conversations = append(h.conversations[:i], h.conversations[i+1:]...)
	}

	h.conversations = append([]ConversationEntry{entry}, h.conversations...)
	if len(h.conversations) > h.limit {
		h.conversations = h.conversations[:h.limit]
	}
}

// UpdateConversation replaces the messages of an existing conversation and
// moves it to the front. It reports whether the conversation was found.
func (h *History) UpdateConversation(id string, messages []api.Message) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.indexOf(id)
	if i < 0 {
		return false
	}

	entry := h.conversations[i]
	entry.Messages = cloneMessages(messages)
	entry.Title = titleFor(messages)
	entry.UpdatedAt = h.now()

	h.conversations = append(h.conversations[:i], h.conversations[i+1:]...)
	h.conversations = append([]ConversationEntry{entry}, h.conversations...)
	return true
}

// GetConversation returns a copy of the conversation with id, or nil
func (h *History) GetConversation(id string) *ConversationEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.indexOf(id)
	if i < 0 {
		return nil
	}
	entry := h.conversations[i]
	entry.Messages = cloneMessages(entry.Messages)
	return &entry
}

// GetLastConversation returns the most recently updated conversation, or nil
func (h *History) GetLastConversation() *ConversationEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.conversations) == 0 {
		return nil
	}
	entry := h.conversations[0]
	entry.Messages = cloneMessages(entry.Messages)
	return &entry
}

// GetRecentConversations returns up to n conversations, newest first
func (h *History) GetRecentConversations(n int) []ConversationEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n <= 0 {
		return nil
	}
	if n > len(h.conversations) {
		n = len(h.conversations)
	}

	out := make([]ConversationEntry, n)
	copy(out, h.conversations[:n])
	return out
}

// Len returns the number of stored conversations
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conversations)
}

// Clear removes all conversations. Call Save to persist.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conversations = nil
}

func (h *History) indexOf(id string) int {
	for i := range h.conversations {
		if h.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneMessages(messages []api.Message) []api.Message {
	if messages == nil {
		return nil
	}
	out := make([]api.Message, len(messages))
	copy(out, messages)
	return out
}

// titleFor uses the first user message, collapsed to one line
func titleFor(messages []api.Message) string {
	for _, m := range messages {
		if m.Role != api.RoleUser {
			continue
		}
		title := strings.Join(strings.Fields(m.Content), " ")
		runes := []rune(title)
		if len(runes) > titleLength {
			title = string(runes[:titleLength-3]) + "..."
		}
		return title
	}
	return ""
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
