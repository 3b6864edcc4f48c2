// Package history provides conversation history persistence for interactive sessions.
package history

import "github.com/quocvuong92/grok-cli/internal/api"

// HistoryManager defines the interface for managing conversation history.
// This interface enables dependency injection and easier testing.
type HistoryManager interface {
	// Load reads the history from disk
	Load() error

	// Save writes the history to disk
	Save() error

	// AddConversation records a conversation, replacing any entry with the same ID
	AddConversation(id, model string, messages []api.Message)

	// UpdateConversation updates an existing conversation
	UpdateConversation(id string, messages []api.Message) bool

	// GetConversation retrieves a conversation by ID
	GetConversation(id string) *ConversationEntry

	// GetLastConversation returns the most recent conversation
	GetLastConversation() *ConversationEntry

	// GetRecentConversations returns the N most recent conversations
	GetRecentConversations(n int) []ConversationEntry

	// Clear removes all conversation history
	Clear()
}

// SessionManager stores conversations under user-chosen names.
type SessionManager interface {
	Save(s *Session) (string, error)
	Load(name string) (*Session, error)
	List() ([]string, error)
	Delete(name string) error
}

// Ensure concrete types implement the interfaces
var (
	_ HistoryManager = (*History)(nil)
	_ SessionManager = (*SessionStore)(nil)
)
