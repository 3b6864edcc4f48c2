package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/quocvuong92/grok-cli/internal/api"
)

// SessionsDir is the session directory relative to the home directory
const SessionsDir = ".grok/sessions"

const sessionExt = ".json"

var (
	// ErrSessionNotFound is returned when loading or deleting an unknown session
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidSessionName is returned for names that are not safe file names
	ErrInvalidSessionName = errors.New("session names may only contain letters, digits, '-', '_' and '.'")
)

// Session is a named conversation snapshot
type Session struct {
	Name           string        `json:"name"`
	ConversationID string        `json:"conversation_id,omitempty"`
	Model          string        `json:"model"`
	SystemPrompt   string        `json:"system_prompt,omitempty"`
	Messages       []api.Message `json:"messages"`
	SavedAt        time.Time     `json:"saved_at"`
}

// SessionStore saves sessions as one JSON file per name
type SessionStore struct {
	dir string
	now func() time.Time
}

// NewSessionStore returns a store under ~/.grok/sessions
func NewSessionStore() (*SessionStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewSessionStoreAt(filepath.Join(homeDir, filepath.FromSlash(SessionsDir))), nil
}

// NewSessionStoreAt returns a store rooted at dir
func NewSessionStoreAt(dir string) *SessionStore {
	return &SessionStore{dir: dir, now: time.Now}
}

// Dir returns the directory sessions are written to
func (s *SessionStore) Dir() string {
	return s.dir
}

// ValidateSessionName checks that name can be used as a file name
func ValidateSessionName(name string) error {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return ErrInvalidSessionName
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return ErrInvalidSessionName
		}
	}
	return nil
}

func (s *SessionStore) pathFor(name string) (string, error) {
	if err := ValidateSessionName(name); err != nil {
		return "", fmt.Errorf("%q: %w", name, err)
	}
	return filepath.Join(s.dir, name+sessionExt), nil
}

// Save writes the session and returns the file path. An existing session
// with the same name is overwritten.
func (s *SessionStore) Save(session *Session) (string, error) {
	path, err := s.pathFor(session.Name)
	if err != nil {
		return "", err
	}

	saved := *session
	saved.SavedAt = s.now()

	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads the session called name
func (s *SessionStore) Load(name string) (*Session, error) {
	path, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%q: %w", name, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session %q: %w", name, err)
	}
	if session.Name == "" {
		session.Name = name
	}
	return &session, nil
}

// List returns the saved session names in sorted order
func (s *SessionStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, ok := strings.CutSuffix(entry.Name(), sessionExt)
		if !ok || ValidateSessionName(name) != nil {
			continue
		}
		names = append(names, name)
	}

	slices.Sort(names)
	return names, nil
}

// Delete removes the session called name
func (s *SessionStore) Delete(name string) error {
	path, err := s.pathFor(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%q: %w", name, ErrSessionNotFound)
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
