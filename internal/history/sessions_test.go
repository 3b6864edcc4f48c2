package history

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/quocvuong92/grok-cli/internal/api"
)

func TestValidateSessionName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"work", false},
		{"work-2026_01.v2", false},
		{"", true},
		{".", true},
		{"..", true},
		{".hidden", true},
		{"a/b", true},
		{"../escape", true},
		{"with space", true},
		{"ünicode", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSessionName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func TestSessionStore_SaveLoad(t *testing.T) {
	store := NewSessionStoreAt(filepath.Join(t.TempDir(), "sessions"))

	session := &Session{
		Name:         "work",
		Model:        "grok-3",
		SystemPrompt: "be brief",
		Messages:     []api.Message{{Role: api.RoleUser, Content: "hi"}},
	}

	path, err := store.Save(session)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if path != filepath.Join(store.Dir(), "work.json") {
		t.Errorf("Save() path = %q", path)
	}
	if !session.SavedAt.IsZero() {
		t.Error("Save() should not modify the caller's session")
	}

	loaded, err := store.Load("work")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Model != "grok-3" || loaded.SystemPrompt != "be brief" {
		t.Errorf("Load() = %+v", loaded)
	}
	if len(loaded.Messages) != 1 || loaded.Messages[0].Content != "hi" {
		t.Errorf("Load().Messages = %+v", loaded.Messages)
	}
	if loaded.SavedAt.IsZero() {
		t.Error("Load().SavedAt is zero")
	}
}

func TestSessionStore_LoadMissing(t *testing.T) {
	store := NewSessionStoreAt(t.TempDir())

	_, err := store.Load("nope")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Load() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStore_InvalidName(t *testing.T) {
	store := NewSessionStoreAt(t.TempDir())

	if _, err := store.Save(&Session{Name: "../x"}); !errors.Is(err, ErrInvalidSessionName) {
		t.Errorf("Save() error = %v, want ErrInvalidSessionName", err)
	}
	if _, err := store.Load("a/b"); !errors.Is(err, ErrInvalidSessionName) {
		t.Errorf("Load() error = %v, want ErrInvalidSessionName", err)
	}
	if err := store.Delete(""); !errors.Is(err, ErrInvalidSessionName) {
		t.Errorf("Delete() error = %v, want ErrInvalidSessionName", err)
	}
}

func TestSessionStore_List(t *testing.T) {
	dir := t.TempDir()
	store := NewSessionStoreAt(dir)

	names, err := store.List()
	if err != nil {
		t.Fatalf("List() on empty dir error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List() = %v, want empty", names)
	}

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := store.Save(&Session{Name: name}); err != nil {
			t.Fatalf("Save(%s) error: %v", name, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0700); err != nil {
		t.Fatal(err)
	}

	names, err = store.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("List() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestSessionStore_ListMissingDir(t *testing.T) {
	store := NewSessionStoreAt(filepath.Join(t.TempDir(), "absent"))

	names, err := store.List()
	if err != nil || names != nil {
		t.Errorf("List() = %v, %v; want nil, nil", names, err)
	}
}

func TestSessionStore_Delete(t *testing.T) {
	store := NewSessionStoreAt(t.TempDir())
	if _, err := store.Save(&Session{Name: "old"}); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete("old"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := store.Delete("old"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Delete() error = %v, want ErrSessionNotFound", err)
	}
}

func TestNewSessionStore(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewSessionStore()
	if err != nil {
		t.Fatalf("NewSessionStore() error: %v", err)
	}
	if want := filepath.Join(home, ".grok", "sessions"); store.Dir() != want {
		t.Errorf("Dir() = %q, want %q", store.Dir(), want)
	}
}
