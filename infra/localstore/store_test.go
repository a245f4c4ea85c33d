package localstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CrestNiraj12/terminalmeme/app"
)

var (
	_ app.LocalStore = (*FileStore)(nil)
	_ app.LocalStore = (*MemoryStore)(nil)
)

func TestFileStore_RoundTripAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	s := NewFileStore(path)
	if _, ok := s.GetString(KeyFeedMode); ok {
		t.Fatalf("missing file should read as empty")
	}
	if err := s.SetString(KeyFeedMode, "hot"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := s.SetBool(VotedKey("m1"), true); err != nil {
		t.Fatalf("set bool failed: %v", err)
	}

	reopened := NewFileStore(path)
	if v, _ := reopened.GetString(KeyFeedMode); v != "hot" {
		t.Fatalf("unexpected mode after reopen: %q", v)
	}
	if !reopened.GetBool(VotedKey("m1")) || reopened.GetBool(VotedKey("m2")) {
		t.Fatalf("unexpected voted flags")
	}

	if err := reopened.SetBool(VotedKey("m1"), false); err != nil {
		t.Fatalf("unset failed: %v", err)
	}
	if reopened.GetBool(VotedKey("m1")) {
		t.Fatalf("flag should be cleared")
	}
	if err := reopened.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, ok := NewFileStore(path).GetString(KeyFeedMode); ok {
		t.Fatalf("clear must persist")
	}
}

func TestFileStore_CorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("not-json"), 0o600); err != nil {
		t.Fatalf("write corrupt state failed: %v", err)
	}
	if err := NewFileStore(path).Load(); err == nil {
		t.Fatalf("expected parse error for invalid json")
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	_ = s.SetString("a", "1")
	_ = s.SetBool("b", true)
	if v, ok := s.GetString("a"); !ok || v != "1" {
		t.Fatalf("unexpected value %q", v)
	}
	if !s.GetBool("b") {
		t.Fatalf("expected bool flag")
	}
	_ = s.Clear()
	if s.GetBool("b") {
		t.Fatalf("clear should drop everything")
	}
}
