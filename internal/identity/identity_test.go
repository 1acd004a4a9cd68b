package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestEnsureGeneratesOnce(t *testing.T) {
	t.Setenv("RIFFDECK_USER_UUID", "")
	s := NewStore(t.TempDir())

	first, err := s.Ensure()
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("not a uuid: %q", first)
	}

	second, err := s.Ensure()
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if second != first {
		t.Errorf("identity changed between calls: %q vs %q", first, second)
	}
}

func TestLoadEmptyWhenMissing(t *testing.T) {
	s := NewStore(t.TempDir())
	id, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if id != "" {
		t.Errorf("got %q, want empty", id)
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "identity"), []byte("not-a-uuid\n"), 0600); err != nil {
		t.Fatal(err)
	}
	s := NewStore(dir)
	if _, err := s.Load(); err == nil {
		t.Fatal("expected error for corrupt identity")
	}
}

func TestEnvOverride(t *testing.T) {
	want := uuid.NewString()
	t.Setenv("RIFFDECK_USER_UUID", want)
	s := NewStore(t.TempDir())

	got, err := s.Ensure()
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want env value %q", got, want)
	}
	// Override must not be written to disk.
	if _, err := os.Stat(filepath.Join(s.Dir, "identity")); !os.IsNotExist(err) {
		t.Error("identity file should not exist when env override is set")
	}
}

func TestEnvOverrideRejectsGarbage(t *testing.T) {
	t.Setenv("RIFFDECK_USER_UUID", "garbage")
	s := NewStore(t.TempDir())
	if _, err := s.Ensure(); err == nil {
		t.Fatal("expected error for invalid env uuid")
	}
}
