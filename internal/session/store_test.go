package session

import (
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "session_test.db")
	s, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore(%q): %v", dbPath, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissing(t *testing.T) {
	s := testStore(t)

	val, err := s.Get("ns", "missing")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if val != "" {
		t.Errorf("Get() = %q, want empty string for missing key", val)
	}
}

func TestSetUpsert(t *testing.T) {
	s := testStore(t)

	if err := s.Set("ns", "key", "v1"); err != nil {
		t.Fatalf("Set(v1) error: %v", err)
	}
	if err := s.Set("ns", "key", "v2"); err != nil {
		t.Fatalf("Set(v2) error: %v", err)
	}

	val, err := s.Get("ns", "key")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if val != "v2" {
		t.Errorf("Get() = %q, want %q after upsert", val, "v2")
	}
}

func TestNamespaceIsolation(t *testing.T) {
	s := testStore(t)

	if err := s.Set("auth", "key", "a-val"); err != nil {
		t.Fatalf("Set(auth) error: %v", err)
	}
	if err := s.Set("ui", "key", "b-val"); err != nil {
		t.Fatalf("Set(ui) error: %v", err)
	}

	aVal, err := s.Get("auth", "key")
	if err != nil {
		t.Fatalf("Get(auth) error: %v", err)
	}
	bVal, err := s.Get("ui", "key")
	if err != nil {
		t.Fatalf("Get(ui) error: %v", err)
	}

	if aVal != "a-val" || bVal != "b-val" {
		t.Errorf("namespaces bled: auth=%q ui=%q", aVal, bVal)
	}
}

func TestDeleteNamespace(t *testing.T) {
	s := testStore(t)

	if err := s.Set("auth", "token", "tok"); err != nil {
		t.Fatalf("Set(auth/token): %v", err)
	}
	if err := s.Set("ui", "theme", "dark"); err != nil {
		t.Fatalf("Set(ui/theme): %v", err)
	}

	if err := s.DeleteNamespace("auth"); err != nil {
		t.Fatalf("DeleteNamespace: %v", err)
	}

	tok, err := s.Get("auth", "token")
	if err != nil {
		t.Fatalf("Get(auth/token): %v", err)
	}
	if tok != "" {
		t.Errorf("auth/token = %q after namespace delete, want empty", tok)
	}

	// UI preferences survive a session wipe.
	theme, err := s.Get("ui", "theme")
	if err != nil {
		t.Fatalf("Get(ui/theme): %v", err)
	}
	if theme != "dark" {
		t.Errorf("ui/theme = %q, want dark", theme)
	}
}

func TestPersistAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "persist_test.db")

	s1, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore(1): %v", err)
	}
	if err := s1.Set("auth", "token", "persistent"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	s1.Close()

	s2, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore(2): %v", err)
	}
	defer s2.Close()

	val, err := s2.Get("auth", "token")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if val != "persistent" {
		t.Errorf("Get() = %q after reopen, want %q", val, "persistent")
	}
}
