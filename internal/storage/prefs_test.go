package storage

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *PrefStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPrefStoreRoundtrip(t *testing.T) {
	s := openTestStore(t)

	if _, ok := s.Language("a@example.com"); ok {
		t.Fatal("unknown email should report no preference")
	}

	if err := s.SetLanguage("a@example.com", "de"); err != nil {
		t.Fatal(err)
	}
	lang, ok := s.Language("a@example.com")
	if !ok || lang != "DE" {
		t.Fatalf("expected DE, got %q ok=%v", lang, ok)
	}

	// Overwrite
	if err := s.SetLanguage("a@example.com", "FR"); err != nil {
		t.Fatal(err)
	}
	if lang, _ := s.Language("a@example.com"); lang != "FR" {
		t.Fatalf("expected FR after overwrite, got %q", lang)
	}
}

func TestPrefStoreEmailNormalization(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetLanguage("  Alice@Example.COM ", "NL"); err != nil {
		t.Fatal(err)
	}
	if lang, ok := s.Language("alice@example.com"); !ok || lang != "NL" {
		t.Fatalf("expected NL via normalized lookup, got %q ok=%v", lang, ok)
	}

	// Empty email is a silent no-op, not an error.
	if err := s.SetLanguage("", "EN"); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Language(""); ok {
		t.Fatal("empty email must never resolve")
	}
}
