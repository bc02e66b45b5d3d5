// Package storage persists per-user language preferences across sessions.
package storage

import (
	"database/sql"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// PrefStore is a SQLite-backed map of email → language preference. At
// connect time a stored preference seeds the connection's language; every
// "set language" event writes through.
type PrefStore struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the preference database at path.
func Open(path string) (*PrefStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS preferences (
		email      TEXT PRIMARY KEY,
		language   TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &PrefStore{db: db}, nil
}

// Language returns the stored preference for email.
func (s *PrefStore) Language(email string) (string, bool) {
	email = normalizeEmail(email)
	if email == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var lang string
	err := s.db.QueryRow(`SELECT language FROM preferences WHERE email = ?`, email).Scan(&lang)
	if err != nil {
		return "", false
	}
	return lang, true
}

// SetLanguage stores the preference for email, replacing any previous one.
func (s *PrefStore) SetLanguage(email, language string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO preferences (email, language, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET language=excluded.language, updated_at=excluded.updated_at`,
		email, strings.ToUpper(language), time.Now().UnixMilli())
	return err
}

// Close closes the database.
func (s *PrefStore) Close() error {
	return s.db.Close()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
