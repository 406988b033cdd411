// Package store persists the reply document and small pieces of session state in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/glebarez/go-sqlite"
)

const documentKey = "document"

// Store is the SQLite-backed persistence layer.
type Store struct {
	db *sql.DB
}

// Open opens (and creates when missing) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps SQLite writes serialized.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS app_state (
			id TEXT PRIMARY KEY,
			data TEXT,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS reply_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing database tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveDocument persists the current reply. Non-empty replies are also kept in history.
func (s *Store) SaveDocument(text string) error {
	if err := s.SaveState(documentKey, text); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	_, err := s.db.Exec("INSERT INTO reply_history (text) VALUES (?)", text)
	return err
}

// LoadDocument returns the saved reply, or "" when none was saved.
func (s *Store) LoadDocument() (string, error) {
	var text string
	err := s.LoadState(documentKey, &text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return text, err
}

// likeEscaper makes LIKE wildcards in a query match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Recall returns up to limit past replies containing query, newest first.
func (s *Store) Recall(query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.Query(
		`SELECT text FROM reply_history WHERE text LIKE ? ESCAPE '\' ORDER BY id DESC LIMIT ?`,
		"%"+likeEscaper.Replace(query)+"%", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SaveState persists arbitrary application state (JSON)
func (s *Store) SaveState(id string, state any) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.db.Exec("INSERT OR REPLACE INTO app_state (id, data) VALUES (?, ?)", id, string(data))
	return err
}

// LoadState retrieves persisted application state. A missing id yields sql.ErrNoRows.
func (s *Store) LoadState(id string, target any) error {
	var data string
	err := s.db.QueryRow("SELECT data FROM app_state WHERE id = ?", id).Scan(&data)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), target)
}

// ClearState removes a specific state entry
func (s *Store) ClearState(id string) error {
	_, err := s.db.Exec("DELETE FROM app_state WHERE id = ?", id)
	return err
}
