package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"DeskChat/internal/session"
)

// SQLiteStore implements the same contract as FileStore on an embedded
// SQLite database, for installs that prefer a single database file over
// a directory of JSON files.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed initializes) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		title TEXT PRIMARY KEY
	);
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		seq INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		FOREIGN KEY(title) REFERENCES conversations(title)
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) List() []string {
	rows, err := s.db.Query("SELECT title FROM conversations ORDER BY title DESC")
	if err != nil {
		return nil
	}
	defer rows.Close()
	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil
		}
		titles = append(titles, t)
	}
	return titles
}

func (s *SQLiteStore) Save(rec *session.Record) error {
	if len(rec.Messages) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT OR REPLACE INTO conversations (title) VALUES (?)", rec.Title); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM messages WHERE title = ?", rec.Title); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	for i, m := range rec.Messages {
		if _, err := tx.Exec(
			"INSERT INTO messages (title, seq, role, content) VALUES (?, ?, ?, ?)",
			rec.Title, i, m.Role, m.Content,
		); err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(title string) (*session.Record, error) {
	var found string
	err := s.db.QueryRow("SELECT title FROM conversations WHERE title = ?", title).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, title)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	rows, err := s.db.Query(
		"SELECT role, content FROM messages WHERE title = ? ORDER BY seq", title,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	rec := &session.Record{Title: title}
	for rows.Next() {
		var m session.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		rec.Messages = append(rec.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	if err := validate(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteStore) Rename(oldTitle, newTitle string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("UPDATE conversations SET title = ? WHERE title = ?", newTitle, oldTitle)
	if err != nil {
		return fmt.Errorf("failed to rename conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, oldTitle)
	}
	if _, err := tx.Exec("UPDATE messages SET title = ? WHERE title = ?", newTitle, oldTitle); err != nil {
		return fmt.Errorf("failed to rename messages: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(title string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM conversations WHERE title = ?", title)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, title)
	}
	if _, err := tx.Exec("DELETE FROM messages WHERE title = ?", title); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
