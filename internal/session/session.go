// Package session is the durable client-side store: a string-keyed table for
// the bearer token, the serialized chat transcript and session flags, plus a
// snapshot table holding the last committed news feed so the dashboard has
// something to show before the first cycle lands.
package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/api"
)

// Well-known keys in the kv table.
const (
	KeyToken       = "token"
	KeyTranscript  = "chat_transcript"
	KeySessionSeen = "session_seen"
)

type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Store{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS news (
			id           INTEGER NOT NULL,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			url          TEXT NOT NULL DEFAULT '',
			source       TEXT NOT NULL DEFAULT '',
			category     TEXT NOT NULL DEFAULT '',
			published_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_news_published ON news(published_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// Get returns the value stored under key; ok is false when absent.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	err = s.readDB.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Set(key, value string) error {
	_, err := s.writeDB.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	_, err := s.writeDB.Exec("DELETE FROM kv WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Token returns the stored bearer token, or "" when not logged in.
func (s *Store) Token() string {
	value, _, _ := s.Get(KeyToken)
	return value
}

func (s *Store) SetToken(token string) error {
	return s.Set(KeyToken, token)
}

func (s *Store) ClearToken() error {
	return s.Delete(KeyToken)
}

// ReplaceNews swaps the stored feed snapshot wholesale; news is never merged
// incrementally.
func (s *Store) ReplaceNews(items []api.NewsItem) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM news"); err != nil {
		return fmt.Errorf("clearing news snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO news (id, title, description, url, source, category, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		var published any
		if item.PublishedAt != nil {
			published = item.PublishedAt.Format(time.RFC3339)
		}
		if _, err := stmt.Exec(item.ID, item.Title, item.Description, item.URL, item.Source, item.Category, published); err != nil {
			return fmt.Errorf("storing news item %d: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// News returns the stored feed snapshot, newest first.
func (s *Store) News() ([]api.NewsItem, error) {
	rows, err := s.readDB.Query(`
		SELECT id, title, description, url, source, category, published_at
		FROM news ORDER BY published_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying news snapshot: %w", err)
	}
	defer rows.Close()

	var items []api.NewsItem
	for rows.Next() {
		var item api.NewsItem
		var published sql.NullString
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.URL, &item.Source, &item.Category, &published); err != nil {
			return nil, fmt.Errorf("scanning news item: %w", err)
		}
		if published.Valid {
			if ts, err := time.Parse(time.RFC3339, published.String); err == nil {
				item.PublishedAt = &ts
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
