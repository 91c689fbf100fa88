// Package credentials persists backend integration tokens and exposes the
// interactive key-selection gate the try-on client consults.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const (
	ProviderGemini = "gemini"
)

// Store keeps integration tokens in the application database.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS integration_tokens (
		provider TEXT PRIMARY KEY,
		token TEXT NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (unixepoch())
	)`)
	if err != nil {
		return nil, fmt.Errorf("initialize token schema: %w", err)
	}
	return s, nil
}

// GeminiAPIKey returns the stored key, or empty when none is configured.
func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderGemini)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT token FROM integration_tokens WHERE provider = ?`, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetGeminiAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("gemini api key is required")
	}
	return s.upsert(ctx, ProviderGemini, key)
}

func (s *Store) upsert(ctx context.Context, provider, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO integration_tokens (provider, token, updated_at) VALUES (?, ?, unixepoch())
		ON CONFLICT(provider) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at`,
		provider, token)
	return err
}
