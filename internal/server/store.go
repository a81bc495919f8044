package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	_ "modernc.org/sqlite"
)

// ErrSessionNotFound is returned for an unknown or deleted session.
var ErrSessionNotFound = errors.New("session not found")

const sessionSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	access_token  TEXT NOT NULL,
	refresh_token TEXT NOT NULL DEFAULT '',
	token_type    TEXT NOT NULL DEFAULT '',
	expiry        INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL
)`

// Store keeps the OAuth token of each signed-in session in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the session database at path.
// ":memory:" opens a private in-memory database.
//
// Parameters:
//   - ctx: bounds the connection check and schema setup
//   - path: the SQLite file path
//
// Returns:
//   - *Store: the store
//   - error: an error if the database cannot be opened or initialized
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sessionSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save stores or replaces the token of a session.
func (s *Store) Save(ctx context.Context, sessionID string, tok *oauth2.Token) error {
	var expiry int64
	if !tok.Expiry.IsZero() {
		expiry = tok.Expiry.Unix()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, access_token, refresh_token, token_type, expiry, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expiry = excluded.expiry`,
		sessionID, tok.AccessToken, tok.RefreshToken, tok.TokenType, expiry, time.Now().Unix())
	return err
}

// Token returns the token of a session.
//
// Parameters:
//   - ctx: bounds the query
//   - sessionID: the session id
//
// Returns:
//   - *oauth2.Token: the stored token
//   - error: ErrSessionNotFound or a database error
func (s *Store) Token(ctx context.Context, sessionID string) (*oauth2.Token, error) {
	var (
		tok    oauth2.Token
		expiry int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT access_token, refresh_token, token_type, expiry FROM sessions WHERE id = ?", sessionID).
		Scan(&tok.AccessToken, &tok.RefreshToken, &tok.TokenType, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	} else if err != nil {
		return nil, err
	}
	if expiry != 0 {
		tok.Expiry = time.Unix(expiry, 0)
	}
	return &tok, nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID)
	return err
}

// Prune removes sessions created before cutoff.
//
// Returns:
//   - int64: the number of sessions removed
//   - error: a database error
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE created_at < ?", cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
