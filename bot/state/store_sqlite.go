package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a local SQLite database, for deployments
// that want sessions to survive a restart without running Redis.
type SQLiteStore struct {
	db *sql.DB
}

type SQLiteConfig struct {
	Path string `envconfig:"PATH" split_words:"true" default:"data/leadbot.db"`
}

func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode so concurrent per-user flows don't trip over each other.
	dsn := cfg.Path + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		user_id TEXT PRIMARY KEY,
		step TEXT NOT NULL,
		pending_offer INTEGER,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, ErrEmptySessionID
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, step, pending_offer, updated_at FROM sessions WHERE user_id = ?`, userID)

	var sess Session
	var offer sql.NullInt64
	var updatedAt int64
	err := row.Scan(&sess.UserID, &sess.Step, &offer, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	if offer.Valid {
		v := offer.Int64
		sess.PendingOffer = &v
	}
	sess.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	if err := sess.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session loaded from store: %w", err)
	}
	return &sess, nil
}

func (s *SQLiteStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return ErrNilSession
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = time.Now().UTC()
	}
	if err := sess.Validate(); err != nil {
		return err
	}

	var offer any
	if sess.PendingOffer != nil {
		offer = *sess.PendingOffer
	}

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO sessions (user_id, step, pending_offer, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		step = excluded.step,
		pending_offer = excluded.pending_offer,
		updated_at = excluded.updated_at`,
		sess.UserID, string(sess.Step), offer, sess.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptySessionID
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
