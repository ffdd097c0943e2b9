// Package leads records qualified-lead handoffs for the sales team to
// follow up on.
package leads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Lead is one handoff of a qualified user to a human agent.
type Lead struct {
	bun.BaseModel `bun:"table:leads,alias:l"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    string    `bun:"user_id,notnull"`
	AgentName string    `bun:"agent_name,notnull"`
	Offer     int64     `bun:"offer,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// Store persists handoff records. Recording is best-effort; callers log
// failures and carry on with the conversation.
type Store interface {
	Record(ctx context.Context, lead *Lead) error
}

// Noop discards lead records, for deployments without Postgres.
type Noop struct{}

func (Noop) Record(context.Context, *Lead) error { return nil }

type Config struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// BunStore writes leads to Postgres through bun.
type BunStore struct {
	db *bun.DB
}

func NewBunStore(ctx context.Context, cfg Config) (*BunStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*Lead)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("create leads table: %w", err)
	}

	return &BunStore{db: db}, nil
}

func (s *BunStore) Record(ctx context.Context, lead *Lead) error {
	if lead == nil {
		return errors.New("lead is nil")
	}
	if strings.TrimSpace(lead.UserID) == "" {
		return errors.New("lead user id is empty")
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(lead).Exec(ctx); err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (s *BunStore) Close() error {
	return s.db.Close()
}
