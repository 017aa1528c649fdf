package preferences

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexi/pkg/models"
)

const createThemesTable = `
	CREATE TABLE IF NOT EXISTS lexi_preferences (
		client_key TEXT PRIMARY KEY,
		theme      TEXT NOT NULL CHECK (theme IN ('light', 'dark')),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// PostgresStore keeps themes in a PostgreSQL table
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and ensures the table exists
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("preferences.database_url is required for the postgres driver")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, createThemesTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create preferences table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) LoadTheme(ctx context.Context, clientKey string) (models.Theme, error) {
	var theme string
	err := s.pool.QueryRow(ctx,
		`SELECT theme FROM lexi_preferences WHERE client_key = $1`,
		normalizeKey(clientKey),
	).Scan(&theme)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ThemeLight, nil
	}
	if err != nil {
		return models.ThemeLight, fmt.Errorf("load theme: %w", err)
	}
	return models.ParseTheme(theme), nil
}

func (s *PostgresStore) SaveTheme(ctx context.Context, clientKey string, theme models.Theme) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO lexi_preferences (client_key, theme, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (client_key) DO UPDATE SET theme = EXCLUDED.theme, updated_at = NOW()`,
		normalizeKey(clientKey), string(models.ParseTheme(string(theme))),
	)
	if err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
