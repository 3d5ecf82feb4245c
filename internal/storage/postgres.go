package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"sticker-pricer/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrSheetNotFound is returned when no sheet with the requested name exists.
// It matches fs.ErrNotExist so sheet loaders do not retry it.
var ErrSheetNotFound = fmt.Errorf("pricing sheet not found: %w", fs.ErrNotExist)

// PostgresStorage keeps pricing sheets in the pricing_sheets table and
// serves them to the loader as a sheet source.
type PostgresStorage struct {
	db     *sqlx.DB
	logger *zap.Logger
}

type Sheet struct {
	Name      string    `db:"name"`
	Content   string    `db:"content"`
	UpdatedAt time.Time `db:"updated_at"`
}

func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

func NewPostgresStorage(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	const operation = "storage.NewPostgresStorage"

	if logger == nil {
		logger = zap.NewNop()
	}

	var db *sqlx.DB
	var err error

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...")

	err = backoff.RetryNotify(
		func() error {
			db, err = sqlx.ConnectContext(ctx, "postgres", DSN(cfg))
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			if err = db.PingContext(ctx); err != nil {
				_ = db.Close()
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, duration time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)

	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("Successfully connected to PostgreSQL")
	return NewWithDB(db, logger), nil
}

// NewWithDB wraps an open connection.
func NewWithDB(db *sqlx.DB, logger *zap.Logger) *PostgresStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStorage{db: db, logger: logger}
}

// DB exposes the underlying handle for migrations.
func (s *PostgresStorage) DB() *sql.DB {
	return s.db.DB
}

// Fetch returns the content of the named sheet.
func (s *PostgresStorage) Fetch(ctx context.Context, name string) ([]byte, error) {
	sheet, err := s.GetSheet(ctx, name)
	if err != nil {
		return nil, err
	}
	return []byte(sheet.Content), nil
}

func (s *PostgresStorage) GetSheet(ctx context.Context, name string) (*Sheet, error) {
	const query = `
        SELECT name, content, updated_at
        FROM pricing_sheets
        WHERE name = $1
    `

	var sheet Sheet
	err := s.db.GetContext(ctx, &sheet, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
		}
		return nil, fmt.Errorf("failed to get sheet %s: %w", name, err)
	}
	return &sheet, nil
}

// SaveSheet inserts or replaces a sheet.
func (s *PostgresStorage) SaveSheet(ctx context.Context, name string, content []byte) error {
	const query = `
        INSERT INTO pricing_sheets (name, content, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (name) DO UPDATE
        SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at
    `

	if _, err := s.db.ExecContext(ctx, query, name, string(content)); err != nil {
		return fmt.Errorf("failed to save sheet %s: %w", name, err)
	}

	s.logger.Info("Pricing sheet saved",
		zap.String("sheet", name),
		zap.Int("bytes", len(content)))
	return nil
}

func (s *PostgresStorage) ListSheets(ctx context.Context) ([]Sheet, error) {
	const query = `SELECT name, content, updated_at FROM pricing_sheets ORDER BY name`

	var sheets []Sheet
	if err := s.db.SelectContext(ctx, &sheets, query); err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}
	return sheets, nil
}

func (s *PostgresStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
