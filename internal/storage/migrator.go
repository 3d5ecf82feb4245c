package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Commands accepted by Migrate.
const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
)

// MigrateCommands lists the commands Migrate accepts, in help order.
var MigrateCommands = []string{MigrateUp, MigrateDown, MigrateStatus}

func newProvider(db *sql.DB) (*goose.Provider, error) {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(goose.DialectPostgres, db, fsys)
}

// Migrate runs one goose command against the pricing_sheets schema: up
// applies everything pending, down rolls back the latest migration and
// status logs the state of each one.
func Migrate(ctx context.Context, db *sql.DB, command string, logger *zap.Logger) error {
	const operation = "storage.Migrate"

	if logger == nil {
		logger = zap.NewNop()
	}

	switch command {
	case MigrateUp, MigrateDown, MigrateStatus:
	default:
		return fmt.Errorf("%s: unknown command %q", operation, command)
	}

	provider, err := newProvider(db)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	switch command {
	case MigrateUp:
		results, err := provider.Up(ctx)
		for _, r := range results {
			logResult(logger, r)
		}
		if err != nil {
			return fmt.Errorf("%s: up: %w", operation, err)
		}
		logger.Info("Database migrations completed", zap.Int("applied", len(results)))

	case MigrateDown:
		result, err := provider.Down(ctx)
		if result != nil {
			logResult(logger, result)
		}
		if err != nil {
			return fmt.Errorf("%s: down: %w", operation, err)
		}

	case MigrateStatus:
		statuses, err := provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("%s: status: %w", operation, err)
		}
		for _, s := range statuses {
			logger.Info("Migration",
				zap.Int64("version", s.Source.Version),
				zap.String("path", s.Source.Path),
				zap.String("state", string(s.State)),
				zap.Time("applied_at", s.AppliedAt))
		}
	}
	return nil
}

func logResult(logger *zap.Logger, r *goose.MigrationResult) {
	fields := []zap.Field{
		zap.Int64("version", r.Source.Version),
		zap.String("direction", r.Direction),
		zap.Duration("duration", r.Duration),
	}
	if r.Error != nil {
		logger.Error("Migration failed", append(fields, zap.Error(r.Error))...)
		return
	}
	logger.Info("Migration applied", fields...)
}
