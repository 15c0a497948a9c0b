package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"

	"github.com/marcusv/decksched/internal/logger"
)

// Helper functions shared across repository implementations

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

func tx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	log := logger.FromContext(ctx).WithPrefix("repo")
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction: %v", err)
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		log.Debug("transaction rolled back due to error: %v", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction: %v", err)
		return err
	}
	return nil
}
