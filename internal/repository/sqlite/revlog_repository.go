package sqlite

import (
	"context"
	"database/sql"

	"github.com/marcusv/decksched/internal/logger"
	"github.com/marcusv/decksched/internal/models"
	"github.com/marcusv/decksched/internal/repository"
)

type revlogRepository struct {
	db *sql.DB
}

// NewReviewLogRepository creates a new ReviewLogRepository implementation
func NewReviewLogRepository(db *sql.DB) repository.ReviewLogRepository {
	return &revlogRepository{db: db}
}

func (r *revlogRepository) Record(ctx context.Context, entry models.ReviewLog) error {
	log := logger.FromContext(ctx).WithPrefix("revlog_repo")
	log.Debug("recording review: card_id=%d, grade=%s, kind=%d", entry.CardID, entry.Grade, entry.Kind)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO revlog (card_id, reviewed_at, grade, interval, last_interval, factor, took_seconds, kind)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, entry.CardID, entry.ReviewedAt, entry.Grade, entry.Interval, entry.LastInterval,
		entry.Factor, entry.TookSeconds, entry.Kind)
	if err != nil {
		log.Error("failed to record review: %v", err)
	}
	return err
}
