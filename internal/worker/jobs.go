package worker

import (
	"context"
	"database/sql"

	"github.com/marcusv/decksched/internal/services"
)

// ResetSchedulerJob rebuilds the study queues. Submitted at startup and
// at every day rollover so counts flip over without waiting for the next
// request.
type ResetSchedulerJob struct {
	Study services.StudyService
}

func (j *ResetSchedulerJob) Name() string { return "scheduler-reset" }

func (j *ResetSchedulerJob) Run(ctx context.Context) error {
	return j.Study.Reset(ctx)
}

// CheckpointJob compacts the SQLite write-ahead log and refreshes the
// query planner statistics during quiet periods.
type CheckpointJob struct {
	DB *sql.DB
}

func (j *CheckpointJob) Name() string { return "db-checkpoint" }

func (j *CheckpointJob) Run(ctx context.Context) error {
	if _, err := j.DB.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return err
	}
	_, err := j.DB.ExecContext(ctx, `PRAGMA optimize`)
	return err
}
