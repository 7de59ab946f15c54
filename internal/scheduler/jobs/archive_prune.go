package jobs

import (
	"context"
	"time"

	"github.com/wonny/stockdash/pkg/logger"
)

// Pruner deletes archived uploads older than a cutoff
type Pruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ArchivePruneJob enforces ARCHIVE_RETENTION on the upload archive
type ArchivePruneJob struct {
	pruner    Pruner
	retention time.Duration
	schedule  string
	logger    *logger.Logger
	now       func() time.Time
}

// NewArchivePruneJob creates a new archive prune job
func NewArchivePruneJob(pruner Pruner, retention time.Duration, schedule string, log *logger.Logger) *ArchivePruneJob {
	return &ArchivePruneJob{
		pruner:    pruner,
		retention: retention,
		schedule:  schedule,
		logger:    log,
		now:       time.Now,
	}
}

// Name returns the job name
func (j *ArchivePruneJob) Name() string {
	return "archive_prune"
}

// Schedule returns the cron schedule
func (j *ArchivePruneJob) Schedule() string {
	return j.schedule
}

// Run deletes uploads older than the retention period
func (j *ArchivePruneJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)

	removed, err := j.pruner.PruneBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if removed > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed": removed,
			"cutoff":  cutoff.UTC().Format(time.RFC3339),
		}).Info("Archive prune completed")
	}
	return nil
}
