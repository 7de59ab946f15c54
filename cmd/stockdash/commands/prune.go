package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockdash/internal/archive"
	"github.com/wonny/stockdash/internal/scheduler"
	"github.com/wonny/stockdash/internal/scheduler/jobs"
	"github.com/wonny/stockdash/pkg/database"
	"github.com/wonny/stockdash/pkg/logger"
)

// pruneCmd represents the prune command
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete archived uploads older than a cutoff",
	Long: `Delete archived uploads (and their rows) older than --older-than.
Defaults to ARCHIVE_RETENTION. Requires DATABASE_URL.

Example:
  go run ./cmd/stockdash prune --older-than 168h`,
	RunE: runPrune,
}

var (
	pruneOlderThan time.Duration
)

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "retention window (default ARCHIVE_RETENTION)")
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.Database.Enabled() {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	retention := cfg.Archive.Retention
	if pruneOlderThan > 0 {
		retention = pruneOlderThan
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	result, err := pruneArchive(archive.NewRepository(db.Pool), retention, cfg.Archive.PruneSchedule, log)
	if err != nil {
		return err
	}

	log.Infof("Archive pruned (retention %s, %d attempts)", retention, result.Attempts)
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Pruned uploads older than %s in %s\n", retention, result.Duration.Round(time.Millisecond))
	return nil
}

// pruneArchive runs the archive prune job once through a scheduler, so the
// CLI gets the same retries and logging as the scheduled run
func pruneArchive(pruner jobs.Pruner, retention time.Duration, schedule string, log *logger.Logger) (scheduler.JobResult, error) {
	sched := scheduler.New(log).WithRetry(2, 5*time.Second)
	job := jobs.NewArchivePruneJob(pruner, retention, schedule, log)
	if err := sched.AddJob(job); err != nil {
		return scheduler.JobResult{}, fmt.Errorf("register prune job: %w", err)
	}

	result, err := sched.RunNow(job.Name())
	if err != nil {
		return result, err
	}
	if !result.Success {
		return result, fmt.Errorf("prune archive failed after %d attempts: %s", result.Attempts, result.Error)
	}
	return result, nil
}
