package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/campaign-scorer/pkg/logger"
)

// Pruner deletes stored predictions older than a retention window
type Pruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// HistoryPruneJob enforces prediction history retention
type HistoryPruneJob struct {
	pruner    Pruner
	retention time.Duration
	schedule  string
	logger    *logger.Logger
}

// NewHistoryPruneJob creates a new history prune job
func NewHistoryPruneJob(pruner Pruner, retention time.Duration, schedule string, log *logger.Logger) *HistoryPruneJob {
	return &HistoryPruneJob{
		pruner:    pruner,
		retention: retention,
		schedule:  schedule,
		logger:    log.Component("jobs.history_prune"),
	}
}

// Name returns the job name
func (j *HistoryPruneJob) Name() string {
	return "history_prune"
}

// Schedule returns the cron schedule
func (j *HistoryPruneJob) Schedule() string {
	return j.schedule
}

// Run deletes history older than the retention window
func (j *HistoryPruneJob) Run(ctx context.Context) error {
	if j.retention <= 0 {
		return fmt.Errorf("history retention must be positive, got %s", j.retention)
	}

	j.logger.Debug("Starting scheduled history prune")

	removed, err := j.pruner.Prune(ctx, j.retention)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}

	if removed > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed":   removed,
			"retention": j.retention.String(),
		}).Info("History prune completed")
	}

	return nil
}
