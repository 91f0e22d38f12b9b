package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"code-review-market/repository"
)

// NotificationCleanupJob prunes read notifications past their retention window.
// Unread notifications are never removed.
type NotificationCleanupJob struct {
	repo      repository.NotificationsRepo
	log       *zap.Logger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

func NewNotificationCleanupJob(repo repository.NotificationsRepo, log *zap.Logger, retentionDays, intervalMinutes int) *NotificationCleanupJob {
	if retentionDays < 1 {
		retentionDays = 1
	}
	if intervalMinutes < 1 {
		intervalMinutes = 1
	}
	return &NotificationCleanupJob{
		repo:      repo,
		log:       log,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  time.Duration(intervalMinutes) * time.Minute,
		now:       time.Now,
	}
}

// Start runs the job in the background until ctx is cancelled.
func (j *NotificationCleanupJob) Start(ctx context.Context) {
	go j.run(ctx)
	j.log.Info("notification cleanup job started",
		zap.Duration("retention", j.retention),
		zap.Duration("interval", j.interval),
	)
}

func (j *NotificationCleanupJob) run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil {
				j.log.Error("notification cleanup failed", zap.Error(err))
			}
		case <-ctx.Done():
			j.log.Info("notification cleanup job stopped")
			return
		}
	}
}

// RunOnce deletes every read notification older than the retention window
// and returns how many rows went.
func (j *NotificationCleanupJob) RunOnce(ctx context.Context) (int64, error) {
	cutoff := j.now().Add(-j.retention)
	n, err := j.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		j.log.Info("pruned old notifications", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}
