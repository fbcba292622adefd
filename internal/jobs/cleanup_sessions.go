package jobs

import (
	"context"
	"log/slog"
	"time"

	"mentorbook/internal/infra/db"
	"mentorbook/internal/pkg/clock"
	"mentorbook/internal/pkg/errs"
	"mentorbook/internal/usecase/shared"
)

// CleanupStaleSessionsJob ends session records still live well past their
// booking's scheduled end. These are leftovers from crashed clients that
// never sent a leave event.
type CleanupStaleSessionsJob struct {
	sessionRepo SessionRepository
	rooms       shared.VideoProvider
	db          shared.DB
	clock       clock.Clock
	interval    time.Duration
	maxAge      time.Duration
}

func NewCleanupStaleSessionsJob(
	sessionRepo SessionRepository,
	rooms shared.VideoProvider,
	db shared.DB,
	clock clock.Clock,
	interval, maxAge time.Duration,
) *CleanupStaleSessionsJob {
	return &CleanupStaleSessionsJob{
		sessionRepo: sessionRepo,
		rooms:       rooms,
		db:          db,
		clock:       clock,
		interval:    interval,
		maxAge:      maxAge,
	}
}

func (j *CleanupStaleSessionsJob) Name() string            { return "cleanup_stale_sessions" }
func (j *CleanupStaleSessionsJob) Interval() time.Duration { return j.interval }

func (j *CleanupStaleSessionsJob) Run(ctx context.Context) error {
	now := j.clock.Now()
	cutoff := now.Add(-j.maxAge)

	stale, err := j.sessionRepo.ListLivePastBookingEnd(ctx, j.db, cutoff, expireBatchSize)
	if err != nil {
		return errs.Wrap(err, "listing stale live sessions")
	}

	for _, s := range stale {
		if err := j.rooms.CompleteRoom(ctx, s.RoomName); err != nil {
			slog.Warn("stale room completion failed", "room", s.RoomName, "error", err)
			continue
		}
		sessionID := s.ID
		_, err := shared.WithDefaultRetry(ctx, j.db, func(tx db.DBTX) (struct{}, error) {
			return struct{}{}, j.sessionRepo.MarkEnded(ctx, tx, sessionID, now)
		})
		if err != nil {
			slog.Error("stale session cleanup failed", "session_id", sessionID, "error", err)
		}
	}
	if len(stale) > 0 {
		slog.Info("cleaned up stale sessions", "count", len(stale))
	}
	return nil
}
