package cron

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vestnik-bot/vestnik/internal/store"
)

// Publisher is the subset of the moderation publisher needed by the sweep.
// Defined here to avoid a dependency on the moderation package.
type Publisher interface {
	Publish(ctx context.Context, app *store.Application) error
}

// SessionPruner is the subset of the flow session store needed by cron jobs.
type SessionPruner interface {
	Prune(maxIdle time.Duration) int
}

// publishPause spaces out channel posts so a large backlog does not hit
// Telegram's per-chat rate limit.
const publishPause = 500 * time.Millisecond

// PublishSweepJob delivers approved applications whose publish date has
// arrived. Failures are logged and retried on the next sweep.
type PublishSweepJob struct {
	Apps         store.Store
	Publisher    Publisher
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/2 * * * *"
}

// Compile-time interface check.
var _ Job = (*PublishSweepJob)(nil)

// Name implements Job.
func (j *PublishSweepJob) Name() string { return "publish_sweep" }

// Schedule implements Job.
func (j *PublishSweepJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/2 * * * *"
}

// Run publishes every due application, continuing past individual failures.
func (j *PublishSweepJob) Run(ctx context.Context) error {
	ctx, span := otel.Tracer("cron").Start(ctx, "cron.publish_sweep")
	defer span.End()

	due, err := j.Apps.ApprovedUnpublished(ctx, time.Now())
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	var published int
	for i := range due {
		if ctx.Err() != nil {
			break
		}
		if err := j.Publisher.Publish(ctx, &due[i]); err != nil {
			j.Logger.Error("cron: publish failed, will retry next sweep",
				"app_id", due[i].ID,
				"error", err,
			)
			continue
		}
		published++

		if i < len(due)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(publishPause):
			}
		}
	}

	span.SetAttributes(
		attribute.Int("sweep.due", len(due)),
		attribute.Int("sweep.published", published),
	)
	if published > 0 {
		j.Logger.Info("cron: publish sweep done", "published", published, "due", len(due))
	}
	return nil
}

// RetentionJob deletes rejected and published applications older than the
// retention period.
type RetentionJob struct {
	Apps         store.Store
	Retention    time.Duration // empty = default 30 days
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 4 * * 1" (weekly)
}

// Compile-time interface check.
var _ Job = (*RetentionJob)(nil)

// Name implements Job.
func (j *RetentionJob) Name() string { return "retention" }

// Schedule implements Job.
func (j *RetentionJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 4 * * 1"
}

// Run purges finished applications past their retention period.
func (j *RetentionJob) Run(ctx context.Context) error {
	retention := j.Retention
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}

	removed, err := j.Apps.PurgeTerminal(ctx, retention)
	if err != nil {
		return err
	}
	if removed > 0 {
		j.Logger.Info("cron: purged finished applications", "count", removed)
	}
	return nil
}

// SessionPruneJob removes form sessions that have been idle longer than MaxIdle.
type SessionPruneJob struct {
	Sessions     SessionPruner
	MaxIdle      time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/10 * * * *"
}

// Compile-time interface check.
var _ Job = (*SessionPruneJob)(nil)

// Name implements Job.
func (j *SessionPruneJob) Name() string { return "session_prune" }

// Schedule implements Job.
func (j *SessionPruneJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/10 * * * *"
}

// Run prunes sessions idle longer than MaxIdle.
func (j *SessionPruneJob) Run(_ context.Context) error {
	pruned := j.Sessions.Prune(j.MaxIdle)
	if pruned > 0 {
		j.Logger.Info("cron: pruned abandoned sessions", "count", pruned)
	}
	return nil
}
