// Package sweeper hosts the housekeeping runner: it flips stale in-progress
// sessions to expired and prunes quizzes past their retention window.
// Correctness never depends on it running; session expiry is derived lazily
// on read, the sweep just keeps the stored rows honest.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/quizdeck/quizdeck/server/service/session"
	"github.com/quizdeck/quizdeck/store"
)

// Store is the interface for store operations needed by the sweeper.
type Store interface {
	ExpireStaleSessions(ctx context.Context, cutoffTs int64) (int64, error)
	DeleteDailyQuizzes(ctx context.Context, delete *store.DeleteDailyQuiz) (int64, error)
}

type Runner struct {
	store         Store
	interval      time.Duration
	retentionDays int

	now func() time.Time
}

// NewRunner creates a housekeeping runner. Quizzes older than retentionDays
// are deleted on each sweep; retentionDays <= 0 disables pruning.
func NewRunner(s Store, retentionDays int) *Runner {
	return &Runner{
		store:         s,
		interval:      15 * time.Minute,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// Run starts the background task.
func (r *Runner) Run(ctx context.Context) {
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			slog.Info("sweeper runner stopped")
			return
		}
	}
}

// RunOnce performs one sweep.
func (r *Runner) RunOnce(ctx context.Context) {
	now := r.now()

	expired, err := r.store.ExpireStaleSessions(ctx, now.Add(-session.TTL).Unix())
	if err != nil {
		slog.Error("failed to expire stale sessions", "error", err)
	} else if expired > 0 {
		slog.Info("expired stale sessions", "count", expired)
	}

	if r.retentionDays <= 0 {
		return
	}
	cutoff := now.AddDate(0, 0, -r.retentionDays).Unix()
	pruned, err := r.store.DeleteDailyQuizzes(ctx, &store.DeleteDailyQuiz{CreatedBefore: cutoff})
	if err != nil {
		slog.Error("failed to prune old quizzes", "error", err)
	} else if pruned > 0 {
		slog.Info("pruned old quizzes", "count", pruned)
	}
}
