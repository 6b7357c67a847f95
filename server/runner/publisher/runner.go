// Package publisher eagerly generates the daily quiz for each configured
// timezone shortly after local midnight, so the first session of the day
// never pays the generation cost. Generation stays idempotent; if the
// publisher is down, the first start-session call creates the quiz instead.
package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/quizdeck/quizdeck/server/timezone"
	"github.com/quizdeck/quizdeck/store"
)

// QuizProvider resolves the daily quiz for a date key, creating it when
// absent.
type QuizProvider interface {
	GetOrCreateDailyQuiz(ctx context.Context, dateKey string) (*store.DailyQuiz, error)
}

type Runner struct {
	quizzes   QuizProvider
	timezones []string
	interval  time.Duration

	now func() time.Time
}

// NewRunner creates a publisher covering the given IANA timezones. Unknown
// labels are skipped at publish time with a warning.
func NewRunner(quizzes QuizProvider, timezones []string) *Runner {
	if len(timezones) == 0 {
		timezones = []string{"UTC"}
	}
	return &Runner{
		quizzes:   quizzes,
		timezones: timezones,
		interval:  time.Hour,
		now:       time.Now,
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
			slog.Info("publisher runner stopped")
			return
		}
	}
}

// RunOnce publishes the current date key of every configured timezone.
// Distinct timezones often share a date key; generation being idempotent
// makes the duplicates free.
func (r *Runner) RunOnce(ctx context.Context) {
	now := r.now()
	published := map[string]bool{}
	for _, tz := range r.timezones {
		loc, err := timezone.ParseTimezone(tz)
		if err != nil {
			slog.Warn("skipping unknown publish timezone", "timezone", tz)
			continue
		}
		dateKey := timezone.DateKey(now, loc)
		if published[dateKey] {
			continue
		}
		published[dateKey] = true

		if _, err := r.quizzes.GetOrCreateDailyQuiz(ctx, dateKey); err != nil {
			slog.Error("failed to publish daily quiz", "date_key", dateKey, "error", err)
			continue
		}
		slog.Debug("daily quiz published", "date_key", dateKey, "timezone", tz)
	}
}
