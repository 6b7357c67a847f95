// Package stats provides simple local usage statistics for the quiz engine.
// This is a lightweight alternative to an external metrics stack.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/quizdeck/quizdeck/store"
)

// Stats is a point-in-time snapshot of engine activity.
type Stats struct {
	// Question inventory
	TotalQuestions    int64
	ApprovedQuestions int64
	EasyQuestions     int64
	MediumQuestions   int64
	HardQuestions     int64

	// Quiz output
	QuizzesLastWeek int64

	// Engagement
	SessionsLastWeek    int64
	CompletionsLastWeek int64

	LastUpdated time.Time
}

// Store is the interface for store operations needed by the collector.
type Store interface {
	CountQuestions(ctx context.Context, find *store.FindQuestion) (int, error)
	ListDailyQuizzes(ctx context.Context, find *store.FindDailyQuiz) ([]*store.DailyQuiz, error)
	ListQuizSessions(ctx context.Context, find *store.FindQuizSession) ([]*store.QuizSession, error)
	ListCompletionEvents(ctx context.Context, find *store.FindCompletionEvent) ([]*store.CompletionEvent, error)
}

// Collector gathers and caches engine statistics.
type Collector struct {
	store    Store
	mu       sync.Mutex
	stats    Stats
	tickStop chan struct{}
	stopOnce sync.Once
}

// NewCollector creates a new statistics collector.
func NewCollector(s Store) *Collector {
	return &Collector{
		store:    s,
		tickStop: make(chan struct{}),
	}
}

// Start begins hourly collection in the background.
func (c *Collector) Start(ctx context.Context) {
	c.Collect(ctx)

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Collect(ctx)
			case <-ctx.Done():
				return
			case <-c.tickStop:
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.tickStop) })
}

// GetStats returns a copy of the current snapshot.
func (c *Collector) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Collect refreshes the snapshot from the store. Individual query failures
// leave the previous value of that figure in place.
func (c *Collector) Collect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7).Unix()

	if n, err := c.store.CountQuestions(ctx, &store.FindQuestion{}); err == nil {
		c.stats.TotalQuestions = int64(n)
	}
	if n, err := c.store.CountQuestions(ctx, &store.FindQuestion{ApprovedOnly: true}); err == nil {
		c.stats.ApprovedQuestions = int64(n)
	}
	counts := []struct {
		difficulty store.Difficulty
		target     *int64
	}{
		{store.Easy, &c.stats.EasyQuestions},
		{store.Medium, &c.stats.MediumQuestions},
		{store.Hard, &c.stats.HardQuestions},
	}
	for _, entry := range counts {
		if n, err := c.store.CountQuestions(ctx, &store.FindQuestion{
			ApprovedOnly: true,
			Difficulties: []store.Difficulty{entry.difficulty},
		}); err == nil {
			*entry.target = int64(n)
		}
	}

	if quizzes, err := c.store.ListDailyQuizzes(ctx, &store.FindDailyQuiz{}); err == nil {
		var n int64
		for _, quiz := range quizzes {
			if quiz.CreatedTs >= weekAgo {
				n++
			}
		}
		c.stats.QuizzesLastWeek = n
	}
	if sessions, err := c.store.ListQuizSessions(ctx, &store.FindQuizSession{StartedAfter: &weekAgo}); err == nil {
		c.stats.SessionsLastWeek = int64(len(sessions))
	}
	if events, err := c.store.ListCompletionEvents(ctx, &store.FindCompletionEvent{}); err == nil {
		var n int64
		for _, event := range events {
			if event.CreatedTs >= weekAgo {
				n++
			}
		}
		c.stats.CompletionsLastWeek = n
	}

	c.stats.LastUpdated = now
}
