package store

import (
	"context"
)

// Streak is the per-user consecutive-day completion record. Only the scoring
// calculator writes it.
type Streak struct {
	UserID int32

	Current int32
	Longest int32
	// LastDateKey is the user-local date key of the last counted completion.
	LastDateKey string
	UpdatedTs   int64
}

// CompletionEvent records the first completion of a daily quiz per user per
// date key. The (user_id, date_key) uniqueness constraint is what makes the
// streak increment at-most-once per day: inserting the event is the atomic
// claim, and the loser of a concurrent race gets ErrAlreadyExists.
type CompletionEvent struct {
	ID        int32
	UserID    int32
	QuizID    int32
	SessionID int32
	DateKey   string
	CreatedTs int64
}

// FindCompletionEvent is the find condition for completion events.
type FindCompletionEvent struct {
	UserID  *int32
	DateKey *string
	Limit   *int
}

// GetStreak returns the user's streak, or nil when the user has none yet.
func (s *Store) GetStreak(ctx context.Context, userID int32) (*Streak, error) {
	return s.driver.GetStreak(ctx, userID)
}

// UpsertStreak writes the user's streak record.
func (s *Store) UpsertStreak(ctx context.Context, upsert *Streak) (*Streak, error) {
	return s.driver.UpsertStreak(ctx, upsert)
}

// CreateCompletionEvent claims the (user, date key) completion slot.
// Returns ErrAlreadyExists when the slot was already claimed.
func (s *Store) CreateCompletionEvent(ctx context.Context, create *CompletionEvent) (*CompletionEvent, error) {
	return s.driver.CreateCompletionEvent(ctx, create)
}

// ListCompletionEvents lists completion events with filter.
func (s *Store) ListCompletionEvents(ctx context.Context, find *FindCompletionEvent) ([]*CompletionEvent, error) {
	return s.driver.ListCompletionEvents(ctx, find)
}
