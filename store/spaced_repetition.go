package store

import (
	"context"
)

// SpacedRepetitionEntry is the per (user, question) review state. Only the
// adaptive scheduler writes it.
type SpacedRepetitionEntry struct {
	ID int32

	UserID     int32
	QuestionID int32

	// EaseFactor is the SM-2 ease factor (2.5 initial, 1.3 floor).
	EaseFactor float64
	// IntervalDays is the current review interval.
	IntervalDays int32
	// Repetitions counts how often the question has been reviewed.
	Repetitions int32

	DueTs        int64
	LastReviewTs int64
}

// FindSpacedRepetitionEntry is the find condition for review states.
// Results are ordered earliest due first.
type FindSpacedRepetitionEntry struct {
	UserID     *int32
	QuestionID *int32
	// DueBefore restricts results to entries due before the timestamp.
	DueBefore *int64

	Limit *int
}

// UpsertSpacedRepetitionEntry writes the review state for a (user, question)
// pair, keyed by the pair's uniqueness constraint.
func (s *Store) UpsertSpacedRepetitionEntry(ctx context.Context, upsert *SpacedRepetitionEntry) (*SpacedRepetitionEntry, error) {
	return s.driver.UpsertSpacedRepetitionEntry(ctx, upsert)
}

// ListSpacedRepetitionEntries lists review states with filter.
func (s *Store) ListSpacedRepetitionEntries(ctx context.Context, find *FindSpacedRepetitionEntry) ([]*SpacedRepetitionEntry, error) {
	return s.driver.ListSpacedRepetitionEntries(ctx, find)
}

// GetSpacedRepetitionEntry gets the review state for one (user, question)
// pair, or nil when the question was never answered.
func (s *Store) GetSpacedRepetitionEntry(ctx context.Context, userID, questionID int32) (*SpacedRepetitionEntry, error) {
	limit := 1
	list, err := s.driver.ListSpacedRepetitionEntries(ctx, &FindSpacedRepetitionEntry{
		UserID:     &userID,
		QuestionID: &questionID,
		Limit:      &limit,
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}
