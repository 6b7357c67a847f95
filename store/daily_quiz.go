package store

import (
	"context"
	"fmt"
)

// DailyQuiz is the object representing the one quiz published for a date key.
// A daily quiz is immutable after creation and garbage-collected after the
// retention window.
type DailyQuiz struct {
	ID        int32
	UID       string
	CreatedTs int64

	// DateKey is the logical publication day ("2006-01-02"), relative to the
	// requesting caller's timezone. Unique across the table.
	DateKey string
	// QuestionIDs is the fixed, ordered question list of the quiz.
	QuestionIDs []int32
}

// Len returns the number of questions in the quiz.
func (q *DailyQuiz) Len() int {
	return len(q.QuestionIDs)
}

// FindDailyQuiz is the find condition for daily quizzes.
type FindDailyQuiz struct {
	ID       *int32
	UID      *string
	DateKey  *string
	DateKeys []string

	Limit *int
}

// DeleteDailyQuiz is the delete request for daily quizzes. Used by the
// retention sweep only.
type DeleteDailyQuiz struct {
	// CreatedBefore deletes quizzes created before the given timestamp.
	CreatedBefore int64
}

func dailyQuizCacheKey(dateKey string) string {
	return fmt.Sprintf("daily_quiz:%s", dateKey)
}

// CreateDailyQuiz persists a new daily quiz. Returns ErrAlreadyExists when a
// quiz for the date key was created concurrently; callers are expected to
// reread instead of surfacing the conflict.
func (s *Store) CreateDailyQuiz(ctx context.Context, create *DailyQuiz) (*DailyQuiz, error) {
	quiz, err := s.driver.CreateDailyQuiz(ctx, create)
	if err != nil {
		return nil, err
	}
	s.dailyQuizCache.Set(dailyQuizCacheKey(quiz.DateKey), quiz)
	return quiz, nil
}

// GetDailyQuiz gets the quiz for a find condition, or nil when absent.
// Lookups by date key are served from the cache when possible; a daily quiz
// is immutable, so a cached copy never goes stale before the retention sweep.
func (s *Store) GetDailyQuiz(ctx context.Context, find *FindDailyQuiz) (*DailyQuiz, error) {
	if find.DateKey != nil {
		if cached, ok := s.dailyQuizCache.Get(dailyQuizCacheKey(*find.DateKey)); ok {
			if quiz, ok := cached.(*DailyQuiz); ok {
				return quiz, nil
			}
		}
	}

	limit := 1
	find.Limit = &limit
	list, err := s.driver.ListDailyQuizzes(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	quiz := list[0]
	s.dailyQuizCache.Set(dailyQuizCacheKey(quiz.DateKey), quiz)
	return quiz, nil
}

// ListDailyQuizzes lists daily quizzes with filter.
func (s *Store) ListDailyQuizzes(ctx context.Context, find *FindDailyQuiz) ([]*DailyQuiz, error) {
	return s.driver.ListDailyQuizzes(ctx, find)
}

// DeleteDailyQuizzes removes quizzes past retention and returns the count.
func (s *Store) DeleteDailyQuizzes(ctx context.Context, delete *DeleteDailyQuiz) (int64, error) {
	n, err := s.driver.DeleteDailyQuizzes(ctx, delete)
	if err != nil {
		return 0, err
	}
	// Retained keys are unknown here; drop the whole cache rather than track them.
	s.dailyQuizCache.Clear()
	return n, nil
}
