package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// ErrAlreadyExists is returned by drivers when an insert hits a uniqueness
// constraint (daily quiz date key, completion event day slot). Callers treat
// it as "someone else got there first" and reread.
var ErrAlreadyExists = errors.New("already exists")

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Question model related methods.
	CreateQuestion(ctx context.Context, create *Question) (*Question, error)
	ListQuestions(ctx context.Context, find *FindQuestion) ([]*Question, error)
	CountQuestions(ctx context.Context, find *FindQuestion) (int, error)
	UpdateQuestion(ctx context.Context, update *UpdateQuestion) error

	// DailyQuiz model related methods.
	// CreateDailyQuiz returns ErrAlreadyExists on a date-key collision.
	CreateDailyQuiz(ctx context.Context, create *DailyQuiz) (*DailyQuiz, error)
	ListDailyQuizzes(ctx context.Context, find *FindDailyQuiz) ([]*DailyQuiz, error)
	DeleteDailyQuizzes(ctx context.Context, delete *DeleteDailyQuiz) (int64, error)

	// QuizSession model related methods.
	CreateQuizSession(ctx context.Context, create *QuizSession) (*QuizSession, error)
	ListQuizSessions(ctx context.Context, find *FindQuizSession) ([]*QuizSession, error)
	UpdateQuizSession(ctx context.Context, update *UpdateQuizSession) error
	ExpireStaleSessions(ctx context.Context, cutoffTs int64) (int64, error)

	// Streak model related methods.
	GetStreak(ctx context.Context, userID int32) (*Streak, error)
	UpsertStreak(ctx context.Context, upsert *Streak) (*Streak, error)
	// CreateCompletionEvent returns ErrAlreadyExists on a (user, date) collision.
	CreateCompletionEvent(ctx context.Context, create *CompletionEvent) (*CompletionEvent, error)
	ListCompletionEvents(ctx context.Context, find *FindCompletionEvent) ([]*CompletionEvent, error)

	// SpacedRepetitionEntry model related methods.
	UpsertSpacedRepetitionEntry(ctx context.Context, upsert *SpacedRepetitionEntry) (*SpacedRepetitionEntry, error)
	ListSpacedRepetitionEntries(ctx context.Context, find *FindSpacedRepetitionEntry) ([]*SpacedRepetitionEntry, error)
}
