package store

import (
	"context"
)

// SessionStatus is the stored lifecycle state of a quiz session.
type SessionStatus string

const (
	// SessionInProgress is the initial state of every session.
	SessionInProgress SessionStatus = "IN_PROGRESS"
	// SessionCompleted is the terminal state after a successful complete.
	SessionCompleted SessionStatus = "COMPLETED"
	// SessionExpired marks a session swept after its 24h window. Expiry is
	// primarily a derived state; this stored value only exists once the
	// housekeeping sweep has flipped it.
	SessionExpired SessionStatus = "EXPIRED"
)

func (s SessionStatus) String() string {
	return string(s)
}

// QuizSession is one user's attempt at a specific daily quiz.
type QuizSession struct {
	ID  int32
	UID string

	UserID int32
	QuizID int32

	// CurrentIndex is the 0-based pointer into the quiz's question list.
	CurrentIndex int32
	// Answers maps question id to the submitted answer string.
	Answers map[int32]string
	Status  SessionStatus
	// Timezone is the IANA label the session was started under; it pins the
	// date key used for completion and streak accounting.
	Timezone string

	StartTs        int64
	LastActivityTs int64
	CompletedTs    *int64
}

// AnsweredCount returns the number of distinct answered questions.
func (s *QuizSession) AnsweredCount() int {
	return len(s.Answers)
}

// FindQuizSession is the find condition for quiz sessions.
type FindQuizSession struct {
	ID     *int32
	UID    *string
	UserID *int32
	QuizID *int32
	Status *SessionStatus

	// StartedAfter restricts results to sessions started after the timestamp.
	StartedAfter *int64

	Limit *int
}

// UpdateQuizSession is the update request for a quiz session. Nil fields are
// left untouched; a nil Answers map means "no change".
type UpdateQuizSession struct {
	ID int32

	CurrentIndex   *int32
	Answers        map[int32]string
	Status         *SessionStatus
	LastActivityTs *int64
	CompletedTs    *int64
}

// CreateQuizSession creates a new session in the in_progress state.
func (s *Store) CreateQuizSession(ctx context.Context, create *QuizSession) (*QuizSession, error) {
	return s.driver.CreateQuizSession(ctx, create)
}

// ListQuizSessions lists sessions with filter.
func (s *Store) ListQuizSessions(ctx context.Context, find *FindQuizSession) ([]*QuizSession, error) {
	return s.driver.ListQuizSessions(ctx, find)
}

// GetQuizSession gets a single session, or nil when absent.
func (s *Store) GetQuizSession(ctx context.Context, find *FindQuizSession) (*QuizSession, error) {
	limit := 1
	find.Limit = &limit
	list, err := s.driver.ListQuizSessions(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateQuizSession updates a session.
func (s *Store) UpdateQuizSession(ctx context.Context, update *UpdateQuizSession) error {
	return s.driver.UpdateQuizSession(ctx, update)
}

// ExpireStaleSessions flips in_progress sessions started before cutoffTs to
// expired and returns the number of rows written. Lazy expiry makes this a
// housekeeping optimization, not a correctness requirement.
func (s *Store) ExpireStaleSessions(ctx context.Context, cutoffTs int64) (int64, error) {
	return s.driver.ExpireStaleSessions(ctx, cutoffTs)
}
