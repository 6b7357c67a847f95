// Package session implements the quiz session state machine: starting,
// answering, completing, and expiring a user's attempt at a daily quiz.
//
// A session is in_progress, completed, or expired. Expiry is lazy: the
// 24-hour window is evaluated from timestamps on every read, and the stored
// status is flipped opportunistically when a stale session is touched.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/lithammer/shortuuid/v4"

	engineerrors "github.com/quizdeck/quizdeck/server/internal/errors"
	"github.com/quizdeck/quizdeck/server/service/scoring"
	"github.com/quizdeck/quizdeck/server/timezone"
	"github.com/quizdeck/quizdeck/store"
)

const (
	// TTL is how long a session stays answerable after it starts.
	TTL = 24 * time.Hour
	// InactivityWarningAfter is the idle period after which reads of an
	// in-progress session carry a warning flag.
	InactivityWarningAfter = time.Hour
)

// Store is the interface for store operations needed by the state machine.
type Store interface {
	CreateQuizSession(ctx context.Context, create *store.QuizSession) (*store.QuizSession, error)
	GetQuizSession(ctx context.Context, find *store.FindQuizSession) (*store.QuizSession, error)
	UpdateQuizSession(ctx context.Context, update *store.UpdateQuizSession) error
	GetDailyQuiz(ctx context.Context, find *store.FindDailyQuiz) (*store.DailyQuiz, error)
	ListQuestions(ctx context.Context, find *store.FindQuestion) ([]*store.Question, error)
	ListCompletionEvents(ctx context.Context, find *store.FindCompletionEvent) ([]*store.CompletionEvent, error)
}

// QuizProvider resolves the daily quiz for a date key, creating it when
// absent.
type QuizProvider interface {
	GetOrCreateDailyQuiz(ctx context.Context, dateKey string) (*store.DailyQuiz, error)
}

// Finalizer scores a finished session and applies the streak update.
type Finalizer interface {
	Finalize(ctx context.Context, session *store.QuizSession, quiz *store.DailyQuiz, questions map[int32]*store.Question, now time.Time) (*scoring.QuizResult, error)
}

// OutcomeRecorder feeds per-question results into the review scheduler.
// Recording is best-effort: errors are logged by the caller and swallowed.
type OutcomeRecorder interface {
	RecordQuizResult(ctx context.Context, userID int32, result *scoring.QuizResult) error
}

// State is a session together with its derived read-time attributes.
type State struct {
	Session *store.QuizSession
	// Status is the effective status, which may be expired even while the
	// stored row still says in_progress.
	Status store.SessionStatus
	// InactivityWarning is set on in-progress sessions idle for over an hour.
	InactivityWarning bool
	TotalQuestions    int
}

// Service drives quiz sessions through their lifecycle.
type Service struct {
	store    Store
	quizzes  QuizProvider
	scorer   Finalizer
	recorder OutcomeRecorder

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates a new session state machine.
func NewService(s Store, quizzes QuizProvider, scorer Finalizer) *Service {
	return &Service{
		store:   s,
		quizzes: quizzes,
		scorer:  scorer,
		now:     time.Now,
	}
}

// WithOutcomeRecorder attaches a best-effort review outcome sink.
func (s *Service) WithOutcomeRecorder(r OutcomeRecorder) *Service {
	s.recorder = r
	return s
}

// EffectiveStatus derives the status of a session at the given instant.
// An in-progress session past its 24-hour window is expired regardless of
// what the stored row says.
func EffectiveStatus(session *store.QuizSession, now time.Time) store.SessionStatus {
	if session.Status == store.SessionInProgress && now.Sub(time.Unix(session.StartTs, 0)) >= TTL {
		return store.SessionExpired
	}
	return session.Status
}

// Start begins (or resumes) the user's session for today's quiz in the given
// timezone. A live in-progress session for the same quiz is returned as-is;
// a day the user already completed is a conflict.
func (s *Service) Start(ctx context.Context, userID int32, tz string) (*State, error) {
	loc, err := timezone.ParseTimezone(tz)
	if err != nil {
		return nil, engineerrors.InvalidArgumentf("invalid timezone %q", tz)
	}
	now := s.now()
	dateKey := timezone.DateKey(now, loc)

	events, err := s.store.ListCompletionEvents(ctx, &store.FindCompletionEvent{
		UserID:  &userID,
		DateKey: &dateKey,
	})
	if err != nil {
		return nil, engineerrors.Internal("failed to check completion history", err)
	}
	if len(events) > 0 {
		return nil, engineerrors.Conflictf("daily quiz for %s already completed", dateKey)
	}

	quiz, err := s.quizzes.GetOrCreateDailyQuiz(ctx, dateKey)
	if err != nil {
		return nil, err
	}

	inProgress := store.SessionInProgress
	existing, err := s.store.GetQuizSession(ctx, &store.FindQuizSession{
		UserID: &userID,
		QuizID: &quiz.ID,
		Status: &inProgress,
	})
	if err != nil {
		return nil, engineerrors.Internal("failed to look up active session", err)
	}
	if existing != nil {
		if EffectiveStatus(existing, now) == store.SessionInProgress {
			return s.stateOf(existing, now, len(quiz.QuestionIDs)), nil
		}
		if err := s.flipExpired(ctx, existing); err != nil {
			return nil, err
		}
	}

	session, err := s.store.CreateQuizSession(ctx, &store.QuizSession{
		UID:            shortuuid.New(),
		UserID:         userID,
		QuizID:         quiz.ID,
		CurrentIndex:   0,
		Answers:        map[int32]string{},
		Status:         store.SessionInProgress,
		Timezone:       tz,
		StartTs:        now.Unix(),
		LastActivityTs: now.Unix(),
	})
	if err == store.ErrAlreadyExists {
		// Lost a concurrent start; the other caller's session wins. The
		// partial unique index on (user_id, quiz_id, in-progress) is the
		// source of truth here, not the lookup above.
		winner, rerr := s.store.GetQuizSession(ctx, &store.FindQuizSession{
			UserID: &userID,
			QuizID: &quiz.ID,
			Status: &inProgress,
		})
		if rerr != nil {
			return nil, engineerrors.Internal("failed to reread session after conflict", rerr)
		}
		if winner == nil {
			return nil, engineerrors.Internal("session vanished after insert conflict", nil)
		}
		return s.stateOf(winner, now, len(quiz.QuestionIDs)), nil
	}
	if err != nil {
		return nil, engineerrors.Internal("failed to create session", err)
	}
	return s.stateOf(session, now, len(quiz.QuestionIDs)), nil
}

// Get returns the session with derived status and the inactivity warning.
func (s *Service) Get(ctx context.Context, userID int32, sessionUID string) (*State, error) {
	now := s.now()
	session, err := s.loadOwned(ctx, userID, sessionUID, now)
	if err != nil {
		return nil, err
	}
	quiz, err := s.quizOf(ctx, session)
	if err != nil {
		return nil, err
	}
	return s.stateOf(session, now, len(quiz.QuestionIDs)), nil
}

// RecordAnswer upserts the answer for one question of the session's quiz.
// Re-answering a question overwrites the previous answer (last write wins).
// When advance is set, the current index moves forward by one, capped at the
// quiz length; the increment fires once per call, so the upsert itself is
// idempotent.
func (s *Service) RecordAnswer(ctx context.Context, userID int32, sessionUID string, questionID int32, answer string, advance bool) (*State, error) {
	now := s.now()
	session, err := s.loadOwned(ctx, userID, sessionUID, now)
	if err != nil {
		return nil, err
	}
	if err := s.requireInProgress(session, now); err != nil {
		return nil, err
	}

	quiz, err := s.quizOf(ctx, session)
	if err != nil {
		return nil, err
	}
	position := indexOf(quiz.QuestionIDs, questionID)
	if position < 0 {
		return nil, engineerrors.InvalidArgumentf("question %d is not part of this quiz", questionID)
	}

	if session.Answers == nil {
		session.Answers = map[int32]string{}
	}
	session.Answers[questionID] = answer

	currentIndex := session.CurrentIndex
	if advance {
		if currentIndex++; currentIndex > int32(len(quiz.QuestionIDs)) {
			currentIndex = int32(len(quiz.QuestionIDs))
		}
	}
	session.CurrentIndex = currentIndex
	session.LastActivityTs = now.Unix()

	if err := s.store.UpdateQuizSession(ctx, &store.UpdateQuizSession{
		ID:             session.ID,
		CurrentIndex:   &currentIndex,
		Answers:        session.Answers,
		LastActivityTs: &session.LastActivityTs,
	}); err != nil {
		return nil, engineerrors.Internal("failed to record answer", err)
	}
	return s.stateOf(session, now, len(quiz.QuestionIDs)), nil
}

// Complete finishes the session and returns its scored result. Final answers
// are merged over previously recorded ones (final submission wins). Unless
// force is set, every question must be answered.
func (s *Service) Complete(ctx context.Context, userID int32, sessionUID string, finalAnswers map[int32]string, force bool) (*scoring.QuizResult, error) {
	now := s.now()
	session, err := s.loadOwned(ctx, userID, sessionUID, now)
	if err != nil {
		return nil, err
	}
	if err := s.requireInProgress(session, now); err != nil {
		return nil, err
	}

	quiz, err := s.quizOf(ctx, session)
	if err != nil {
		return nil, err
	}

	if session.Answers == nil {
		session.Answers = map[int32]string{}
	}
	for questionID, answer := range finalAnswers {
		if indexOf(quiz.QuestionIDs, questionID) < 0 {
			return nil, engineerrors.InvalidArgumentf("question %d is not part of this quiz", questionID)
		}
		session.Answers[questionID] = answer
	}

	if !force {
		if remaining := len(quiz.QuestionIDs) - session.AnsweredCount(); remaining > 0 {
			return nil, engineerrors.Unprocessablef("%d questions remain unanswered", remaining)
		}
	}

	questions, err := s.questionsOf(ctx, quiz)
	if err != nil {
		return nil, err
	}

	// Score and claim the streak before flipping the row: the completion
	// event is idempotent, so a retry after a partial failure converges
	// without double-counting.
	result, err := s.scorer.Finalize(ctx, session, quiz, questions, now)
	if err != nil {
		return nil, err
	}

	completed := store.SessionCompleted
	completedTs := now.Unix()
	if err := s.store.UpdateQuizSession(ctx, &store.UpdateQuizSession{
		ID:             session.ID,
		Answers:        session.Answers,
		Status:         &completed,
		LastActivityTs: &completedTs,
		CompletedTs:    &completedTs,
	}); err != nil {
		return nil, engineerrors.Internal("failed to complete session", err)
	}

	if s.recorder != nil {
		if err := s.recorder.RecordQuizResult(ctx, userID, result); err != nil {
			slog.Warn("failed to record review outcomes", "session_uid", session.UID, "error", err)
		}
	}

	return result, nil
}

// loadOwned fetches the session, enforces ownership, and applies lazy
// expiry to the stored row.
func (s *Service) loadOwned(ctx context.Context, userID int32, sessionUID string, now time.Time) (*store.QuizSession, error) {
	session, err := s.store.GetQuizSession(ctx, &store.FindQuizSession{UID: &sessionUID})
	if err != nil {
		return nil, engineerrors.Internal("failed to load session", err)
	}
	if session == nil {
		return nil, engineerrors.NotFoundf("session %s not found", sessionUID)
	}
	if session.UserID != userID {
		return nil, engineerrors.Forbidden("session belongs to another user")
	}
	if session.Status == store.SessionInProgress && EffectiveStatus(session, now) == store.SessionExpired {
		if err := s.flipExpired(ctx, session); err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (s *Service) requireInProgress(session *store.QuizSession, now time.Time) error {
	switch EffectiveStatus(session, now) {
	case store.SessionCompleted:
		return engineerrors.Conflictf("session %s is already completed", session.UID)
	case store.SessionExpired:
		return engineerrors.Gonef("session %s has expired", session.UID)
	}
	return nil
}

// flipExpired persists the derived expired status.
func (s *Service) flipExpired(ctx context.Context, session *store.QuizSession) error {
	expired := store.SessionExpired
	if err := s.store.UpdateQuizSession(ctx, &store.UpdateQuizSession{
		ID:     session.ID,
		Status: &expired,
	}); err != nil {
		return engineerrors.Internal("failed to expire session", err)
	}
	session.Status = store.SessionExpired
	return nil
}

func (s *Service) quizOf(ctx context.Context, session *store.QuizSession) (*store.DailyQuiz, error) {
	quiz, err := s.store.GetDailyQuiz(ctx, &store.FindDailyQuiz{ID: &session.QuizID})
	if err != nil {
		return nil, engineerrors.Internal("failed to load quiz", err)
	}
	if quiz == nil {
		return nil, engineerrors.Internal("session references missing quiz", nil)
	}
	return quiz, nil
}

func (s *Service) questionsOf(ctx context.Context, quiz *store.DailyQuiz) (map[int32]*store.Question, error) {
	list, err := s.store.ListQuestions(ctx, &store.FindQuestion{IDs: quiz.QuestionIDs})
	if err != nil {
		return nil, engineerrors.Internal("failed to load questions", err)
	}
	questions := make(map[int32]*store.Question, len(list))
	for _, question := range list {
		questions[question.ID] = question
	}
	return questions, nil
}

func (s *Service) stateOf(session *store.QuizSession, now time.Time, total int) *State {
	status := EffectiveStatus(session, now)
	warning := status == store.SessionInProgress &&
		now.Sub(time.Unix(session.LastActivityTs, 0)) >= InactivityWarningAfter
	return &State{
		Session:           session,
		Status:            status,
		InactivityWarning: warning,
		TotalQuestions:    total,
	}
}

func indexOf(ids []int32, id int32) int {
	for i, candidate := range ids {
		if candidate == id {
			return i
		}
	}
	return -1
}
