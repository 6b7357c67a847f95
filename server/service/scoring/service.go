// Package scoring turns a completed session into a quiz result and applies
// the user's streak update. It is the only writer of streak state.
package scoring

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	engineerrors "github.com/quizdeck/quizdeck/server/internal/errors"
	"github.com/quizdeck/quizdeck/server/timezone"
	"github.com/quizdeck/quizdeck/store"
)

// PerformanceLevel is the coarse banding of a session's accuracy.
type PerformanceLevel string

const (
	NeedsImprovement PerformanceLevel = "needs_improvement" // < 50%
	Fair             PerformanceLevel = "fair"              // < 70%
	Good             PerformanceLevel = "good"              // < 90%
	Excellent        PerformanceLevel = "excellent"         // >= 90%
)

// LevelForScore bands an integer percentage score.
func LevelForScore(score int) PerformanceLevel {
	switch {
	case score < 50:
		return NeedsImprovement
	case score < 70:
		return Fair
	case score < 90:
		return Good
	default:
		return Excellent
	}
}

// QuestionResult is the per-question breakdown of a quiz result.
type QuestionResult struct {
	QuestionID     int32  `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
	IsCorrect      bool   `json:"is_correct"`
	// TimeSpentMs is attributed, not measured: the engine records no
	// per-question timestamps, so total elapsed time is divided evenly.
	TimeSpentMs int64 `json:"time_spent_ms"`
}

// QuizResult is the outcome of a completed session.
type QuizResult struct {
	SessionUID       string           `json:"session_uid"`
	Score            int              `json:"score"`
	TotalQuestions   int              `json:"total_questions"`
	CorrectAnswers   int              `json:"correct_answers"`
	ElapsedMs        int64            `json:"elapsed_ms"`
	Breakdown        []QuestionResult `json:"breakdown"`
	StreakUpdated    bool             `json:"streak_updated"`
	CurrentStreak    int32            `json:"current_streak"`
	LongestStreak    int32            `json:"longest_streak"`
	PerformanceLevel PerformanceLevel `json:"performance_level"`
}

// AnswersMatch compares a submitted answer against the correct one using
// case-insensitive, whitespace-trimmed exact equality.
func AnswersMatch(submitted, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct))
}

// Score computes the result of a session against its quiz. Pure function of
// its inputs; unanswered questions count as incorrect.
func Score(session *store.QuizSession, quiz *store.DailyQuiz, questions map[int32]*store.Question, now time.Time) *QuizResult {
	total := len(quiz.QuestionIDs)
	elapsedMs := now.Sub(time.Unix(session.StartTs, 0)).Milliseconds()
	if elapsedMs < 0 {
		elapsedMs = 0
	}

	var perQuestionMs int64
	if total > 0 {
		perQuestionMs = elapsedMs / int64(total)
	}

	correct := 0
	breakdown := make([]QuestionResult, 0, total)
	for _, questionID := range quiz.QuestionIDs {
		selected := session.Answers[questionID]
		isCorrect := false
		if question, ok := questions[questionID]; ok && selected != "" {
			isCorrect = AnswersMatch(selected, question.Answer)
		}
		if isCorrect {
			correct++
		}
		breakdown = append(breakdown, QuestionResult{
			QuestionID:     questionID,
			SelectedAnswer: selected,
			IsCorrect:      isCorrect,
			TimeSpentMs:    perQuestionMs,
		})
	}

	score := 0
	if total > 0 {
		score = int(math.Round(float64(correct) / float64(total) * 100))
	}

	return &QuizResult{
		SessionUID:       session.UID,
		Score:            score,
		TotalQuestions:   total,
		CorrectAnswers:   correct,
		ElapsedMs:        elapsedMs,
		Breakdown:        breakdown,
		PerformanceLevel: LevelForScore(score),
	}
}

// Store is the interface for store operations needed by the calculator.
type Store interface {
	GetStreak(ctx context.Context, userID int32) (*store.Streak, error)
	UpsertStreak(ctx context.Context, upsert *store.Streak) (*store.Streak, error)
	CreateCompletionEvent(ctx context.Context, create *store.CompletionEvent) (*store.CompletionEvent, error)
}

// Notifier consumes completion events. Failures must never block or roll
// back scoring, so implementations are expected to be asynchronous.
type Notifier interface {
	QuizCompleted(userID int32, dateKey string, result *QuizResult)
}

// Service scores sessions and maintains streaks.
type Service struct {
	store    Store
	notifier Notifier
}

// NewService creates a new scoring and streak calculator.
func NewService(s Store, notifier Notifier) *Service {
	return &Service{store: s, notifier: notifier}
}

// Finalize scores the session and applies the streak update for the
// session's local date key. The (user, date) completion event claim makes
// the increment at-most-once per day: concurrent or repeated completions
// find the slot taken and leave the streak untouched.
func (s *Service) Finalize(ctx context.Context, session *store.QuizSession, quiz *store.DailyQuiz, questions map[int32]*store.Question, now time.Time) (*QuizResult, error) {
	result := Score(session, quiz, questions, now)

	loc, err := timezone.ParseTimezone(session.Timezone)
	if err != nil {
		// The session stored an invalid label; UTC keeps the math defined.
		slog.Warn("session has invalid timezone, using UTC", "session_uid", session.UID, "timezone", session.Timezone)
	}
	dateKey := timezone.DateKey(now, loc)

	updated, streak, err := s.updateStreak(ctx, session, dateKey, now)
	if err != nil {
		return nil, err
	}
	result.StreakUpdated = updated
	if streak != nil {
		result.CurrentStreak = streak.Current
		result.LongestStreak = streak.Longest
	}

	if s.notifier != nil {
		s.notifier.QuizCompleted(session.UserID, dateKey, result)
	}

	return result, nil
}

// updateStreak claims the day's completion slot and advances the streak.
// Returns whether the streak counted this completion, and the streak record.
func (s *Service) updateStreak(ctx context.Context, session *store.QuizSession, dateKey string, now time.Time) (bool, *store.Streak, error) {
	_, err := s.store.CreateCompletionEvent(ctx, &store.CompletionEvent{
		UserID:    session.UserID,
		QuizID:    session.QuizID,
		SessionID: session.ID,
		DateKey:   dateKey,
	})
	if err == store.ErrAlreadyExists {
		// Already counted today; report the stored streak unchanged.
		streak, gerr := s.store.GetStreak(ctx, session.UserID)
		if gerr != nil {
			return false, nil, engineerrors.Internal("failed to load streak", gerr)
		}
		return false, streak, nil
	}
	if err != nil {
		return false, nil, engineerrors.Internal("failed to record completion event", err)
	}

	streak, err := s.store.GetStreak(ctx, session.UserID)
	if err != nil {
		return false, nil, engineerrors.Internal("failed to load streak", err)
	}

	current := int32(1)
	longest := int32(1)
	if streak != nil {
		// Exactly one local calendar day since the last counted completion
		// extends the run; anything else starts over at 1.
		if streak.LastDateKey != "" && timezone.DayDiff(streak.LastDateKey, dateKey) == 1 {
			current = streak.Current + 1
		}
		longest = streak.Longest
		if current > longest {
			longest = current
		}
	}

	next, err := s.store.UpsertStreak(ctx, &store.Streak{
		UserID:      session.UserID,
		Current:     current,
		Longest:     longest,
		LastDateKey: dateKey,
		UpdatedTs:   now.Unix(),
	})
	if err != nil {
		return false, nil, engineerrors.Internal("failed to update streak", err)
	}

	return true, next, nil
}
