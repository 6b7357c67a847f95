// Package srs implements the adaptive review scheduler: an SM-2 style
// spaced repetition state per (user, question), a due queue, and aggregate
// topic priorities that bias future quiz selection.
//
// The scheduler is strictly advisory. It consumes quiz outcomes after the
// fact and its failures never block quiz generation or session completion.
package srs

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	engineerrors "github.com/quizdeck/quizdeck/server/internal/errors"
	"github.com/quizdeck/quizdeck/server/service/scoring"
	"github.com/quizdeck/quizdeck/store"
)

// Quality is the graded outcome of one review of one question.
type Quality int

const (
	// QualityAgain - wrong answer, schedule from scratch.
	QualityAgain Quality = 0
	// QualityHard - correct with serious difficulty.
	QualityHard Quality = 1
	// QualityGood - correct.
	QualityGood Quality = 2
	// QualityEasy - correct and effortless.
	QualityEasy Quality = 3
)

const (
	// DefaultEaseFactor is the initial ease factor for new entries.
	DefaultEaseFactor = 2.5
	// MinEaseFactor is the floor that keeps intervals from collapsing.
	MinEaseFactor = 1.3
	// MaxIntervalDays caps how far out a review can be pushed.
	MaxIntervalDays = 365
	// MasteredIntervalDays is the interval beyond which a question counts
	// as mastered for topic weighting.
	MasteredIntervalDays = 30
	// masteredTopicWeight keeps mastered material in rotation at a small
	// but non-zero priority.
	masteredTopicWeight = 0.1
	// focusTopicBoost multiplies the weight of caller-named focus topics.
	focusTopicBoost = 2.0
)

// NextReviewState applies one graded review to an entry and returns the new
// state. A nil entry means the question was never reviewed and starts from
// the defaults. Pure function of its inputs.
func NextReviewState(entry *store.SpacedRepetitionEntry, userID, questionID int32, quality Quality, now time.Time) *store.SpacedRepetitionEntry {
	next := &store.SpacedRepetitionEntry{
		UserID:     userID,
		QuestionID: questionID,
		EaseFactor: DefaultEaseFactor,
	}
	if entry != nil {
		next.ID = entry.ID
		next.EaseFactor = entry.EaseFactor
		next.IntervalDays = entry.IntervalDays
		next.Repetitions = entry.Repetitions
	}

	next.Repetitions++
	next.LastReviewTs = now.Unix()

	// EF' = EF + (0.1 - (3 - q) * (0.08 + (3 - q) * 0.02))
	q := float64(quality)
	next.EaseFactor += 0.1 - (3-q)*(0.08+(3-q)*0.02)
	if next.EaseFactor < MinEaseFactor {
		next.EaseFactor = MinEaseFactor
	}

	switch quality {
	case QualityAgain:
		next.IntervalDays = 1
	case QualityHard:
		next.IntervalDays = int32(float64(next.IntervalDays) * 1.2)
		if next.IntervalDays < 1 {
			next.IntervalDays = 1
		}
	case QualityGood:
		switch next.IntervalDays {
		case 0:
			next.IntervalDays = 1
		case 1:
			next.IntervalDays = 3
		default:
			next.IntervalDays = int32(float64(next.IntervalDays) * next.EaseFactor)
		}
	case QualityEasy:
		if next.IntervalDays == 0 {
			next.IntervalDays = 3
		} else {
			next.IntervalDays = int32(float64(next.IntervalDays) * next.EaseFactor * 1.3)
		}
	}
	if next.IntervalDays > MaxIntervalDays {
		next.IntervalDays = MaxIntervalDays
	}

	next.DueTs = now.AddDate(0, 0, int(next.IntervalDays)).Unix()
	return next
}

// Store is the interface for store operations needed by the scheduler.
type Store interface {
	UpsertSpacedRepetitionEntry(ctx context.Context, upsert *store.SpacedRepetitionEntry) (*store.SpacedRepetitionEntry, error)
	ListSpacedRepetitionEntries(ctx context.Context, find *store.FindSpacedRepetitionEntry) ([]*store.SpacedRepetitionEntry, error)
	GetSpacedRepetitionEntry(ctx context.Context, userID, questionID int32) (*store.SpacedRepetitionEntry, error)
	ListQuestions(ctx context.Context, find *store.FindQuestion) ([]*store.Question, error)
}

// Service schedules question reviews.
type Service struct {
	store Store

	now func() time.Time
}

// NewService creates a new adaptive scheduler.
func NewService(s Store) *Service {
	return &Service{store: s, now: time.Now}
}

// RecordOutcome applies one graded review and persists the new state.
func (s *Service) RecordOutcome(ctx context.Context, userID, questionID int32, quality Quality) (*store.SpacedRepetitionEntry, error) {
	if quality < QualityAgain || quality > QualityEasy {
		return nil, engineerrors.InvalidArgumentf("unknown review quality %d", quality)
	}
	entry, err := s.store.GetSpacedRepetitionEntry(ctx, userID, questionID)
	if err != nil {
		return nil, engineerrors.Internal("failed to load review state", err)
	}
	next := NextReviewState(entry, userID, questionID, quality, s.now())
	saved, err := s.store.UpsertSpacedRepetitionEntry(ctx, next)
	if err != nil {
		return nil, engineerrors.Internal("failed to save review state", err)
	}
	return saved, nil
}

// RecordQuizResult feeds a scored quiz into the scheduler: correct answers
// grade as good, wrong or skipped ones as again. Per-question persistence
// failures are logged and skipped so a flaky row never fails the batch.
func (s *Service) RecordQuizResult(ctx context.Context, userID int32, result *scoring.QuizResult) error {
	for _, entry := range result.Breakdown {
		quality := QualityAgain
		if entry.IsCorrect {
			quality = QualityGood
		}
		if _, err := s.RecordOutcome(ctx, userID, entry.QuestionID, quality); err != nil {
			slog.Warn("failed to record review outcome",
				"user_id", userID, "question_id", entry.QuestionID, "error", err)
		}
	}
	return nil
}

// DueQuestions returns the user's due review questions, earliest due first.
func (s *Service) DueQuestions(ctx context.Context, userID int32, limit int) ([]*store.Question, error) {
	if limit <= 0 {
		limit = 20
	}
	dueBefore := s.now().Unix()
	entries, err := s.store.ListSpacedRepetitionEntries(ctx, &store.FindSpacedRepetitionEntry{
		UserID:    &userID,
		DueBefore: &dueBefore,
		Limit:     &limit,
	})
	if err != nil {
		return nil, engineerrors.Internal("failed to list due reviews", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	ids := make([]int32, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.QuestionID)
	}
	list, err := s.store.ListQuestions(ctx, &store.FindQuestion{IDs: ids})
	if err != nil {
		return nil, engineerrors.Internal("failed to load due questions", err)
	}
	byID := make(map[int32]*store.Question, len(list))
	for _, question := range list {
		byID[question.ID] = question
	}

	// Preserve the due ordering of the entries.
	questions := make([]*store.Question, 0, len(entries))
	for _, entry := range entries {
		if question, ok := byID[entry.QuestionID]; ok {
			questions = append(questions, question)
		}
	}
	return questions, nil
}

// TopicPriorities aggregates review states across all users into per-topic
// weights. Struggling topics (low ease, overdue) weigh more; mastered ones
// keep a small non-zero weight so they stay in rotation. Caller-named focus
// topics have their weight multiplied, and are present in the result even
// when no review data touches them.
func (s *Service) TopicPriorities(ctx context.Context, focusTopics ...string) (map[string]float64, error) {
	entries, err := s.store.ListSpacedRepetitionEntries(ctx, &store.FindSpacedRepetitionEntry{})
	if err != nil {
		return nil, engineerrors.Internal("failed to list review states", err)
	}
	if len(entries) == 0 && len(focusTopics) == 0 {
		return nil, nil
	}

	weights := map[string]float64{}
	if len(entries) > 0 {
		ids := make([]int32, 0, len(entries))
		seen := map[int32]bool{}
		for _, entry := range entries {
			if !seen[entry.QuestionID] {
				seen[entry.QuestionID] = true
				ids = append(ids, entry.QuestionID)
			}
		}
		list, err := s.store.ListQuestions(ctx, &store.FindQuestion{IDs: ids})
		if err != nil {
			return nil, engineerrors.Internal("failed to load reviewed questions", err)
		}
		topicsByID := make(map[int32][]string, len(list))
		for _, question := range list {
			topicsByID[question.ID] = question.Topics
		}

		now := s.now()
		for _, entry := range entries {
			w := entryWeight(entry, now)
			for _, topic := range topicsByID[entry.QuestionID] {
				weights[topic] += w
			}
		}
	}

	for _, topic := range focusTopics {
		if w, ok := weights[topic]; ok {
			weights[topic] = w * focusTopicBoost
		} else {
			// No review data for the topic; seed it at a boosted baseline.
			weights[topic] = focusTopicBoost
		}
	}
	return weights, nil
}

// PriorityTopics returns the highest-weight topics, heaviest first. It never
// fails: scheduler trouble degrades to no bias.
func (s *Service) PriorityTopics(ctx context.Context, limit int) []string {
	weights, err := s.TopicPriorities(ctx)
	if err != nil {
		slog.Warn("failed to compute topic priorities", "error", err)
		return nil
	}
	if len(weights) == 0 {
		return nil
	}

	topics := make([]string, 0, len(weights))
	for topic := range weights {
		topics = append(topics, topic)
	}
	sort.Slice(topics, func(i, j int) bool {
		if weights[topics[i]] != weights[topics[j]] {
			return weights[topics[i]] > weights[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if limit > 0 && len(topics) > limit {
		topics = topics[:limit]
	}
	return topics
}

// entryWeight scores one review state. Mastered entries get a flat small
// weight; the rest weigh more the lower their ease factor and the longer
// they are overdue.
func entryWeight(entry *store.SpacedRepetitionEntry, now time.Time) float64 {
	if entry.IntervalDays > MasteredIntervalDays {
		return masteredTopicWeight
	}
	w := 1.0 + (DefaultEaseFactor - entry.EaseFactor)
	if entry.DueTs > 0 {
		overdueDays := now.Sub(time.Unix(entry.DueTs, 0)).Hours() / 24
		if overdueDays > 0 {
			w += math.Min(overdueDays*0.1, 1.0)
		}
	}
	return w
}
