// Package quiz implements the daily quiz selector: it deterministically
// builds or retrieves the one quiz published for a given date key.
//
// Key properties:
//   - Idempotent per date key: once a quiz exists it is returned unchanged.
//   - Balanced difficulty mix with deterministic rounding.
//   - Recent questions are excluded while inventory allows it.
//   - At-most-once creation, enforced by the store's date-key uniqueness
//     constraint; concurrent creators collapse onto one row.
package quiz

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/sync/singleflight"

	engineerrors "github.com/quizdeck/quizdeck/server/internal/errors"
	"github.com/quizdeck/quizdeck/server/timezone"
	"github.com/quizdeck/quizdeck/store"
)

const (
	// DefaultQuizSize is the number of questions in a daily quiz.
	DefaultQuizSize = 5
	// LookbackDays is how many preceding days' quizzes a new quiz avoids
	// repeating questions from, inventory permitting.
	LookbackDays = 3
)

// difficultyShares is the fixed difficulty distribution of a daily quiz.
var difficultyShares = []struct {
	difficulty store.Difficulty
	share      float64
}{
	{store.Easy, 0.4},
	{store.Medium, 0.4},
	{store.Hard, 0.2},
}

// Store is the interface for store operations needed by the selector.
type Store interface {
	GetDailyQuiz(ctx context.Context, find *store.FindDailyQuiz) (*store.DailyQuiz, error)
	CreateDailyQuiz(ctx context.Context, create *store.DailyQuiz) (*store.DailyQuiz, error)
	ListDailyQuizzes(ctx context.Context, find *store.FindDailyQuiz) ([]*store.DailyQuiz, error)
	ListQuestions(ctx context.Context, find *store.FindQuestion) ([]*store.Question, error)
	CountQuestions(ctx context.Context, find *store.FindQuestion) (int, error)
}

// Recommender supplies topic priorities from historical outcomes. The
// selector treats it as advisory: any error or empty result falls back to
// the default distribution, and quiz generation never blocks on it.
type Recommender interface {
	PriorityTopics(ctx context.Context, limit int) []string
}

// Service builds and retrieves daily quizzes.
type Service struct {
	store       Store
	size        int
	recommender Recommender

	group singleflight.Group
}

// NewService creates a new daily quiz selector.
func NewService(s Store, size int) *Service {
	if size <= 0 {
		size = DefaultQuizSize
	}
	return &Service{store: s, size: size}
}

// WithRecommender attaches an advisory topic recommender.
func (s *Service) WithRecommender(r Recommender) *Service {
	s.recommender = r
	return s
}

// GetOrCreateDailyQuiz returns the quiz for the date key, creating it on
// first request. Two concurrent callers for the same unpublished date key
// always end up with the same persisted quiz.
func (s *Service) GetOrCreateDailyQuiz(ctx context.Context, dateKey string) (*store.DailyQuiz, error) {
	if !timezone.IsValidDateKey(dateKey) {
		return nil, engineerrors.InvalidArgument("malformed date key: want YYYY-MM-DD")
	}

	existing, err := s.store.GetDailyQuiz(ctx, &store.FindDailyQuiz{DateKey: &dateKey})
	if err != nil {
		return nil, engineerrors.Internal("failed to look up daily quiz", err)
	}
	if existing != nil {
		return existing, nil
	}

	// Collapse concurrent in-process creators for the same date key. The DB
	// constraint still guards cross-instance races.
	result, err, _ := s.group.Do(dateKey, func() (any, error) {
		return s.createQuiz(ctx, dateKey)
	})
	if err != nil {
		return nil, err
	}
	return result.(*store.DailyQuiz), nil
}

func (s *Service) createQuiz(ctx context.Context, dateKey string) (*store.DailyQuiz, error) {
	// Re-check under the flight: a previous flight may have created it.
	existing, err := s.store.GetDailyQuiz(ctx, &store.FindDailyQuiz{DateKey: &dateKey})
	if err != nil {
		return nil, engineerrors.Internal("failed to look up daily quiz", err)
	}
	if existing != nil {
		return existing, nil
	}

	questionIDs, err := s.selectQuestions(ctx, dateKey)
	if err != nil {
		return nil, err
	}

	quiz, err := s.store.CreateDailyQuiz(ctx, &store.DailyQuiz{
		UID:         shortuuid.New(),
		DateKey:     dateKey,
		QuestionIDs: questionIDs,
	})
	if err == store.ErrAlreadyExists {
		// Lost the cross-instance race; the other writer's quiz wins.
		winner, rerr := s.store.GetDailyQuiz(ctx, &store.FindDailyQuiz{DateKey: &dateKey})
		if rerr != nil {
			return nil, engineerrors.Internal("failed to reread daily quiz after conflict", rerr)
		}
		if winner == nil {
			return nil, engineerrors.Internal("daily quiz vanished after insert conflict", nil)
		}
		return winner, nil
	}
	if err != nil {
		return nil, engineerrors.Internal("failed to persist daily quiz", err)
	}

	slog.Info("daily quiz published", "date_key", dateKey, "questions", len(questionIDs))
	return quiz, nil
}

// selectQuestions assembles the balanced question list for a new quiz.
func (s *Service) selectQuestions(ctx context.Context, dateKey string) ([]int32, error) {
	recentIDs, err := s.recentQuestionIDs(ctx, dateKey)
	if err != nil {
		return nil, engineerrors.Internal("failed to load recent quizzes", err)
	}

	var priorityTopics []string
	if s.recommender != nil {
		priorityTopics = s.recommender.PriorityTopics(ctx, 3)
	}

	counts := DifficultyCounts(s.size)
	selected := make([]int32, 0, s.size)

	for _, bucket := range difficultyShares {
		needed := counts[bucket.difficulty]
		if needed == 0 {
			continue
		}

		picked, err := s.fillBucket(ctx, bucket.difficulty, needed, recentIDs, selected, priorityTopics)
		if err != nil {
			return nil, err
		}
		if len(picked) < needed {
			return nil, engineerrors.InsufficientInventory(
				"not enough approved " + bucket.difficulty.String() + " questions to assemble a balanced quiz")
		}
		selected = append(selected, picked...)
	}

	// The stored order is the play order; mix difficulties instead of
	// presenting easy-to-hard blocks.
	rand.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})

	return selected, nil
}

// fillBucket samples up to needed approved questions of one difficulty.
// Priority topics are tried first, then the general pool excluding recent
// questions, and finally the general pool with repeats allowed.
func (s *Service) fillBucket(ctx context.Context, difficulty store.Difficulty, needed int, recentIDs, alreadySelected []int32, priorityTopics []string) ([]int32, error) {
	picked := make([]int32, 0, needed)

	exclude := func(extra []int32) []int32 {
		out := make([]int32, 0, len(recentIDs)+len(alreadySelected)+len(picked)+len(extra))
		out = append(out, recentIDs...)
		out = append(out, alreadySelected...)
		out = append(out, picked...)
		out = append(out, extra...)
		return out
	}

	sample := func(topic *string, excludeIDs []int32, limit int) ([]*store.Question, error) {
		return s.store.ListQuestions(ctx, &store.FindQuestion{
			ApprovedOnly: true,
			Difficulties: []store.Difficulty{difficulty},
			ExcludeIDs:   excludeIDs,
			Topic:        topic,
			Random:       true,
			Limit:        &limit,
		})
	}

	// Bias up to half the bucket toward weak topics.
	topicBudget := needed / 2
	for _, topic := range priorityTopics {
		if len(picked) >= topicBudget {
			break
		}
		topic := topic
		questions, err := sample(&topic, exclude(nil), topicBudget-len(picked))
		if err != nil {
			// Advisory path: log and continue with the default pool.
			slog.Warn("topic-biased sampling failed", "topic", topic, "error", err)
			break
		}
		for _, question := range questions {
			picked = append(picked, question.ID)
		}
	}

	// Default pool, excluding questions used in the lookback window.
	if len(picked) < needed {
		questions, err := sample(nil, exclude(nil), needed-len(picked))
		if err != nil {
			return nil, engineerrors.Internal("failed to sample questions", err)
		}
		for _, question := range questions {
			picked = append(picked, question.ID)
		}
	}

	// Fallback: allow repeats from recent quizzes when inventory is short.
	if len(picked) < needed {
		questions, err := sample(nil, append(alreadySelected, picked...), needed-len(picked))
		if err != nil {
			return nil, engineerrors.Internal("failed to sample questions", err)
		}
		for _, question := range questions {
			picked = append(picked, question.ID)
		}
	}

	return picked, nil
}

// recentQuestionIDs collects the question ids used in the lookback window.
func (s *Service) recentQuestionIDs(ctx context.Context, dateKey string) ([]int32, error) {
	previous := timezone.PreviousDateKeys(dateKey, LookbackDays)
	if len(previous) == 0 {
		return nil, nil
	}

	quizzes, err := s.store.ListDailyQuizzes(ctx, &store.FindDailyQuiz{DateKeys: previous})
	if err != nil {
		return nil, err
	}

	var ids []int32
	for _, quiz := range quizzes {
		ids = append(ids, quiz.QuestionIDs...)
	}
	return ids, nil
}

// DifficultyCounts splits size across the fixed distribution. Each bucket
// gets the floor of its share; the remainder goes to the largest bucket so
// the counts always sum to size.
func DifficultyCounts(size int) map[store.Difficulty]int {
	counts := make(map[store.Difficulty]int, len(difficultyShares))
	assigned := 0
	for _, bucket := range difficultyShares {
		n := int(float64(size) * bucket.share)
		counts[bucket.difficulty] = n
		assigned += n
	}

	// difficultyShares is ordered largest share first, so the leftover lands
	// on easy, then medium, deterministically.
	for i := 0; assigned < size; i = (i + 1) % len(difficultyShares) {
		counts[difficultyShares[i].difficulty]++
		assigned++
	}

	return counts
}

// InventoryStats reports the approved question inventory per difficulty.
type InventoryStats struct {
	Total        int                      `json:"total"`
	ByDifficulty map[store.Difficulty]int `json:"by_difficulty"`
	CollectedAt  int64                    `json:"collected_at"`
}

// Inventory counts the approved questions available to the selector.
func (s *Service) Inventory(ctx context.Context) (*InventoryStats, error) {
	stats := &InventoryStats{
		ByDifficulty: make(map[store.Difficulty]int),
		CollectedAt:  time.Now().Unix(),
	}
	for _, bucket := range difficultyShares {
		count, err := s.store.CountQuestions(ctx, &store.FindQuestion{
			ApprovedOnly: true,
			Difficulties: []store.Difficulty{bucket.difficulty},
		})
		if err != nil {
			return nil, engineerrors.Internal("failed to count questions", err)
		}
		stats.ByDifficulty[bucket.difficulty] = count
		stats.Total += count
	}
	return stats, nil
}
