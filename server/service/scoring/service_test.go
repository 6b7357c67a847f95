package scoring

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quizdeck/quizdeck/store"
)

type MockStoreForScoring struct {
	mu      sync.Mutex
	streaks map[int32]*store.Streak
	events  map[string]*store.CompletionEvent
	nextID  int32
}

func NewMockStoreForScoring() *MockStoreForScoring {
	return &MockStoreForScoring{
		streaks: map[int32]*store.Streak{},
		events:  map[string]*store.CompletionEvent{},
	}
}

func (m *MockStoreForScoring) GetStreak(_ context.Context, userID int32) (*store.Streak, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	streak, ok := m.streaks[userID]
	if !ok {
		return nil, nil
	}
	copied := *streak
	return &copied, nil
}

func (m *MockStoreForScoring) UpsertStreak(_ context.Context, upsert *store.Streak) (*store.Streak, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *upsert
	m.streaks[upsert.UserID] = &copied
	returned := copied
	return &returned, nil
}

func (m *MockStoreForScoring) CreateCompletionEvent(_ context.Context, create *store.CompletionEvent) (*store.CompletionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%d/%s", create.UserID, create.DateKey)
	if _, ok := m.events[key]; ok {
		return nil, store.ErrAlreadyExists
	}
	m.nextID++
	create.ID = m.nextID
	create.CreatedTs = time.Now().Unix()
	m.events[key] = create
	return create, nil
}

func newQuizFixture() (*store.DailyQuiz, map[int32]*store.Question) {
	quiz := &store.DailyQuiz{
		ID:          1,
		UID:         "quiz-1",
		DateKey:     "2026-03-10",
		QuestionIDs: []int32{1, 2, 3, 4, 5},
	}
	questions := map[int32]*store.Question{
		1: {ID: 1, Answer: "mitochondria"},
		2: {ID: 2, Answer: "4"},
		3: {ID: 3, Answer: "Paris"},
		4: {ID: 4, Answer: "true"},
		5: {ID: 5, Answer: "oxygen"},
	}
	return quiz, questions
}

func newSessionFixture(start time.Time, answers map[int32]string) *store.QuizSession {
	return &store.QuizSession{
		ID:       10,
		UID:      "session-10",
		UserID:   7,
		QuizID:   1,
		Answers:  answers,
		Status:   store.SessionInProgress,
		Timezone: "UTC",
		StartTs:  start.Unix(),
	}
}

func TestScoreAllCorrect(t *testing.T) {
	quiz, questions := newQuizFixture()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	session := newSessionFixture(start, map[int32]string{
		1: "mitochondria", 2: "4", 3: "Paris", 4: "true", 5: "oxygen",
	})

	result := Score(session, quiz, questions, start.Add(5*time.Minute))
	require.Equal(t, 100, result.Score)
	require.Equal(t, 5, result.CorrectAnswers)
	require.Equal(t, Excellent, result.PerformanceLevel)
	require.Len(t, result.Breakdown, 5)
	// 5 minutes over 5 questions.
	require.Equal(t, int64(60_000), result.Breakdown[0].TimeSpentMs)
}

func TestScoreFourOfFive(t *testing.T) {
	quiz, questions := newQuizFixture()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	session := newSessionFixture(start, map[int32]string{
		1: "mitochondria", 2: "4", 3: "London", 4: "true", 5: "oxygen",
	})

	result := Score(session, quiz, questions, start.Add(time.Minute))
	require.Equal(t, 80, result.Score)
	require.Equal(t, 4, result.CorrectAnswers)
	require.Equal(t, Good, result.PerformanceLevel)
	require.False(t, result.Breakdown[2].IsCorrect)
	require.Equal(t, "London", result.Breakdown[2].SelectedAnswer)
}

func TestScoreMatchingIsTrimmedAndCaseInsensitive(t *testing.T) {
	quiz, questions := newQuizFixture()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	session := newSessionFixture(start, map[int32]string{
		1: "  MITOCHONDRIA ", 3: "paris",
	})

	result := Score(session, quiz, questions, start.Add(time.Minute))
	require.Equal(t, 2, result.CorrectAnswers)
	require.Equal(t, 40, result.Score)
	require.Equal(t, NeedsImprovement, result.PerformanceLevel)
}

func TestScoreUnansweredCountsIncorrect(t *testing.T) {
	quiz, questions := newQuizFixture()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	session := newSessionFixture(start, map[int32]string{1: "mitochondria"})

	result := Score(session, quiz, questions, start.Add(time.Minute))
	require.Equal(t, 1, result.CorrectAnswers)
	require.Equal(t, 20, result.Score)
	for _, entry := range result.Breakdown[1:] {
		require.False(t, entry.IsCorrect)
		require.Empty(t, entry.SelectedAnswer)
	}
}

func TestScoreEmptyQuiz(t *testing.T) {
	quiz := &store.DailyQuiz{ID: 2, QuestionIDs: nil}
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	session := newSessionFixture(start, nil)

	result := Score(session, quiz, map[int32]*store.Question{}, start)
	require.Equal(t, 0, result.Score)
	require.Equal(t, NeedsImprovement, result.PerformanceLevel)
	require.Empty(t, result.Breakdown)
}

func TestLevelForScoreBoundaries(t *testing.T) {
	require.Equal(t, NeedsImprovement, LevelForScore(0))
	require.Equal(t, NeedsImprovement, LevelForScore(49))
	require.Equal(t, Fair, LevelForScore(50))
	require.Equal(t, Fair, LevelForScore(69))
	require.Equal(t, Good, LevelForScore(70))
	require.Equal(t, Good, LevelForScore(89))
	require.Equal(t, Excellent, LevelForScore(90))
	require.Equal(t, Excellent, LevelForScore(100))
}

func TestFinalizeFirstCompletionStartsStreak(t *testing.T) {
	ctx := context.Background()
	mock := NewMockStoreForScoring()
	service := NewService(mock, nil)

	quiz, questions := newQuizFixture()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	session := newSessionFixture(start, map[int32]string{1: "mitochondria"})

	result, err := service.Finalize(ctx, session, quiz, questions, start.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, result.StreakUpdated)
	require.Equal(t, int32(1), result.CurrentStreak)
	require.Equal(t, int32(1), result.LongestStreak)
}

func TestFinalizeConsecutiveDayExtendsStreak(t *testing.T) {
	ctx := context.Background()
	mock := NewMockStoreForScoring()
	service := NewService(mock, nil)

	mock.streaks[7] = &store.Streak{UserID: 7, Current: 3, Longest: 5, LastDateKey: "2026-03-09"}

	quiz, questions := newQuizFixture()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	session := newSessionFixture(start, nil)

	result, err := service.Finalize(ctx, session, quiz, questions, start.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, result.StreakUpdated)
	require.Equal(t, int32(4), result.CurrentStreak)
	require.Equal(t, int32(5), result.LongestStreak)
}

func TestFinalizeGapResetsStreak(t *testing.T) {
	ctx := context.Background()
	mock := NewMockStoreForScoring()
	service := NewService(mock, nil)

	mock.streaks[7] = &store.Streak{UserID: 7, Current: 9, Longest: 9, LastDateKey: "2026-03-05"}

	quiz, questions := newQuizFixture()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	session := newSessionFixture(start, nil)

	result, err := service.Finalize(ctx, session, quiz, questions, start.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, int32(1), result.CurrentStreak)
	require.Equal(t, int32(9), result.LongestStreak)
}

func TestFinalizeSecondCompletionSameDayDoesNotIncrement(t *testing.T) {
	ctx := context.Background()
	mock := NewMockStoreForScoring()
	service := NewService(mock, nil)

	quiz, questions := newQuizFixture()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	session := newSessionFixture(start, nil)

	first, err := service.Finalize(ctx, session, quiz, questions, start.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, first.StreakUpdated)

	second, err := service.Finalize(ctx, session, quiz, questions, start.Add(2*time.Minute))
	require.NoError(t, err)
	require.False(t, second.StreakUpdated)
	require.Equal(t, int32(1), second.CurrentStreak)
}

func TestFinalizeLongestFollowsCurrent(t *testing.T) {
	ctx := context.Background()
	mock := NewMockStoreForScoring()
	service := NewService(mock, nil)

	mock.streaks[7] = &store.Streak{UserID: 7, Current: 5, Longest: 5, LastDateKey: "2026-03-09"}

	quiz, questions := newQuizFixture()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	session := newSessionFixture(start, nil)

	result, err := service.Finalize(ctx, session, quiz, questions, start.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, int32(6), result.CurrentStreak)
	require.Equal(t, int32(6), result.LongestStreak)
}

func TestFinalizeConcurrentCompletionsIncrementOnce(t *testing.T) {
	ctx := context.Background()
	mock := NewMockStoreForScoring()
	service := NewService(mock, nil)

	quiz, questions := newQuizFixture()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	session := newSessionFixture(start, nil)

	const callers = 6
	results := make([]*QuizResult, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = service.Finalize(ctx, session, quiz, questions, start.Add(time.Minute))
		}(i)
	}
	wg.Wait()

	updated := 0
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		if results[i].StreakUpdated {
			updated++
		}
	}
	require.Equal(t, 1, updated)
	require.Equal(t, int32(1), mock.streaks[7].Current)
}
