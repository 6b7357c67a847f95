package srs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quizdeck/quizdeck/server/service/scoring"
	"github.com/quizdeck/quizdeck/store"
)

var reviewTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestNextReviewStateNewEntryGood(t *testing.T) {
	next := NextReviewState(nil, 7, 1, QualityGood, reviewTime)
	require.Equal(t, int32(1), next.Repetitions)
	require.Equal(t, int32(1), next.IntervalDays)
	require.InDelta(t, 2.5, next.EaseFactor, 0.01)
	require.Equal(t, reviewTime.AddDate(0, 0, 1).Unix(), next.DueTs)
}

func TestNextReviewStateGoodProgression(t *testing.T) {
	var entry *store.SpacedRepetitionEntry
	intervals := []int32{}
	for i := 0; i < 4; i++ {
		entry = NextReviewState(entry, 7, 1, QualityGood, reviewTime)
		intervals = append(intervals, entry.IntervalDays)
	}
	// 0 -> 1 -> 3 -> 3*EF -> grows.
	require.Equal(t, int32(1), intervals[0])
	require.Equal(t, int32(3), intervals[1])
	require.Greater(t, intervals[2], intervals[1])
	require.Greater(t, intervals[3], intervals[2])
}

func TestNextReviewStateAgainResets(t *testing.T) {
	entry := &store.SpacedRepetitionEntry{
		UserID: 7, QuestionID: 1,
		EaseFactor: 2.5, IntervalDays: 20, Repetitions: 4,
	}
	next := NextReviewState(entry, 7, 1, QualityAgain, reviewTime)
	require.Equal(t, int32(1), next.IntervalDays)
	require.Equal(t, int32(5), next.Repetitions)
	require.Less(t, next.EaseFactor, 2.5)
}

func TestNextReviewStateHardShrinksGrowth(t *testing.T) {
	entry := &store.SpacedRepetitionEntry{
		UserID: 7, QuestionID: 1,
		EaseFactor: 2.5, IntervalDays: 10,
	}
	next := NextReviewState(entry, 7, 1, QualityHard, reviewTime)
	require.Equal(t, int32(12), next.IntervalDays)
	require.Less(t, next.EaseFactor, 2.5)
	require.GreaterOrEqual(t, next.EaseFactor, MinEaseFactor)
}

func TestNextReviewStateEasyAccelerates(t *testing.T) {
	entry := &store.SpacedRepetitionEntry{
		UserID: 7, QuestionID: 1,
		EaseFactor: 2.5, IntervalDays: 10,
	}
	good := NextReviewState(entry, 7, 1, QualityGood, reviewTime)

	entry.IntervalDays = 10
	entry.EaseFactor = 2.5
	easy := NextReviewState(entry, 7, 1, QualityEasy, reviewTime)
	require.Greater(t, easy.IntervalDays, good.IntervalDays)
	require.Greater(t, easy.EaseFactor, 2.5)
}

func TestNextReviewStateEaseFactorFloor(t *testing.T) {
	entry := &store.SpacedRepetitionEntry{
		UserID: 7, QuestionID: 1,
		EaseFactor: 1.35, IntervalDays: 5,
	}
	for i := 0; i < 5; i++ {
		entry = NextReviewState(entry, 7, 1, QualityAgain, reviewTime)
		require.GreaterOrEqual(t, entry.EaseFactor, MinEaseFactor)
	}
}

func TestNextReviewStateIntervalCap(t *testing.T) {
	entry := &store.SpacedRepetitionEntry{
		UserID: 7, QuestionID: 1,
		EaseFactor: 2.5, IntervalDays: 300,
	}
	next := NextReviewState(entry, 7, 1, QualityEasy, reviewTime)
	require.Equal(t, int32(MaxIntervalDays), next.IntervalDays)
}

type MockStoreForSRS struct {
	entries   []*store.SpacedRepetitionEntry
	questions map[int32]*store.Question
	nextID    int32
}

func NewMockStoreForSRS() *MockStoreForSRS {
	return &MockStoreForSRS{questions: map[int32]*store.Question{}}
}

func (m *MockStoreForSRS) addQuestion(id int32, topics ...string) {
	m.questions[id] = &store.Question{ID: id, Topics: topics, Difficulty: store.Easy}
}

func (m *MockStoreForSRS) UpsertSpacedRepetitionEntry(_ context.Context, upsert *store.SpacedRepetitionEntry) (*store.SpacedRepetitionEntry, error) {
	for i, entry := range m.entries {
		if entry.UserID == upsert.UserID && entry.QuestionID == upsert.QuestionID {
			upsert.ID = entry.ID
			m.entries[i] = upsert
			return upsert, nil
		}
	}
	m.nextID++
	upsert.ID = m.nextID
	m.entries = append(m.entries, upsert)
	return upsert, nil
}

func (m *MockStoreForSRS) ListSpacedRepetitionEntries(_ context.Context, find *store.FindSpacedRepetitionEntry) ([]*store.SpacedRepetitionEntry, error) {
	var list []*store.SpacedRepetitionEntry
	for _, entry := range m.entries {
		if find.UserID != nil && entry.UserID != *find.UserID {
			continue
		}
		if find.QuestionID != nil && entry.QuestionID != *find.QuestionID {
			continue
		}
		if find.DueBefore != nil && entry.DueTs >= *find.DueBefore {
			continue
		}
		list = append(list, entry)
	}
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			if list[j].DueTs < list[i].DueTs {
				list[i], list[j] = list[j], list[i]
			}
		}
	}
	if find.Limit != nil && len(list) > *find.Limit {
		list = list[:*find.Limit]
	}
	return list, nil
}

func (m *MockStoreForSRS) GetSpacedRepetitionEntry(_ context.Context, userID, questionID int32) (*store.SpacedRepetitionEntry, error) {
	for _, entry := range m.entries {
		if entry.UserID == userID && entry.QuestionID == questionID {
			return entry, nil
		}
	}
	return nil, nil
}

func (m *MockStoreForSRS) ListQuestions(_ context.Context, find *store.FindQuestion) ([]*store.Question, error) {
	var list []*store.Question
	for _, id := range find.IDs {
		if question, ok := m.questions[id]; ok {
			list = append(list, question)
		}
	}
	return list, nil
}

func newTestScheduler(mock *MockStoreForSRS, now time.Time) *Service {
	service := NewService(mock)
	service.now = func() time.Time { return now }
	return service
}

func TestRecordOutcomePersistsState(t *testing.T) {
	ctx := context.Background()
	mock := NewMockStoreForSRS()
	mock.addQuestion(1, "biology")
	service := newTestScheduler(mock, reviewTime)

	first, err := service.RecordOutcome(ctx, 7, 1, QualityGood)
	require.NoError(t, err)
	require.Equal(t, int32(1), first.IntervalDays)

	second, err := service.RecordOutcome(ctx, 7, 1, QualityGood)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, int32(3), second.IntervalDays)
	require.Equal(t, int32(2), second.Repetitions)
}

func TestRecordOutcomeRejectsUnknownQuality(t *testing.T) {
	ctx := context.Background()
	service := newTestScheduler(NewMockStoreForSRS(), reviewTime)

	_, err := service.RecordOutcome(ctx, 7, 1, Quality(9))
	require.Error(t, err)
}

func TestRecordQuizResultGradesByCorrectness(t *testing.T) {
	ctx := context.Background()
	mock := NewMockStoreForSRS()
	mock.addQuestion(1, "biology")
	mock.addQuestion(2, "history")
	service := newTestScheduler(mock, reviewTime)

	err := service.RecordQuizResult(ctx, 7, &scoring.QuizResult{
		Breakdown: []scoring.QuestionResult{
			{QuestionID: 1, IsCorrect: true},
			{QuestionID: 2, IsCorrect: false},
		},
	})
	require.NoError(t, err)

	correct, _ := mock.GetSpacedRepetitionEntry(ctx, 7, 1)
	wrong, _ := mock.GetSpacedRepetitionEntry(ctx, 7, 2)
	require.Equal(t, int32(1), correct.IntervalDays)
	require.Equal(t, int32(1), wrong.IntervalDays)
	require.Greater(t, correct.EaseFactor, wrong.EaseFactor)
}

func TestDueQuestionsEarliestFirst(t *testing.T) {
	ctx := context.Background()
	mock := NewMockStoreForSRS()
	mock.addQuestion(1, "biology")
	mock.addQuestion(2, "history")
	mock.addQuestion(3, "math")
	mock.entries = []*store.SpacedRepetitionEntry{
		{ID: 1, UserID: 7, QuestionID: 1, DueTs: reviewTime.Add(-time.Hour).Unix()},
		{ID: 2, UserID: 7, QuestionID: 2, DueTs: reviewTime.Add(-48 * time.Hour).Unix()},
		{ID: 3, UserID: 7, QuestionID: 3, DueTs: reviewTime.Add(time.Hour).Unix()}, // not due
		{ID: 4, UserID: 8, QuestionID: 1, DueTs: reviewTime.Add(-time.Hour).Unix()},
	}
	service := newTestScheduler(mock, reviewTime)

	due, err := service.DueQuestions(ctx, 7, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	require.Equal(t, int32(2), due[0].ID)
	require.Equal(t, int32(1), due[1].ID)
}

func TestDueQuestionsEmpty(t *testing.T) {
	ctx := context.Background()
	service := newTestScheduler(NewMockStoreForSRS(), reviewTime)

	due, err := service.DueQuestions(ctx, 7, 10)
	require.NoError(t, err)
	require.Empty(t, due)
}

func TestPriorityTopicsWeighsStrugglingTopics(t *testing.T) {
	ctx := context.Background()
	mock := NewMockStoreForSRS()
	mock.addQuestion(1, "biology")
	mock.addQuestion(2, "history")
	mock.addQuestion(3, "math")
	mock.entries = []*store.SpacedRepetitionEntry{
		// Struggling: low ease, short interval.
		{ID: 1, UserID: 7, QuestionID: 1, EaseFactor: 1.3, IntervalDays: 1, DueTs: reviewTime.Add(-72 * time.Hour).Unix()},
		// Fine: default ease.
		{ID: 2, UserID: 7, QuestionID: 2, EaseFactor: 2.5, IntervalDays: 3, DueTs: reviewTime.Add(24 * time.Hour).Unix()},
		// Mastered: long interval keeps a small weight.
		{ID: 3, UserID: 7, QuestionID: 3, EaseFactor: 2.6, IntervalDays: 60, DueTs: reviewTime.Add(30 * 24 * time.Hour).Unix()},
	}
	service := newTestScheduler(mock, reviewTime)

	weights, err := service.TopicPriorities(ctx)
	require.NoError(t, err)
	require.Greater(t, weights["biology"], weights["history"])
	require.Greater(t, weights["history"], weights["math"])
	require.Greater(t, weights["math"], 0.0, "mastered topics keep a non-zero weight")

	topics := service.PriorityTopics(ctx, 2)
	require.Equal(t, []string{"biology", "history"}, topics)
}

func TestTopicPrioritiesFocusTopicsBoosted(t *testing.T) {
	ctx := context.Background()
	mock := NewMockStoreForSRS()
	mock.addQuestion(1, "biology")
	mock.addQuestion(2, "history")
	mock.entries = []*store.SpacedRepetitionEntry{
		{ID: 1, UserID: 7, QuestionID: 1, EaseFactor: 2.5, IntervalDays: 3, DueTs: reviewTime.Add(24 * time.Hour).Unix()},
		{ID: 2, UserID: 7, QuestionID: 2, EaseFactor: 2.5, IntervalDays: 3, DueTs: reviewTime.Add(24 * time.Hour).Unix()},
	}
	service := newTestScheduler(mock, reviewTime)

	plain, err := service.TopicPriorities(ctx)
	require.NoError(t, err)
	focused, err := service.TopicPriorities(ctx, "history")
	require.NoError(t, err)

	require.Equal(t, plain["biology"], focused["biology"])
	require.Equal(t, plain["history"]*2, focused["history"])
	require.Greater(t, focused["history"], focused["biology"])
}

func TestTopicPrioritiesFocusTopicsWithoutData(t *testing.T) {
	ctx := context.Background()
	service := newTestScheduler(NewMockStoreForSRS(), reviewTime)

	weights, err := service.TopicPriorities(ctx, "geography")
	require.NoError(t, err)
	require.Greater(t, weights["geography"], 0.0)
}

func TestPriorityTopicsEmptyScheduler(t *testing.T) {
	ctx := context.Background()
	service := newTestScheduler(NewMockStoreForSRS(), reviewTime)
	require.Nil(t, service.PriorityTopics(ctx, 5))
}
