package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quizdeck/quizdeck/store"
)

type fixedStore struct{}

func (fixedStore) CountQuestions(_ context.Context, find *store.FindQuestion) (int, error) {
	if len(find.Difficulties) == 1 {
		switch find.Difficulties[0] {
		case store.Easy:
			return 40, nil
		case store.Medium:
			return 35, nil
		case store.Hard:
			return 15, nil
		}
	}
	if find.ApprovedOnly {
		return 90, nil
	}
	return 120, nil
}

func (fixedStore) ListDailyQuizzes(_ context.Context, _ *store.FindDailyQuiz) ([]*store.DailyQuiz, error) {
	now := time.Now().Unix()
	return []*store.DailyQuiz{
		{ID: 1, CreatedTs: now - 86400},
		{ID: 2, CreatedTs: now - 30*86400},
	}, nil
}

func (fixedStore) ListQuizSessions(_ context.Context, _ *store.FindQuizSession) ([]*store.QuizSession, error) {
	return []*store.QuizSession{{ID: 1}, {ID: 2}, {ID: 3}}, nil
}

func (fixedStore) ListCompletionEvents(_ context.Context, _ *store.FindCompletionEvent) ([]*store.CompletionEvent, error) {
	now := time.Now().Unix()
	return []*store.CompletionEvent{{ID: 1, CreatedTs: now - 3600}}, nil
}

func TestCollectSnapshot(t *testing.T) {
	collector := NewCollector(fixedStore{})
	collector.Collect(context.Background())

	snapshot := collector.GetStats()
	require.Equal(t, int64(120), snapshot.TotalQuestions)
	require.Equal(t, int64(90), snapshot.ApprovedQuestions)
	require.Equal(t, int64(40), snapshot.EasyQuestions)
	require.Equal(t, int64(35), snapshot.MediumQuestions)
	require.Equal(t, int64(15), snapshot.HardQuestions)
	require.Equal(t, int64(1), snapshot.QuizzesLastWeek)
	require.Equal(t, int64(3), snapshot.SessionsLastWeek)
	require.Equal(t, int64(1), snapshot.CompletionsLastWeek)
	require.False(t, snapshot.LastUpdated.IsZero())
}
