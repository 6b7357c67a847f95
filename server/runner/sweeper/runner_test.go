package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quizdeck/quizdeck/server/service/session"
	"github.com/quizdeck/quizdeck/store"
)

type sweepCalls struct {
	expireCutoff int64
	deleteBefore int64
	deleteCalled bool
}

func (s *sweepCalls) ExpireStaleSessions(_ context.Context, cutoffTs int64) (int64, error) {
	s.expireCutoff = cutoffTs
	return 2, nil
}

func (s *sweepCalls) DeleteDailyQuizzes(_ context.Context, delete *store.DeleteDailyQuiz) (int64, error) {
	s.deleteCalled = true
	s.deleteBefore = delete.CreatedBefore
	return 1, nil
}

func TestRunOnceSweepsWithCorrectCutoffs(t *testing.T) {
	calls := &sweepCalls{}
	runner := NewRunner(calls, 7)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	runner.now = func() time.Time { return now }

	runner.RunOnce(context.Background())

	require.Equal(t, now.Add(-session.TTL).Unix(), calls.expireCutoff)
	require.True(t, calls.deleteCalled)
	require.Equal(t, now.AddDate(0, 0, -7).Unix(), calls.deleteBefore)
}

func TestRunOnceRetentionDisabled(t *testing.T) {
	calls := &sweepCalls{}
	runner := NewRunner(calls, 0)
	runner.RunOnce(context.Background())
	require.False(t, calls.deleteCalled)
}
