package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cppla/streakholic/models"
)

func TestBackfillWritesCalendarDays(t *testing.T) {
	st := newTestStore(t)
	gw := newFakeGateway()
	ctx := context.Background()
	seedProfile(t, st, 1, "alice", 0)
	gw.set("alice", Stats{Valid: true, TotalSolved: 300, Calendar: map[string]int{
		"2024-03-01": 2, "2024-03-02": 5, "2024-03-03": 1,
		"2024-03-06": 4, "2024-03-07": 3,
	}})

	res := NewHistoryReconstructor(st, gw, zaptest.NewLogger(t)).Backfill(ctx, 1)
	require.NoError(t, res.Err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 5, res.Count)

	p := loadProfile(t, st, 1)
	assert.Equal(t, 3, p.LongestStreak)
	assert.Equal(t, 5, p.TotalActiveDays)

	logs, err := st.RecentDailyLogs(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, logs, 5)
	assert.Equal(t, "2024-03-07", logs[0].Date)
	for _, l := range logs {
		assert.Equal(t, models.LogStatusSuccess, l.Status)
		assert.Equal(t, 300, l.ProblemsSolved)
	}
	assert.Equal(t, 3, logs[0].AcceptedSubmissions)
}

func TestBackfillTwiceDoesNotDuplicate(t *testing.T) {
	st := newTestStore(t)
	gw := newFakeGateway()
	ctx := context.Background()
	seedProfile(t, st, 1, "alice", 0)
	h := NewHistoryReconstructor(st, gw, zaptest.NewLogger(t))

	gw.set("alice", Stats{Valid: true, TotalSolved: 10, Calendar: map[string]int{"2024-03-01": 1, "2024-03-02": 1}})
	require.Equal(t, StatusSuccess, h.Backfill(ctx, 1).Status)

	gw.set("alice", Stats{Valid: true, TotalSolved: 12, Calendar: map[string]int{"2024-03-02": 2, "2024-03-03": 1}})
	res := h.Backfill(ctx, 1)
	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 2, res.Count)

	logs, err := st.RecentDailyLogs(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "2024-03-03", logs[0].Date)
	assert.Equal(t, 12, logs[1].ProblemsSolved)
	assert.Equal(t, 2, logs[1].AcceptedSubmissions)
	assert.Equal(t, 10, logs[2].ProblemsSolved)
}

func TestUpsertNeverDowngradesSuccess(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedProfile(t, st, 1, "alice", 0)
	seedLog(t, st, 1, "2024-03-02", models.LogStatusSuccess, 8)

	seedLog(t, st, 1, "2024-03-02", models.LogStatusPending, 9)
	logs, err := st.RecentDailyLogs(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.LogStatusSuccess, logs[0].Status)
	assert.Equal(t, 9, logs[0].ProblemsSolved)
}

func TestBackfillEmptyCalendar(t *testing.T) {
	st := newTestStore(t)
	gw := newFakeGateway()
	seedProfile(t, st, 1, "alice", 0)
	gw.set("alice", Stats{Valid: true, TotalSolved: 0})

	res := NewHistoryReconstructor(st, gw, zaptest.NewLogger(t)).Backfill(context.Background(), 1)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 0, res.Count)
	assert.Equal(t, "No history to sync.", res.Message)
}

func TestBackfillErrors(t *testing.T) {
	st := newTestStore(t)
	gw := newFakeGateway()
	seedProfile(t, st, 1, "", 0)
	seedProfile(t, st, 2, "ghost", 0)
	h := NewHistoryReconstructor(st, gw, zaptest.NewLogger(t))

	res := h.Backfill(context.Background(), 1)
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, ErrLinkRequired)

	res = h.Backfill(context.Background(), 2)
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, ErrGatewayUnavailable)
}

func TestBackfillThenReconcileUsesNewestDay(t *testing.T) {
	st := newTestStore(t)
	gw := newFakeGateway()
	ctx := context.Background()
	seedProfile(t, st, 1, "alice", 0)
	gw.set("alice", Stats{Valid: true, TotalSolved: 50, Calendar: map[string]int{"2024-03-08": 1, "2024-03-09": 2}})
	require.Equal(t, StatusSuccess, NewHistoryReconstructor(st, gw, nil).Backfill(ctx, 1).Status)

	clock := newTestClock("2024-03-10")
	r := NewReconciler(st, gw, NewPenaltyCascade(st, nil), clock.Now, nil, zaptest.NewLogger(t))
	gw.setSolved("alice", 51)
	res := r.Reconcile(ctx, 1)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 1, res.Delta)
}
