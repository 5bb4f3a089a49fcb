package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cppla/streakholic/models"
)

// 1792009800 = 2026-10-14T20:30:00Z = 2026-10-15T02:00:00+05:30
const lateEveningUTC = "1792009800"

func countingStatsServer(t *testing.T, solved *atomic.Int32, calendar map[string]int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":             "success",
			"totalSolved":        solved.Load(),
			"submissionCalendar": calendar,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchLiveStatsBypassesCache(t *testing.T) {
	var solved atomic.Int32
	solved.Store(10)
	srv := countingStatsServer(t, &solved, nil)
	cache := &memCache{}
	c := NewLeetCodeClient(srv.URL, time.Second, WithCache(cache, 5*time.Minute))
	ctx := context.Background()

	require.Equal(t, 10, c.FetchStats(ctx, "alice").TotalSolved)
	solved.Store(11)
	assert.Equal(t, 10, c.FetchStats(ctx, "alice").TotalSolved)
	assert.Equal(t, 11, c.FetchLiveStats(ctx, "alice").TotalSolved)
	// The live answer refreshes the cached entry.
	assert.Equal(t, 11, c.FetchStats(ctx, "alice").TotalSolved)
}

func TestReconcileSeesSolvesWithinCacheWindow(t *testing.T) {
	var solved atomic.Int32
	solved.Store(10)
	srv := countingStatsServer(t, &solved, nil)
	gw := NewLeetCodeClient(srv.URL, time.Second, WithCache(&memCache{}, 5*time.Minute))

	st := newTestStore(t)
	seedProfile(t, st, 1, "alice", 0)
	seedLog(t, st, 1, "2026-10-14", models.LogStatusSuccess, 10)
	clock := newTestClock("2026-10-15")
	r := NewReconciler(st, gw, NewPenaltyCascade(st, nil), clock.Now, nil, zaptest.NewLogger(t))
	ctx := context.Background()

	res := r.Reconcile(ctx, 1)
	require.Equal(t, StatusPending, res.Status, res.Message)

	solved.Store(11)
	res = r.Reconcile(ctx, 1)
	assert.Equal(t, StatusSuccess, res.Status, res.Message)
	assert.Equal(t, 1, res.Delta)
}

func TestCalendarDaysFollowClientLocation(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	var solved atomic.Int32
	solved.Store(3)
	srv := countingStatsServer(t, &solved, map[string]int{lateEveningUTC: 3})
	ctx := context.Background()

	utc := NewLeetCodeClient(srv.URL, time.Second).FetchStats(ctx, "alice")
	assert.Equal(t, map[string]int{"2026-10-14": 3}, utc.Calendar)

	local := NewLeetCodeClient(srv.URL, time.Second, WithLocation(kolkata)).FetchStats(ctx, "alice")
	assert.Equal(t, map[string]int{"2026-10-15": 3}, local.Calendar)
}

func TestBackfillAndReconcileShareDayBoundary(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	var solved atomic.Int32
	solved.Store(3)
	srv := countingStatsServer(t, &solved, map[string]int{lateEveningUTC: 3})
	gw := NewLeetCodeClient(srv.URL, time.Second, WithLocation(kolkata))

	st := newTestStore(t)
	seedProfile(t, st, 1, "alice", 0)
	clock := newTestClock("2026-10-15")
	ctx := context.Background()

	require.Equal(t, StatusSuccess, NewHistoryReconstructor(st, gw, nil).Backfill(ctx, 1).Status)
	r := NewReconciler(st, gw, NewPenaltyCascade(st, nil), clock.Now, kolkata, zaptest.NewLogger(t))
	r.Reconcile(ctx, 1)

	logs, err := st.RecentDailyLogs(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "2026-10-15", logs[0].Date)
	assert.Equal(t, models.LogStatusSuccess, logs[0].Status)
	assert.Equal(t, 3, logs[0].AcceptedSubmissions)
}
