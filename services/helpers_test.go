package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cppla/streakholic/models"
	"github.com/cppla/streakholic/store"
)

var dbSeq atomic.Int64

func newTestStore(t *testing.T) *store.GormStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
	db, err := store.OpenSQLite(dsn, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return store.New(db)
}

// fakeGateway returns canned stats per handle and counts lookups.
type fakeGateway struct {
	mu    sync.Mutex
	stats map[string]Stats
	calls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{stats: map[string]Stats{}}
}

func (g *fakeGateway) set(handle string, st Stats) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats[handle] = st
}

func (g *fakeGateway) setSolved(handle string, total int) {
	g.set(handle, Stats{Valid: true, TotalSolved: total, Calendar: map[string]int{}})
}

func (g *fakeGateway) FetchLiveStats(ctx context.Context, handle string) Stats {
	return g.FetchStats(ctx, handle)
}

func (g *fakeGateway) FetchStats(_ context.Context, handle string) Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	st, ok := g.stats[handle]
	if !ok {
		return Stats{Message: "user not found"}
	}
	return st
}

// testClock is a settable Clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(day string) *testClock {
	ts, err := time.Parse(dayLayout, day)
	if err != nil {
		panic(err)
	}
	return &testClock{now: ts.Add(12 * time.Hour)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) advanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}

func seedProfile(t *testing.T, st *store.GormStore, id uint, handle string, balance int64) *models.Profile {
	t.Helper()
	p := &models.Profile{ID: id, Username: fmt.Sprintf("user%d", id), CoinsBalance: balance}
	if handle != "" {
		p.Handle = &handle
	}
	require.NoError(t, st.CreateProfile(context.Background(), p))
	return p
}

func seedLog(t *testing.T, st *store.GormStore, userID uint, day, status string, solved int) {
	t.Helper()
	require.NoError(t, st.UpsertDailyLogs(context.Background(), []models.DailyLog{{
		UserID: userID, Date: day, Status: status, ProblemsSolved: solved,
	}}))
}

func loadProfile(t *testing.T, st *store.GormStore, id uint) *models.Profile {
	t.Helper()
	p, err := st.GetProfile(context.Background(), id)
	require.NoError(t, err)
	return p
}
