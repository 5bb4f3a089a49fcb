package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cppla/streakholic/models"
	"github.com/cppla/streakholic/store"
)

type reconcileFixture struct {
	store      *store.GormStore
	gateway    *fakeGateway
	clock      *testClock
	reconciler *Reconciler
}

func newReconcileFixture(t *testing.T, today string) *reconcileFixture {
	t.Helper()
	st := newTestStore(t)
	gw := newFakeGateway()
	clock := newTestClock(today)
	logger := zaptest.NewLogger(t)
	penalties := NewPenaltyCascade(st, logger)
	return &reconcileFixture{
		store:      st,
		gateway:    gw,
		clock:      clock,
		reconciler: NewReconciler(st, gw, penalties, clock.Now, nil, logger),
	}
}

func TestReconcileFirstDayIsPending(t *testing.T) {
	f := newReconcileFixture(t, "2024-03-10")
	seedProfile(t, f.store, 1, "alice", 0)
	f.gateway.setSolved("alice", 250)

	res := f.reconciler.Reconcile(context.Background(), 1)
	require.NoError(t, res.Err)
	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, 0, res.Delta)

	p := loadProfile(t, f.store, 1)
	assert.Equal(t, 0, p.CurrentStreak)
	assert.Nil(t, p.LastActivityDate)

	logs, err := f.store.RecentDailyLogs(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "2024-03-10", logs[0].Date)
	assert.Equal(t, models.LogStatusPending, logs[0].Status)
	assert.Equal(t, 250, logs[0].ProblemsSolved)
}

func TestReconcileFirstDayStaysPendingAfterMoreSolves(t *testing.T) {
	f := newReconcileFixture(t, "2024-03-10")
	seedProfile(t, f.store, 1, "alice", 0)
	f.gateway.setSolved("alice", 250)
	require.Equal(t, StatusPending, f.reconciler.Reconcile(context.Background(), 1).Status)

	f.gateway.setSolved("alice", 260)
	res := f.reconciler.Reconcile(context.Background(), 1)
	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, 0, loadProfile(t, f.store, 1).CurrentStreak)
}

func TestReconcileSuccessAgainstYesterday(t *testing.T) {
	f := newReconcileFixture(t, "2024-03-10")
	seedProfile(t, f.store, 1, "alice", 0)
	seedLog(t, f.store, 1, "2024-03-09", models.LogStatusSuccess, 100)
	f.gateway.setSolved("alice", 103)

	res := f.reconciler.Reconcile(context.Background(), 1)
	require.NoError(t, res.Err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 3, res.Delta)

	p := loadProfile(t, f.store, 1)
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 1, p.LongestStreak)
	require.NotNil(t, p.LastActivityDate)
	assert.Equal(t, "2024-03-10", *p.LastActivityDate)
	assert.Equal(t, 2, p.TotalActiveDays)
}

func TestReconcileSameDayIncrementsOnce(t *testing.T) {
	f := newReconcileFixture(t, "2024-03-10")
	seedProfile(t, f.store, 1, "alice", 0)
	seedLog(t, f.store, 1, "2024-03-09", models.LogStatusSuccess, 100)
	f.gateway.setSolved("alice", 101)

	for i := 0; i < 3; i++ {
		res := f.reconciler.Reconcile(context.Background(), 1)
		require.Equal(t, StatusSuccess, res.Status)
	}
	assert.Equal(t, 1, loadProfile(t, f.store, 1).CurrentStreak)

	logs, err := f.store.RecentDailyLogs(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestReconcileNoProgressIsPendingAndKeepsSuccess(t *testing.T) {
	f := newReconcileFixture(t, "2024-03-10")
	seedProfile(t, f.store, 1, "alice", 0)
	seedLog(t, f.store, 1, "2024-03-09", models.LogStatusSuccess, 100)
	f.gateway.setSolved("alice", 102)
	require.Equal(t, StatusSuccess, f.reconciler.Reconcile(context.Background(), 1).Status)

	// A later call computes against yesterday again, never against today's own row.
	res := f.reconciler.Reconcile(context.Background(), 1)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 2, res.Delta)

	f.clock.advanceDays(1)
	res = f.reconciler.Reconcile(context.Background(), 1)
	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, 0, res.Delta)

	today, err := f.store.RecentDailyLogs(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, models.LogStatusPending, today[0].Status)
}

func TestReconcileConsecutiveDaysBuildStreak(t *testing.T) {
	f := newReconcileFixture(t, "2024-03-10")
	seedProfile(t, f.store, 1, "alice", 0)
	f.gateway.setSolved("alice", 10)
	require.Equal(t, StatusPending, f.reconciler.Reconcile(context.Background(), 1).Status)

	for day, solved := range []int{11, 13, 14} {
		f.clock.advanceDays(1)
		f.gateway.setSolved("alice", solved)
		res := f.reconciler.Reconcile(context.Background(), 1)
		require.Equal(t, StatusSuccess, res.Status, "day %d", day)
	}
	p := loadProfile(t, f.store, 1)
	assert.Equal(t, 3, p.CurrentStreak)
	assert.Equal(t, 3, p.LongestStreak)
	assert.Equal(t, 3, p.TotalActiveDays)
}

func TestReconcileBreakResetsStreakAndPenalizesOnce(t *testing.T) {
	f := newReconcileFixture(t, "2024-03-10")
	ctx := context.Background()
	seedProfile(t, f.store, 1, "alice", 100)
	require.NoError(t, f.store.UpdateProfile(ctx, 1, map[string]any{"current_streak": 5, "longest_streak": 7}))
	seedLog(t, f.store, 1, "2024-03-07", models.LogStatusSuccess, 100)

	g := stakedGroup(t, f.store, "Night Owls", 20, 10)
	joinWithStake(t, f.store, g, 1, 20)
	f.gateway.setSolved("alice", 100)

	res := f.reconciler.Reconcile(ctx, 1)
	require.NoError(t, res.Err)
	assert.Equal(t, StatusPending, res.Status)

	p := loadProfile(t, f.store, 1)
	assert.Equal(t, 0, p.CurrentStreak)
	assert.Equal(t, 7, p.LongestStreak)
	assert.Equal(t, int64(90), p.CoinsBalance)
	assert.Equal(t, int64(10), p.CoinsLocked)

	// Same-day repeats must not penalize again.
	res = f.reconciler.Reconcile(ctx, 1)
	require.NoError(t, res.Err)
	p = loadProfile(t, f.store, 1)
	assert.Equal(t, int64(90), p.CoinsBalance)
	assert.Equal(t, int64(10), p.CoinsLocked)

	group, err := f.store.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), group.RewardPool)

	txs, err := f.store.ListTransactions(ctx, 1, 0)
	require.NoError(t, err)
	penalties := 0
	for _, tx := range txs {
		if tx.Type == models.TxPenalty {
			penalties++
		}
	}
	assert.Equal(t, 1, penalties)
}

func TestReconcileBreakWithSuccessTodayStillPenalizes(t *testing.T) {
	f := newReconcileFixture(t, "2024-03-10")
	ctx := context.Background()
	seedProfile(t, f.store, 1, "alice", 50)
	seedLog(t, f.store, 1, "2024-03-05", models.LogStatusSuccess, 40)
	g := stakedGroup(t, f.store, "Grinders", 10, 5)
	joinWithStake(t, f.store, g, 1, 10)
	f.gateway.setSolved("alice", 42)

	res := f.reconciler.Reconcile(ctx, 1)
	assert.Equal(t, StatusSuccess, res.Status)

	p := loadProfile(t, f.store, 1)
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, int64(45), p.CoinsBalance)
	assert.Equal(t, int64(5), p.CoinsLocked)
}

func TestReconcileRequiresLinkedHandle(t *testing.T) {
	f := newReconcileFixture(t, "2024-03-10")
	seedProfile(t, f.store, 1, "", 0)

	res := f.reconciler.Reconcile(context.Background(), 1)
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, ErrLinkRequired)
	assert.Equal(t, 0, f.gateway.calls)
}

func TestReconcileGatewayFailure(t *testing.T) {
	f := newReconcileFixture(t, "2024-03-10")
	seedProfile(t, f.store, 1, "ghost", 0)

	res := f.reconciler.Reconcile(context.Background(), 1)
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, ErrGatewayUnavailable)
	assert.NotEmpty(t, res.Message)

	logs, err := f.store.RecentDailyLogs(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestReconcileUnknownProfile(t *testing.T) {
	f := newReconcileFixture(t, "2024-03-10")
	res := f.reconciler.Reconcile(context.Background(), 99)
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, ErrNotFound)
}

func stakedGroup(t *testing.T, st *store.GormStore, name string, stake, penalty int64) *models.Group {
	t.Helper()
	g := &models.Group{
		Name:          name,
		InviteCode:    strings.ToUpper("C" + name[:3]),
		CreatedBy:     1,
		IsCoinEnabled: true,
		StakeAmount:   stake,
		DailyPenalty:  penalty,
	}
	require.NoError(t, st.CreateGroup(context.Background(), g))
	return g
}

// joinWithStake inserts a membership and locks its stake without going through Groups.
func joinWithStake(t *testing.T, st *store.GormStore, g *models.Group, userID uint, locked int64) *models.GroupMember {
	t.Helper()
	ctx := context.Background()
	_, err := st.ApplyLedgerEntry(ctx, store.LedgerEntry{
		UserID:      userID,
		LockedDelta: locked,
		Transaction: models.CoinTransaction{Amount: -locked, Type: models.TxLock, GroupID: &g.ID},
	})
	require.NoError(t, err)
	m := &models.GroupMember{GroupID: g.ID, UserID: userID, Role: models.RoleMember, LockedBalance: locked}
	require.NoError(t, st.CreateMembership(ctx, m))
	return m
}
