package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/streakholic/models"
	"github.com/cppla/streakholic/store"
)

// Reconciliation outcomes.
const (
	StatusSuccess = "success"
	StatusPending = "pending"
	StatusError   = "error"
)

// ReconcileResult is the outcome of one reconciliation. Err carries the cause when Status is error.
type ReconcileResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Delta   int    `json:"delta"`
	Err     error  `json:"-"`
}

// Reconciler turns the external cumulative solved counter into a daily success/pending signal
// and maintains the profile's streak counters.
type Reconciler struct {
	store     Store
	gateway   Gateway
	penalties *PenaltyCascade
	cal       calendar
	logger    *zap.Logger
}

// NewReconciler wires a reconciler. now and loc define "today"; nil selects time.Now and UTC.
func NewReconciler(st Store, gw Gateway, penalties *PenaltyCascade, now Clock, loc *time.Location, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:     st,
		gateway:   gw,
		penalties: penalties,
		cal:       newCalendar(now, loc),
		logger:    logger,
	}
}

// Reconcile never fails: internal errors are reported with Status=error.
func (r *Reconciler) Reconcile(ctx context.Context, userID uint) ReconcileResult {
	res, err := r.reconcile(ctx, userID)
	if err != nil {
		r.logger.Warn("streak reconciliation failed", zap.Uint("user_id", userID), zap.Error(err))
		res = ReconcileResult{Status: StatusError, Message: err.Error(), Err: err}
	}
	reconcileTotal.WithLabelValues(res.Status).Inc()
	return res
}

func (r *Reconciler) reconcile(ctx context.Context, userID uint) (ReconcileResult, error) {
	profile, err := r.store.GetProfile(ctx, userID)
	if err != nil {
		return ReconcileResult{}, storeErr("load profile", err)
	}
	if !profile.HasHandle() {
		return ReconcileResult{}, ErrLinkRequired
	}

	logs, err := r.store.RecentDailyLogs(ctx, userID, 2)
	if err != nil {
		return ReconcileResult{}, storeErr("load recent logs", err)
	}

	stats := r.gateway.FetchLiveStats(ctx, *profile.Handle)
	if !stats.Valid {
		return ReconcileResult{}, fmt.Errorf("%w: %s", ErrGatewayUnavailable, stats.Message)
	}
	live := stats.TotalSolved
	today := r.cal.today()

	// Baseline is the newest snapshot strictly before today.
	var previous *models.DailyLog
	for i := range logs {
		if logs[i].Date < today {
			previous = &logs[i]
			break
		}
	}
	firstDay := previous == nil
	baseline := live
	if !firstDay {
		baseline = previous.ProblemsSolved
	}
	delta := live - baseline

	if err := r.detectBreak(ctx, profile, today); err != nil {
		return ReconcileResult{}, err
	}

	res := ReconcileResult{Status: StatusPending, Message: "No new problems solved yet today.", Delta: delta}
	switch {
	case firstDay:
		res.Message = "Welcome! Activity tracking starts tomorrow. Solved count saved."
	case delta > 0:
		res.Status = StatusSuccess
		res.Message = fmt.Sprintf("Streak active! You solved %d problems.", delta)
	}

	err = r.store.UpsertDailyLogs(ctx, []models.DailyLog{{
		UserID:              userID,
		Date:                today,
		Status:              res.Status,
		ProblemsSolved:      live,
		AcceptedSubmissions: stats.Calendar[today],
	}})
	if err != nil {
		return ReconcileResult{}, storeErr("upsert today's log", err)
	}

	if res.Status == StatusSuccess && (profile.LastActivityDate == nil || *profile.LastActivityDate != today) {
		if err := r.recordActiveDay(ctx, profile, today); err != nil {
			return ReconcileResult{}, err
		}
	}
	return res, nil
}

// detectBreak resets the streak and runs the penalty cascade when the newest success is more than
// one calendar day old. Penalties run once per (user, today) no matter how many days were missed.
func (r *Reconciler) detectBreak(ctx context.Context, profile *models.Profile, today string) error {
	lastSuccess, err := r.store.LatestDailyLogWithStatus(ctx, profile.ID, models.LogStatusSuccess)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storeErr("load last success", err)
	}
	gap, ok := DaysBetween(lastSuccess.Date, today)
	if !ok || gap <= 1 {
		return nil
	}

	if err := r.store.UpdateProfile(ctx, profile.ID, map[string]any{"current_streak": 0}); err != nil {
		return storeErr("reset streak", err)
	}
	profile.CurrentStreak = 0
	r.logger.Info("streak broken",
		zap.Uint("user_id", profile.ID), zap.String("last_success", lastSuccess.Date), zap.Int("gap_days", gap))

	if r.penalties == nil {
		return nil
	}
	summary, ran, err := r.penalties.ApplyForBreak(ctx, profile.ID, today)
	if err != nil {
		return err
	}
	if ran {
		r.logger.Info("penalty pass finished",
			zap.Uint("user_id", profile.ID), zap.Int("applied", summary.Applied),
			zap.Int("failed", summary.Failed), zap.Int64("debited", summary.Debited))
	}
	return nil
}

func (r *Reconciler) recordActiveDay(ctx context.Context, profile *models.Profile, today string) error {
	streak := profile.CurrentStreak + 1
	longest := max(profile.LongestStreak, streak)
	active, err := r.store.CountDailyLogs(ctx, profile.ID, models.LogStatusSuccess)
	if err != nil {
		return storeErr("count active days", err)
	}
	err = r.store.UpdateProfile(ctx, profile.ID, map[string]any{
		"current_streak":     streak,
		"longest_streak":     longest,
		"last_activity_date": today,
		"total_active_days":  int(active),
	})
	if err != nil {
		return storeErr("update streak", err)
	}
	profile.CurrentStreak = streak
	profile.LongestStreak = longest
	profile.LastActivityDate = &today
	profile.TotalActiveDays = int(active)
	return nil
}
