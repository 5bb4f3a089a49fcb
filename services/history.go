package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/streakholic/models"
)

// BackfillResult reports a history sync. Err carries the cause when Status is error.
type BackfillResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Count   int    `json:"count"`
	Err     error  `json:"-"`
}

// HistoryReconstructor backfills daily logs from the gateway's submission calendar.
//
// The calendar counts submissions, not newly solved problems, so historical cumulative totals cannot be
// derived. Every backfilled day therefore stores the current total as its snapshot: older snapshots are
// inaccurate, but the next reconciliation's delta against the newest backfilled day stays correct.
type HistoryReconstructor struct {
	store   Store
	gateway Gateway
	logger  *zap.Logger
}

// NewHistoryReconstructor wires a reconstructor.
func NewHistoryReconstructor(st Store, gw Gateway, logger *zap.Logger) *HistoryReconstructor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryReconstructor{store: st, gateway: gw, logger: logger}
}

// Backfill never fails: internal errors are reported with Status=error.
func (h *HistoryReconstructor) Backfill(ctx context.Context, userID uint) BackfillResult {
	res, err := h.backfill(ctx, userID)
	if err != nil {
		h.logger.Warn("history sync failed", zap.Uint("user_id", userID), zap.Error(err))
		return BackfillResult{Status: StatusError, Message: err.Error(), Err: err}
	}
	return res
}

func (h *HistoryReconstructor) backfill(ctx context.Context, userID uint) (BackfillResult, error) {
	started := time.Now()
	profile, err := h.store.GetProfile(ctx, userID)
	if err != nil {
		return BackfillResult{}, storeErr("load profile", err)
	}
	if !profile.HasHandle() {
		return BackfillResult{}, ErrLinkRequired
	}

	stats := h.gateway.FetchLiveStats(ctx, *profile.Handle)
	if !stats.Valid {
		return BackfillResult{}, fmt.Errorf("%w: %s", ErrGatewayUnavailable, stats.Message)
	}

	days := stats.CalendarDays()
	if len(days) == 0 {
		return BackfillResult{Status: StatusSuccess, Message: "No history to sync."}, nil
	}

	logs := make([]models.DailyLog, 0, len(days))
	for _, d := range days {
		logs = append(logs, models.DailyLog{
			UserID:              userID,
			Date:                d,
			Status:              models.LogStatusSuccess,
			ProblemsSolved:      stats.TotalSolved,
			AcceptedSubmissions: stats.Calendar[d],
		})
	}
	if err := h.store.UpsertDailyLogs(ctx, logs); err != nil {
		return BackfillResult{}, storeErr("upsert history", err)
	}

	// Recomputed from this pull alone; an incomplete calendar can lower a previously higher value.
	longest := LongestRun(days)
	err = h.store.UpdateProfile(ctx, userID, map[string]any{
		"longest_streak":    longest,
		"total_active_days": len(days),
	})
	if err != nil {
		return BackfillResult{}, storeErr("update profile stats", err)
	}

	backfillDaysTotal.Add(float64(len(days)))
	h.logger.Info("history synced",
		zap.Uint("user_id", userID), zap.Int("days", len(days)), zap.Int("longest_streak", longest),
		zap.Duration("took", time.Since(started)))
	return BackfillResult{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Synced %d days of history.", len(days)),
		Count:   len(days),
	}, nil
}
