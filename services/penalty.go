package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cppla/streakholic/models"
)

// PenaltySummary reports one cascade pass.
type PenaltySummary struct {
	Applied int   `json:"applied"`
	Failed  int   `json:"failed"`
	Debited int64 `json:"debited"`
}

// PenaltyCascade debits every coin-staked membership of a user that missed a day.
type PenaltyCascade struct {
	store  Store
	logger *zap.Logger
}

// NewPenaltyCascade creates a cascade over st.
func NewPenaltyCascade(st Store, logger *zap.Logger) *PenaltyCascade {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PenaltyCascade{store: st, logger: logger}
}

// ApplyForBreak runs the cascade at most once per (user, breakDate). ran is false when a previous call
// already claimed the key.
func (p *PenaltyCascade) ApplyForBreak(ctx context.Context, userID uint, breakDate string) (summary PenaltySummary, ran bool, err error) {
	claimed, err := p.store.RecordPenaltyRun(ctx, userID, breakDate)
	if err != nil {
		return PenaltySummary{}, false, storeErr("record penalty run", err)
	}
	if !claimed {
		p.logger.Debug("penalties already applied for break",
			zap.Uint("user_id", userID), zap.String("break_date", breakDate))
		return PenaltySummary{}, false, nil
	}
	return p.ApplyPenalties(ctx, userID), true, nil
}

// ApplyPenalties visits each coin-enabled membership with a positive penalty and stake and debits
// min(daily_penalty, locked_balance). A failing membership is logged and skipped.
func (p *PenaltyCascade) ApplyPenalties(ctx context.Context, userID uint) PenaltySummary {
	var summary PenaltySummary
	memberships, err := p.store.ListMemberships(ctx, userID)
	if err != nil {
		p.logger.Error("load memberships for penalty", zap.Uint("user_id", userID), zap.Error(err))
		return summary
	}

	for _, m := range memberships {
		g := m.Group
		if !g.IsCoinEnabled || g.DailyPenalty <= 0 || m.LockedBalance <= 0 {
			continue
		}
		debit := min(g.DailyPenalty, m.LockedBalance)
		if debit <= 0 {
			continue
		}
		if err := p.applyOne(ctx, m, debit); err != nil {
			summary.Failed++
			penaltiesTotal.WithLabelValues("failed").Inc()
			p.logger.Error("failed to apply penalty",
				zap.Uint("user_id", userID), zap.Uint("group_id", g.ID), zap.Int64("debit", debit), zap.Error(err))
			continue
		}
		summary.Applied++
		summary.Debited += debit
		penaltiesTotal.WithLabelValues("applied").Inc()
		penaltyCoinsTotal.Add(float64(debit))
		p.logger.Info("applied penalty",
			zap.Uint("user_id", userID), zap.Uint("group_id", g.ID), zap.Int64("debit", debit))
	}
	return summary
}

func (p *PenaltyCascade) applyOne(ctx context.Context, m models.GroupMember, debit int64) error {
	release := ledgerLocks.lock(m.UserID)
	defer release()

	record := models.CoinTransaction{
		Amount:      -debit,
		Type:        models.TxPenalty,
		Description: fmt.Sprintf("Missed streak in %s", m.Group.Name),
		GroupID:     &m.GroupID,
		Reference:   uuid.NewString(),
	}
	if err := p.store.ApplyPenalty(ctx, m, debit, record); err != nil {
		return storeErr("apply penalty", err)
	}
	return nil
}
