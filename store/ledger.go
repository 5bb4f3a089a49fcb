package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/streakholic/models"
)

// LedgerEntry describes one guarded mutation of a profile's coin columns together with its audit row.
// The update only applies while the result keeps 0 <= locked <= balance.
type LedgerEntry struct {
	UserID       uint
	BalanceDelta int64
	LockedDelta  int64
	Transaction  models.CoinTransaction
}

// ApplyLedgerEntry atomically moves a profile's balance/locked columns and appends the audit row.
// Returns ErrConditionFailed when the move would break the balance invariant.
func (s *GormStore) ApplyLedgerEntry(ctx context.Context, entry LedgerEntry) (*models.Profile, error) {
	var out models.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyLedgerEntry(tx, entry); err != nil {
			return err
		}
		return tx.First(&out, entry.UserID).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func applyLedgerEntry(tx *gorm.DB, entry LedgerEntry) error {
	res := tx.Model(&models.Profile{}).
		Where("id = ?", entry.UserID).
		Where("coins_balance + ? >= coins_locked + ?", entry.BalanceDelta, entry.LockedDelta).
		Where("coins_locked + ? >= 0", entry.LockedDelta).
		Updates(map[string]any{
			"coins_balance": gorm.Expr("coins_balance + ?", entry.BalanceDelta),
			"coins_locked":  gorm.Expr("coins_locked + ?", entry.LockedDelta),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := tx.Model(&models.Profile{}).Where("id = ?", entry.UserID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrConditionFailed
	}
	txRow := entry.Transaction
	txRow.UserID = entry.UserID
	return tx.Create(&txRow).Error
}

// ListTransactions returns a user's audit trail, newest first.
func (s *GormStore) ListTransactions(ctx context.Context, userID uint, limit int) ([]models.CoinTransaction, error) {
	var txs []models.CoinTransaction
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// ApplyPenalty debits one membership's stake into its group's reward pool and the member's wallet.
// All four effects commit together or not at all.
func (s *GormStore) ApplyPenalty(ctx context.Context, member models.GroupMember, debit int64, record models.CoinTransaction) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.GroupMember{}).
			Where("id = ? AND locked_balance >= ?", member.ID, debit).
			Update("locked_balance", gorm.Expr("locked_balance - ?", debit))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConditionFailed
		}
		res = tx.Model(&models.Group{}).
			Where("id = ?", member.GroupID).
			Update("reward_pool", gorm.Expr("reward_pool + ?", debit))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return applyLedgerEntry(tx, LedgerEntry{
			UserID:       member.UserID,
			BalanceDelta: -debit,
			LockedDelta:  -debit,
			Transaction:  record,
		})
	})
	return translate(err)
}

// RecordPenaltyRun claims the (user, break date) slot. It reports false when the slot was already taken.
func (s *GormStore) RecordPenaltyRun(ctx context.Context, userID uint, breakDate string) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.PenaltyRun{UserID: userID, BreakDate: breakDate})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}
