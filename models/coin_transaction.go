package models

import "time"

// Coin transaction types.
const (
	TxInitialGrant = "initial_grant"
	TxPenalty      = "penalty"
	TxReward       = "reward"
	TxLock         = "lock"
	TxUnlock       = "unlock"
	TxAdjustment   = "adjustment"
)

// ValidTxType reports whether t is a known transaction type.
func ValidTxType(t string) bool {
	switch t {
	case TxInitialGrant, TxPenalty, TxReward, TxLock, TxUnlock, TxAdjustment:
		return true
	}
	return false
}

// CoinTransaction is an append-only audit record. Amount is signed.
type CoinTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Type        string    `gorm:"size:32;not null" json:"type"`
	Description string    `gorm:"size:255" json:"description"`
	GroupID     *uint     `gorm:"index" json:"group_id"`
	Reference   string    `gorm:"size:36;index" json:"reference"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// PenaltyRun marks that the penalty cascade already ran for a user on the day a break was detected.
type PenaltyRun struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_penalty_run_user_date,unique" json:"user_id"`
	BreakDate string    `gorm:"size:10;not null;index:idx_penalty_run_user_date,unique" json:"break_date"`
	CreatedAt time.Time `json:"created_at"`
}

// MigrateModels lists every table the service owns.
var MigrateModels = []any{
	&Profile{},
	&DailyLog{},
	&Group{},
	&GroupMember{},
	&CoinTransaction{},
	&PenaltyRun{},
}
