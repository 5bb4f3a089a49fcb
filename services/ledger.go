package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cppla/streakholic/models"
	"github.com/cppla/streakholic/store"
)

// TxResult reports the wallet after a successful ledger operation.
type TxResult struct {
	Success     bool                   `json:"success"`
	NewBalance  int64                  `json:"new_balance"`
	Locked      int64                  `json:"locked"`
	Available   int64                  `json:"available"`
	Transaction models.CoinTransaction `json:"transaction"`
}

// Wallet is a read view of a profile's coins.
type Wallet struct {
	Balance   int64 `json:"coins_balance"`
	Locked    int64 `json:"coins_locked"`
	Available int64 `json:"available"`
}

// Ledger moves coins between available and locked and keeps the audit trail.
type Ledger struct {
	store  Store
	logger *zap.Logger
}

// NewLedger creates a ledger over st.
func NewLedger(st Store, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: st, logger: logger}
}

// CreateTransaction credits (amount > 0) or debits (amount < 0) a user's total balance.
// A debit must keep balance + amount >= locked, not merely >= 0: staked coins cannot be spent, so
// coins_locked <= coins_balance holds after every write. A debit that fails this check returns
// ErrInsufficientFunds and changes nothing. Locked coins are untouched.
func (l *Ledger) CreateTransaction(ctx context.Context, userID uint, amount int64, txType, description string, groupID *uint) (TxResult, error) {
	if !models.ValidTxType(txType) {
		return TxResult{}, fmt.Errorf("%w: %q", ErrInvalidTxType, txType)
	}
	if amount == 0 {
		return TxResult{}, ErrInvalidAmount
	}
	return l.apply(ctx, "transaction", store.LedgerEntry{
		UserID:       userID,
		BalanceDelta: amount,
		Transaction: models.CoinTransaction{
			Amount:      amount,
			Type:        txType,
			Description: description,
			GroupID:     groupID,
		},
	})
}

// Lock moves amount from available into locked. The total balance is unchanged; the audit row records -amount.
func (l *Ledger) Lock(ctx context.Context, userID uint, amount int64, description string, groupID *uint) (TxResult, error) {
	if amount <= 0 {
		return TxResult{}, ErrInvalidAmount
	}
	return l.apply(ctx, "lock", store.LedgerEntry{
		UserID:      userID,
		LockedDelta: amount,
		Transaction: models.CoinTransaction{
			Amount:      -amount,
			Type:        models.TxLock,
			Description: description,
			GroupID:     groupID,
		},
	})
}

// Unlock returns amount from locked to available.
func (l *Ledger) Unlock(ctx context.Context, userID uint, amount int64, description string, groupID *uint) (TxResult, error) {
	if amount <= 0 {
		return TxResult{}, ErrInvalidAmount
	}
	return l.apply(ctx, "unlock", store.LedgerEntry{
		UserID:      userID,
		LockedDelta: -amount,
		Transaction: models.CoinTransaction{
			Amount:      amount,
			Type:        models.TxUnlock,
			Description: description,
			GroupID:     groupID,
		},
	})
}

func (l *Ledger) apply(ctx context.Context, op string, entry store.LedgerEntry) (TxResult, error) {
	release := ledgerLocks.lock(entry.UserID)
	defer release()

	entry.Transaction.Reference = uuid.NewString()
	profile, err := l.store.ApplyLedgerEntry(ctx, entry)
	if err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			ledgerRejectionsTotal.WithLabelValues(op).Inc()
			return TxResult{}, ErrInsufficientFunds
		}
		l.logger.Error("ledger operation failed",
			zap.String("op", op), zap.Uint("user_id", entry.UserID), zap.Error(err))
		return TxResult{}, storeErr(op, err)
	}
	tx := entry.Transaction
	tx.UserID = entry.UserID
	return TxResult{
		Success:     true,
		NewBalance:  profile.CoinsBalance,
		Locked:      profile.CoinsLocked,
		Available:   profile.Available(),
		Transaction: tx,
	}, nil
}

// Wallet returns the user's balances.
func (l *Ledger) Wallet(ctx context.Context, userID uint) (Wallet, error) {
	p, err := l.store.GetProfile(ctx, userID)
	if err != nil {
		return Wallet{}, storeErr("load wallet", err)
	}
	return Wallet{Balance: p.CoinsBalance, Locked: p.CoinsLocked, Available: p.Available()}, nil
}

// Transactions returns the user's audit trail, newest first.
func (l *Ledger) Transactions(ctx context.Context, userID uint, limit int) ([]models.CoinTransaction, error) {
	txs, err := l.store.ListTransactions(ctx, userID, limit)
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	return txs, nil
}
