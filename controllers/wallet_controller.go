package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/streakholic/services"
	"github.com/cppla/streakholic/utils"
)

// WalletController exposes the caller's coins.
type WalletController struct {
	ledger *services.Ledger
}

// NewWalletController creates a new controller instance.
func NewWalletController(ledger *services.Ledger) *WalletController {
	return &WalletController{ledger: ledger}
}

// Wallet returns balance, locked and available coins.
func (w *WalletController) Wallet(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	wallet, err := w.ledger.Wallet(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, wallet)
}

// Transactions returns the caller's audit trail, newest first.
func (w *WalletController) Transactions(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	txs, err := w.ledger.Transactions(ctx.Request.Context(), userID, queryLimit(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"transactions": txs})
}
