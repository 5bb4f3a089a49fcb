package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/streakholic/services"
	"github.com/cppla/streakholic/utils"
)

// StreakController exposes reconciliation and history sync.
type StreakController struct {
	reconciler *services.Reconciler
	history    *services.HistoryReconstructor
}

// NewStreakController creates a new controller instance.
func NewStreakController(reconciler *services.Reconciler, history *services.HistoryReconstructor) *StreakController {
	return &StreakController{reconciler: reconciler, history: history}
}

// Reconcile checks today's progress against the stats gateway.
func (s *StreakController) Reconcile(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	res := s.reconciler.Reconcile(ctx.Request.Context(), userID)
	if res.Err != nil {
		status, code := errorStatus(res.Err)
		utils.Respond(ctx, status, code, res.Message, res)
		return
	}
	utils.Success(ctx, res)
}

// Backfill rebuilds history from the submission calendar.
func (s *StreakController) Backfill(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	res := s.history.Backfill(ctx.Request.Context(), userID)
	if res.Err != nil {
		status, code := errorStatus(res.Err)
		if status == http.StatusInternalServerError {
			_ = ctx.Error(res.Err)
		}
		utils.Respond(ctx, status, code, res.Message, res)
		return
	}
	utils.Success(ctx, res)
}
