package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streakholic_reconciliations_total",
		Help: "Streak reconciliations by resulting status",
	}, []string{"status"})
	backfillDaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streakholic_backfill_days_total",
		Help: "Calendar days written by history backfills",
	})
	penaltiesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streakholic_penalties_total",
		Help: "Per-membership penalty attempts by result",
	}, []string{"result"})
	penaltyCoinsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streakholic_penalty_coins_total",
		Help: "Coins moved from stakes into reward pools",
	})
	gatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streakholic_gateway_requests_total",
		Help: "Stats gateway lookups by result",
	}, []string{"result"})
	ledgerRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streakholic_ledger_rejections_total",
		Help: "Ledger operations rejected for insufficient funds",
	}, []string{"op"})
)
