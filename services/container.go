package services

import (
	"time"

	"go.uber.org/zap"
)

// Options tune the service graph.
type Options struct {
	InitialGrant int64
	Location     *time.Location
	Now          Clock
}

// Container holds one instance of every service sharing a Store and Gateway.
type Container struct {
	Store      Store
	Gateway    Gateway
	Ledger     *Ledger
	Penalties  *PenaltyCascade
	Reconciler *Reconciler
	History    *HistoryReconstructor
	Groups     *Groups
	Profiles   *Profiles
}

// NewContainer wires the services over st and gw.
func NewContainer(st Store, gw Gateway, opts Options, logger *zap.Logger) *Container {
	if logger == nil {
		logger = zap.NewNop()
	}
	ledger := NewLedger(st, logger.Named("ledger"))
	penalties := NewPenaltyCascade(st, logger.Named("penalty"))
	return &Container{
		Store:      st,
		Gateway:    gw,
		Ledger:     ledger,
		Penalties:  penalties,
		Reconciler: NewReconciler(st, gw, penalties, opts.Now, opts.Location, logger.Named("reconciler")),
		History:    NewHistoryReconstructor(st, gw, logger.Named("history")),
		Groups:     NewGroups(st, ledger, logger.Named("groups")),
		Profiles:   NewProfiles(st, gw, opts.InitialGrant, logger.Named("profiles")),
	}
}
