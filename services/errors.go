package services

import (
	"errors"
	"fmt"

	"github.com/cppla/streakholic/store"
)

var (
	ErrLinkRequired        = errors.New("no linked leetcode handle")
	ErrGatewayUnavailable  = errors.New("could not verify handle with the stats gateway")
	ErrInvalidCode         = errors.New("invalid invite code")
	ErrAlreadyMember       = errors.New("already a member of this group")
	ErrInsufficientFunds   = errors.New("insufficient coins")
	ErrStore               = errors.New("store failure")
	ErrNotFound            = errors.New("not found")
	ErrHandleTaken         = errors.New("handle is already linked to another user")
	ErrHandleAlreadyLinked = errors.New("profile already has a linked handle")
	ErrProfileExists       = errors.New("profile already exists")
	ErrInvalidAmount       = errors.New("invalid coin amount")
	ErrInvalidTxType       = errors.New("unknown transaction type")
	ErrInvalidGroup        = errors.New("invalid group settings")
)

// storeErr maps persistence errors onto the service taxonomy.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStore, err)
}
