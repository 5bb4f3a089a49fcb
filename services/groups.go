package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cppla/streakholic/models"
	"github.com/cppla/streakholic/store"
	"github.com/cppla/streakholic/utils"
)

const (
	inviteCodeLength   = 6
	inviteCodeAttempts = 5
	maxGroupNameLength = 64
)

// GroupSettings are the staking rules chosen at creation.
type GroupSettings struct {
	Enabled bool  `json:"is_coin_enabled"`
	Stake   int64 `json:"stake_amount"`
	Penalty int64 `json:"daily_penalty"`
}

// GroupDetails is a group with its members ordered by current streak.
type GroupDetails struct {
	Group   models.Group           `json:"group"`
	Members []store.MemberStanding `json:"members"`
}

// Groups creates and joins accountability groups. Joining a staked group locks the stake through the Ledger.
type Groups struct {
	store   Store
	ledger  *Ledger
	logger  *zap.Logger
	codeGen func() string
}

// NewGroups wires the group service.
func NewGroups(st Store, ledger *Ledger, logger *zap.Logger) *Groups {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Groups{
		store:   st,
		ledger:  ledger,
		logger:  logger,
		codeGen: func() string { return utils.GenerateInviteCode(inviteCodeLength) },
	}
}

// CreateGroup inserts a group and joins the creator as admin. The creator is subject to the staking rules
// like any other member; when the stake cannot be locked the group still exists and the error is returned.
func (g *Groups) CreateGroup(ctx context.Context, userID uint, name string, settings GroupSettings) (*models.Group, *models.GroupMember, error) {
	name = utils.Sanitize(name)
	if name == "" || len([]rune(name)) > maxGroupNameLength {
		return nil, nil, fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidGroup, maxGroupNameLength)
	}
	if settings.Stake < 0 || settings.Penalty < 0 {
		return nil, nil, ErrInvalidAmount
	}
	if !settings.Enabled {
		settings.Stake, settings.Penalty = 0, 0
	}

	group := &models.Group{
		Name:          name,
		CreatedBy:     userID,
		IsCoinEnabled: settings.Enabled,
		StakeAmount:   settings.Stake,
		DailyPenalty:  settings.Penalty,
	}
	var err error
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		group.ID = 0
		group.InviteCode = g.codeGen()
		if err = g.store.CreateGroup(ctx, group); !errors.Is(err, store.ErrConflict) {
			break
		}
		g.logger.Debug("invite code collision", zap.String("code", group.InviteCode))
	}
	if err != nil {
		return nil, nil, storeErr("create group", err)
	}
	g.logger.Info("group created",
		zap.Uint("group_id", group.ID), zap.Uint("user_id", userID), zap.Bool("coin_enabled", group.IsCoinEnabled))

	_, member, err := g.JoinGroup(ctx, userID, group.InviteCode, models.RoleAdmin)
	if err != nil {
		return group, nil, err
	}
	return group, member, nil
}

// JoinGroup adds userID to the group with the given invite code. A staked group locks stake_amount first;
// the membership's locked_balance records what was locked.
func (g *Groups) JoinGroup(ctx context.Context, userID uint, code, role string) (*models.Group, *models.GroupMember, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil, ErrInvalidCode
	}
	if role != models.RoleAdmin {
		role = models.RoleMember
	}

	group, err := g.store.GetGroupByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrInvalidCode
	}
	if err != nil {
		return nil, nil, storeErr("load group", err)
	}

	_, err = g.store.GetMembership(ctx, group.ID, userID)
	if err == nil {
		return nil, nil, ErrAlreadyMember
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, nil, storeErr("load membership", err)
	}

	var locked int64
	if group.RequiresStake() {
		desc := fmt.Sprintf("Stake for %s", group.Name)
		if _, err := g.ledger.Lock(ctx, userID, group.StakeAmount, desc, &group.ID); err != nil {
			return nil, nil, err
		}
		locked = group.StakeAmount
	}

	member := &models.GroupMember{
		GroupID:       group.ID,
		UserID:        userID,
		Role:          role,
		LockedBalance: locked,
	}
	if err := g.store.CreateMembership(ctx, member); err != nil {
		if locked > 0 {
			g.releaseStake(ctx, userID, group, locked)
		}
		if errors.Is(err, store.ErrConflict) {
			return nil, nil, ErrAlreadyMember
		}
		return nil, nil, storeErr("create membership", err)
	}
	member.Group = *group
	g.logger.Info("joined group",
		zap.Uint("group_id", group.ID), zap.Uint("user_id", userID),
		zap.String("role", role), zap.Int64("locked", locked))
	return group, member, nil
}

func (g *Groups) releaseStake(ctx context.Context, userID uint, group *models.Group, amount int64) {
	desc := fmt.Sprintf("Stake returned for %s", group.Name)
	if _, err := g.ledger.Unlock(ctx, userID, amount, desc, &group.ID); err != nil {
		g.logger.Error("failed to release stake after membership insert failed",
			zap.Uint("group_id", group.ID), zap.Uint("user_id", userID), zap.Int64("amount", amount), zap.Error(err))
	}
}

// UserGroups lists the user's memberships with their groups.
func (g *Groups) UserGroups(ctx context.Context, userID uint) ([]models.GroupMember, error) {
	ms, err := g.store.ListMemberships(ctx, userID)
	if err != nil {
		return nil, storeErr("list memberships", err)
	}
	return ms, nil
}

// GroupDetails loads a group and its members.
func (g *Groups) GroupDetails(ctx context.Context, groupID uint) (*GroupDetails, error) {
	group, err := g.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, storeErr("load group", err)
	}
	members, err := g.store.ListGroupMembers(ctx, groupID)
	if err != nil {
		return nil, storeErr("list members", err)
	}
	return &GroupDetails{Group: *group, Members: members}, nil
}

// IsMember reports whether userID belongs to groupID.
func (g *Groups) IsMember(ctx context.Context, groupID, userID uint) (bool, error) {
	_, err := g.store.GetMembership(ctx, groupID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeErr("load membership", err)
	}
	return true, nil
}
