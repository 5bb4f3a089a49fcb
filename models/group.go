package models

import "time"

// Membership roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Group is an accountability squad. Penalties forfeited by members accumulate in RewardPool.
type Group struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:128;not null" json:"name"`
	InviteCode    string    `gorm:"size:16;not null;uniqueIndex" json:"invite_code"`
	CreatedBy     uint      `gorm:"index;not null" json:"created_by"`
	IsCoinEnabled bool      `gorm:"not null;default:false" json:"is_coin_enabled"`
	StakeAmount   int64     `gorm:"not null;default:0" json:"stake_amount"`
	DailyPenalty  int64     `gorm:"not null;default:0" json:"daily_penalty"`
	RewardPool    int64     `gorm:"not null;default:0" json:"reward_pool"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RequiresStake reports whether joining locks coins.
func (g *Group) RequiresStake() bool {
	return g.IsCoinEnabled && g.StakeAmount > 0
}

// GroupMember links a profile to a group. LockedBalance only ever decreases after join.
type GroupMember struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	GroupID       uint      `gorm:"not null;index:idx_member_group_user,unique" json:"group_id"`
	UserID        uint      `gorm:"not null;index;index:idx_member_group_user,unique" json:"user_id"`
	Role          string    `gorm:"size:16;not null;default:'member'" json:"role"`
	LockedBalance int64     `gorm:"not null;default:0" json:"locked_balance"`
	JoinedAt      time.Time `gorm:"autoCreateTime" json:"joined_at"`
	Group         Group     `gorm:"foreignKey:GroupID" json:"group,omitempty"`
}
