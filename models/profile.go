package models

import "time"

// Profile is a tracked user. ID is assigned by the identity provider.
// Balance and locked coins are tracked as independent columns; available = balance - locked.
type Profile struct {
	ID               uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username         string    `gorm:"size:64" json:"username"`
	Handle           *string   `gorm:"size:64;uniqueIndex" json:"handle"`
	CurrentStreak    int       `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak    int       `gorm:"not null;default:0" json:"longest_streak"`
	LastActivityDate *string   `gorm:"size:10" json:"last_activity_date"`
	TotalActiveDays  int       `gorm:"not null;default:0" json:"total_active_days"`
	CoinsBalance     int64     `gorm:"not null;default:0" json:"coins_balance"`
	CoinsLocked      int64     `gorm:"not null;default:0" json:"coins_locked"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasHandle reports whether an external handle has been linked.
func (p *Profile) HasHandle() bool {
	return p.Handle != nil && *p.Handle != ""
}

// Available returns the coins not held by any stake.
func (p *Profile) Available() int64 {
	return p.CoinsBalance - p.CoinsLocked
}
