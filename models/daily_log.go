package models

import "time"

// Daily log statuses.
const (
	LogStatusPending = "pending"
	LogStatusSuccess = "success"
	LogStatusMiss    = "miss"
)

// DailyLog is the per-user, per-calendar-day reconciliation outcome.
// Date is a YYYY-MM-DD calendar day so ordering by the column is chronological.
// ProblemsSolved is the cumulative external count observed for that day, AcceptedSubmissions is informational.
type DailyLog struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	UserID              uint      `gorm:"not null;index:idx_daily_log_user_date,unique" json:"user_id"`
	Date                string    `gorm:"size:10;not null;index:idx_daily_log_user_date,unique" json:"date"`
	Status              string    `gorm:"size:16;not null;default:'pending'" json:"status"`
	ProblemsSolved      int       `gorm:"not null;default:0" json:"problems_solved"`
	AcceptedSubmissions int       `gorm:"not null;default:0" json:"accepted_submissions"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
