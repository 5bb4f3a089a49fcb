package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/streakholic/models"
	"github.com/cppla/streakholic/utils"
)

// StatsController provides platform statistics such as counts and today's active users.
type StatsController struct {
	db  *gorm.DB
	loc *time.Location
}

// NewStatsController creates a new StatsController instance. loc defines "today".
func NewStatsController(db *gorm.DB, loc *time.Location) *StatsController {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsController{db: db, loc: loc}
}

// GetStats returns aggregate statistics.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var profileCount int64
	var groupCount int64
	var activeToday int64
	var rewardPool int64
	db := s.db.WithContext(ctx.Request.Context())

	// Fallback to 0 instead of failing the whole endpoint
	if err := db.Model(&models.Profile{}).Count(&profileCount).Error; err != nil {
		profileCount = 0
	}
	if err := db.Model(&models.Group{}).Count(&groupCount).Error; err != nil {
		groupCount = 0
	}

	today := time.Now().In(s.loc).Format("2006-01-02")
	if err := db.Model(&models.DailyLog{}).
		Where("date = ? AND status = ?", today, models.LogStatusSuccess).
		Count(&activeToday).Error; err != nil {
		activeToday = 0
	}
	if err := db.Model(&models.Group{}).
		Select("COALESCE(SUM(reward_pool),0)").
		Scan(&rewardPool).Error; err != nil {
		rewardPool = 0
	}

	utils.Success(ctx, gin.H{
		"profile_count":     profileCount,
		"group_count":       groupCount,
		"active_today":      activeToday,
		"reward_pool_total": rewardPool,
	})
}
