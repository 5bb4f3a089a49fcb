package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/streakholic/middleware"
	"github.com/cppla/streakholic/services"
	"github.com/cppla/streakholic/utils"
)

// ProfileController handles onboarding, handle linking and activity history.
type ProfileController struct {
	profiles *services.Profiles
}

// NewProfileController creates a new controller instance.
func NewProfileController(profiles *services.Profiles) *ProfileController {
	return &ProfileController{profiles: profiles}
}

type onboardRequest struct {
	Username string `json:"username" binding:"max=64"`
}

type linkHandleRequest struct {
	Handle string `json:"handle" binding:"required,max=64"`
}

// Onboard creates the caller's profile and credits the welcome bonus.
func (p *ProfileController) Onboard(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	var req onboardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && ctx.Request.ContentLength > 0 {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	if req.Username == "" {
		req.Username = ctx.GetString(middleware.ContextUsernameKey)
	}
	profile, err := p.profiles.Onboard(ctx.Request.Context(), userID, req.Username)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, profile)
}

// Me returns the caller's profile.
func (p *ProfileController) Me(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	profile, err := p.profiles.Get(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, profile)
}

// LinkHandle verifies and links the caller's LeetCode handle.
func (p *ProfileController) LinkHandle(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	var req linkHandleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	profile, stats, err := p.profiles.LinkHandle(ctx.Request.Context(), userID, req.Handle)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{
		"profile": profile,
		"stats":   stats,
	})
}

// DailyLogs returns the caller's activity log for the heatmap.
func (p *ProfileController) DailyLogs(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	logs, err := p.profiles.DailyLogs(ctx.Request.Context(), userID, queryLimit(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"logs": logs})
}
