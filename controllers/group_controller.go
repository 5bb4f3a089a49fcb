package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/streakholic/models"
	"github.com/cppla/streakholic/services"
	"github.com/cppla/streakholic/utils"
)

// GroupController handles accountability groups.
type GroupController struct {
	groups *services.Groups
}

// NewGroupController creates a new controller instance.
func NewGroupController(groups *services.Groups) *GroupController {
	return &GroupController{groups: groups}
}

type createGroupRequest struct {
	Name          string `json:"name" binding:"required,max=64"`
	IsCoinEnabled bool   `json:"is_coin_enabled"`
	StakeAmount   int64  `json:"stake_amount" binding:"min=0"`
	DailyPenalty  int64  `json:"daily_penalty" binding:"min=0"`
}

type joinGroupRequest struct {
	InviteCode string `json:"invite_code" binding:"required,max=16"`
}

// Create makes a group with the caller as admin.
func (g *GroupController) Create(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	var req createGroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	group, member, err := g.groups.CreateGroup(ctx.Request.Context(), userID, req.Name, services.GroupSettings{
		Enabled: req.IsCoinEnabled,
		Stake:   req.StakeAmount,
		Penalty: req.DailyPenalty,
	})
	if err != nil {
		if group != nil {
			// The group exists but the creator's stake could not be locked.
			status, code := errorStatus(err)
			utils.Respond(ctx, status, code, err.Error(), gin.H{"group": group})
			return
		}
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"group": group, "membership": member})
}

// Join adds the caller to the group behind an invite code.
func (g *GroupController) Join(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	var req joinGroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	group, member, err := g.groups.JoinGroup(ctx.Request.Context(), userID, req.InviteCode, models.RoleMember)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"group": group, "membership": member})
}

// Mine lists the caller's groups.
func (g *GroupController) Mine(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	ms, err := g.groups.UserGroups(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"memberships": ms})
}

// Details returns a group and its members. Only members may look.
func (g *GroupController) Details(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid group id")
		return
	}
	member, err := g.groups.IsMember(ctx.Request.Context(), uint(id), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if !member {
		utils.Error(ctx, http.StatusForbidden, 40310, "not a member of this group")
		return
	}
	details, err := g.groups.GroupDetails(ctx.Request.Context(), uint(id))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, details)
}
