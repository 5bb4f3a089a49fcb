package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/streakholic/middleware"
	"github.com/cppla/streakholic/services"
	"github.com/cppla/streakholic/utils"
)

const (
	defaultListLimit = 50
	maxListLimit     = 400
)

func getUserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(middleware.ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

func requireUser(ctx *gin.Context) (uint, bool) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
	}
	return userID, ok
}

func queryLimit(ctx *gin.Context) int {
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

// errorStatus maps service errors to an HTTP status and business code.
func errorStatus(err error) (int, int) {
	switch {
	case errors.Is(err, services.ErrLinkRequired):
		return http.StatusBadRequest, 40010
	case errors.Is(err, services.ErrInvalidAmount):
		return http.StatusBadRequest, 40020
	case errors.Is(err, services.ErrInvalidTxType):
		return http.StatusBadRequest, 40021
	case errors.Is(err, services.ErrInvalidGroup):
		return http.StatusBadRequest, 40022
	case errors.Is(err, services.ErrInvalidCode):
		return http.StatusNotFound, 40420
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, 40410
	case errors.Is(err, services.ErrProfileExists):
		return http.StatusConflict, 40910
	case errors.Is(err, services.ErrHandleTaken):
		return http.StatusConflict, 40911
	case errors.Is(err, services.ErrHandleAlreadyLinked):
		return http.StatusConflict, 40912
	case errors.Is(err, services.ErrAlreadyMember):
		return http.StatusConflict, 40920
	case errors.Is(err, services.ErrInsufficientFunds):
		return http.StatusConflict, 40930
	case errors.Is(err, services.ErrGatewayUnavailable):
		return http.StatusBadGateway, 50210
	}
	return http.StatusInternalServerError, 50000
}

func respondError(ctx *gin.Context, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = ctx.Error(err)
		msg = "internal error"
	}
	utils.Error(ctx, status, code, msg)
}
