package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/middleware"
	"github.com/hubtc/portal/internal/pkg/helpers"
)

// sessionUserID returns the user injected by JWTAuth, answering 401 when absent
func sessionUserID(ctx *gin.Context) (int64, bool) {
	userID := ctx.GetInt64(middleware.ContextUserID)
	if userID <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
			WithDetails("User information not found")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return userID, true
}

// pathID parses a positive int64 path parameter, answering 400 when invalid
func pathID(ctx *gin.Context, name, label string) (int64, bool) {
	id, ok := helpers.ParseIDParam(ctx, name)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid "+label+" ID").
			WithField(name).
			WithDetails("ID must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// bindJSON binds and validates the request body, answering 400 on failure
func bindJSON(ctx *gin.Context, obj interface{}) bool {
	if err := ctx.ShouldBindJSON(obj); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return false
	}
	return true
}
