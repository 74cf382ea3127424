package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/app/services"
	"github.com/hubtc/portal/internal/middleware"
	"github.com/hubtc/portal/internal/pkg/helpers"
)

// UserController handles the staff directory
type UserController struct {
	userService services.UserService
}

// NewUserController creates a new user controller
func NewUserController(userService services.UserService) *UserController {
	return &UserController{userService: userService}
}

// SearchUsers godoc
// @Summary Search the staff directory
// @Description Prefix search over first name, last name and email of active staff, used to pick conversation participants
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search text"
// @Param limit query int false "Page size (1..100, default 20)"
// @Success 200 {object} dto.APIResponse{data=[]dto.UserBasicResponse}
// @Failure 400 {object} dto.ErrorResponse "Missing search text"
// @Router /users [get]
func (c *UserController) SearchUsers(ctx *gin.Context) {
	if _, ok := sessionUserID(ctx); !ok {
		return
	}

	query := strings.TrimSpace(ctx.Query("q"))
	if query == "" {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Search text is required").WithField("q")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}
	limit := helpers.ParseLimit(ctx, helpers.DefaultSearchLimit, helpers.MaxSearchLimit)

	users, err := c.userService.Search(ctx.Request.Context(), query, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(users))
}
