package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/app/services"
	"github.com/hubtc/portal/internal/middleware"
)

// TypingController handles typing liveness signals
type TypingController struct {
	typingService services.TypingService
}

// NewTypingController creates a new TypingController
func NewTypingController(typingService services.TypingService) *TypingController {
	return &TypingController{typingService: typingService}
}

// SignalTyping godoc
// @Summary Signal typing
// @Description Records that the caller is typing. Signals over the per-user rate are answered 200 and dropped.
// @Tags typing
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 403 {object} dto.ErrorResponse "Forbidden: not a participant"
// @Failure 404 {object} dto.ErrorResponse "Conversation not found"
// @Router /conversations/{id}/typing [post]
func (c *TypingController) SignalTyping(ctx *gin.Context) {
	userID, ok := sessionUserID(ctx)
	if !ok {
		return
	}
	conversationID, ok := pathID(ctx, "id", "conversation")
	if !ok {
		return
	}

	if err := c.typingService.Signal(ctx.Request.Context(), conversationID, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Typing signal recorded"}))
}

// GetTypingUsers godoc
// @Summary List typing users
// @Description Lists the other participants whose last typing signal is within the TTL
// @Tags typing
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.TypingUserResponse}
// @Failure 403 {object} dto.ErrorResponse "Forbidden: not a participant"
// @Failure 404 {object} dto.ErrorResponse "Conversation not found"
// @Router /conversations/{id}/typing [get]
func (c *TypingController) GetTypingUsers(ctx *gin.Context) {
	userID, ok := sessionUserID(ctx)
	if !ok {
		return
	}
	conversationID, ok := pathID(ctx, "id", "conversation")
	if !ok {
		return
	}

	users, err := c.typingService.TypingUsers(ctx.Request.Context(), conversationID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(users))
}
