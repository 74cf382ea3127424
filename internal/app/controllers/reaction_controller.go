package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/app/services"
	"github.com/hubtc/portal/internal/middleware"
)

// ReactionController handles reactions and read receipts
type ReactionController struct {
	reactionService services.ReactionService
	logger          zerolog.Logger
}

// NewReactionController creates a new ReactionController
func NewReactionController(reactionService services.ReactionService, logger zerolog.Logger) *ReactionController {
	return &ReactionController{
		reactionService: reactionService,
		logger:          logger,
	}
}

// messageTarget reads the caller and the conversation/message path pair
func messageTarget(ctx *gin.Context) (userID, conversationID, messageID int64, ok bool) {
	if userID, ok = sessionUserID(ctx); !ok {
		return
	}
	if conversationID, ok = pathID(ctx, "id", "conversation"); !ok {
		return
	}
	messageID, ok = pathID(ctx, "msgId", "message")
	return
}

// React godoc
// @Summary Toggle a reaction
// @Description Adds the caller's emoji to a message or removes it when already present. Deleted messages accept reactions.
// @Tags reactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Param msgId path int true "Message ID"
// @Param request body dto.ReactionRequest true "Emoji"
// @Success 200 {object} dto.APIResponse{data=[]models.ReactionGroup}
// @Failure 400 {object} dto.ErrorResponse "Invalid emoji"
// @Failure 403 {object} dto.ErrorResponse "Forbidden: not a participant"
// @Failure 404 {object} dto.ErrorResponse "Message not found"
// @Router /conversations/{id}/messages/{msgId}/reactions [post]
func (c *ReactionController) React(ctx *gin.Context) {
	userID, conversationID, messageID, ok := messageTarget(ctx)
	if !ok {
		return
	}

	var req dto.ReactionRequest
	if !bindJSON(ctx, &req) {
		return
	}

	groups, err := c.reactionService.React(ctx.Request.Context(), conversationID, messageID, userID, req.Emoji)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(groups))
}

// RemoveReaction godoc
// @Summary Remove a reaction
// @Description Removes the caller's emoji from a message. Removing an absent reaction succeeds.
// @Tags reactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Param msgId path int true "Message ID"
// @Param request body dto.ReactionRequest true "Emoji"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid emoji"
// @Failure 403 {object} dto.ErrorResponse "Forbidden: not a participant"
// @Failure 404 {object} dto.ErrorResponse "Message not found"
// @Router /conversations/{id}/messages/{msgId}/reactions [delete]
func (c *ReactionController) RemoveReaction(ctx *gin.Context) {
	userID, conversationID, messageID, ok := messageTarget(ctx)
	if !ok {
		return
	}

	var req dto.ReactionRequest
	if !bindJSON(ctx, &req) {
		return
	}

	if err := c.reactionService.RemoveReaction(ctx.Request.Context(), conversationID, messageID, userID, req.Emoji); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Reaction removed"}))
}

// MarkRead godoc
// @Summary Mark a message read
// @Description Records the caller's first read of a message. Repeated calls keep the first readAt; reading one's own message is a no-op.
// @Tags reactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Param msgId path int true "Message ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 403 {object} dto.ErrorResponse "Forbidden: not a participant"
// @Failure 404 {object} dto.ErrorResponse "Message not found"
// @Router /conversations/{id}/messages/{msgId}/read [post]
func (c *ReactionController) MarkRead(ctx *gin.Context) {
	userID, conversationID, messageID, ok := messageTarget(ctx)
	if !ok {
		return
	}

	if err := c.reactionService.MarkRead(ctx.Request.Context(), conversationID, messageID, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Message marked as read"}))
}
