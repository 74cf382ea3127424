package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/app/services"
	"github.com/hubtc/portal/internal/middleware"
	"github.com/hubtc/portal/internal/pkg/helpers"
)

// MessageController handles conversation messages
type MessageController struct {
	messageService services.MessageService
	snapshotLimit  int
	logger         zerolog.Logger
}

// NewMessageController creates a new MessageController; snapshotLimit is the default page size
func NewMessageController(messageService services.MessageService, snapshotLimit int, logger zerolog.Logger) *MessageController {
	if snapshotLimit <= 0 {
		snapshotLimit = helpers.DefaultSnapshotLimit
	}
	return &MessageController{
		messageService: messageService,
		snapshotLimit:  snapshotLimit,
		logger:         logger,
	}
}

// GetMessages godoc
// @Summary Fetch a message snapshot
// @Description Returns messages ascending by (createdAt, id), deleted ones included and flagged.
// @Description Without `before` the newest `limit` messages are returned.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Param before query string false "Only messages created before this instant (RFC3339)"
// @Param limit query int false "Page size (1..500, default 200)"
// @Success 200 {object} dto.APIResponse{data=[]dto.MessageResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid before timestamp"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Forbidden: not a participant"
// @Failure 404 {object} dto.ErrorResponse "Conversation not found"
// @Router /conversations/{id}/messages [get]
func (c *MessageController) GetMessages(ctx *gin.Context) {
	userID, ok := sessionUserID(ctx)
	if !ok {
		return
	}
	conversationID, ok := pathID(ctx, "id", "conversation")
	if !ok {
		return
	}

	before, err := helpers.ParseRFC3339(ctx.Query("before"))
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid before timestamp").
			WithField("before").
			WithDetails("Use RFC3339, e.g. 2026-03-02T09:15:00Z")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}
	limit := helpers.ParseLimit(ctx, c.snapshotLimit, helpers.MaxSnapshotLimit)

	messages, err := c.messageService.Snapshot(ctx.Request.Context(), conversationID, userID, before, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(messages))
}

// SendMessage godoc
// @Summary Send a message
// @Description Sends a message with text, an image URL or an attachment URL, optionally replying to a message of the same conversation
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Param request body dto.SendMessageRequest true "Message payload"
// @Success 201 {object} dto.APIResponse{data=dto.MessageResponse}
// @Failure 400 {object} dto.ErrorResponse "Empty message or invalid reply target"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Forbidden: not a participant"
// @Failure 404 {object} dto.ErrorResponse "Conversation not found"
// @Router /conversations/{id}/messages [post]
func (c *MessageController) SendMessage(ctx *gin.Context) {
	userID, ok := sessionUserID(ctx)
	if !ok {
		return
	}
	conversationID, ok := pathID(ctx, "id", "conversation")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !bindJSON(ctx, &req) {
		return
	}

	message, err := c.messageService.Send(ctx.Request.Context(), conversationID, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(message))
}

// EditMessage godoc
// @Summary Edit a message
// @Description Replaces the content of the caller's own message within the edit window. No history is kept.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Param msgId path int true "Message ID"
// @Param request body dto.EditMessageRequest true "New content"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Forbidden: not the sender"
// @Failure 404 {object} dto.ErrorResponse "Message not found"
// @Failure 422 {object} dto.ErrorResponse "Edit window expired or message deleted"
// @Router /conversations/{id}/messages/{msgId} [patch]
func (c *MessageController) EditMessage(ctx *gin.Context) {
	userID, ok := sessionUserID(ctx)
	if !ok {
		return
	}
	conversationID, ok := pathID(ctx, "id", "conversation")
	if !ok {
		return
	}
	messageID, ok := pathID(ctx, "msgId", "message")
	if !ok {
		return
	}

	var req dto.EditMessageRequest
	if !bindJSON(ctx, &req) {
		return
	}

	message, err := c.messageService.Edit(ctx.Request.Context(), conversationID, messageID, userID, req.Content)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(message))
}

// DeleteMessage godoc
// @Summary Delete a message
// @Description Soft-deletes the caller's own message. Deleting an already deleted message succeeds.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Param msgId path int true "Message ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 403 {object} dto.ErrorResponse "Forbidden: not the sender"
// @Failure 404 {object} dto.ErrorResponse "Message not found"
// @Router /conversations/{id}/messages/{msgId} [delete]
func (c *MessageController) DeleteMessage(ctx *gin.Context) {
	userID, ok := sessionUserID(ctx)
	if !ok {
		return
	}
	conversationID, ok := pathID(ctx, "id", "conversation")
	if !ok {
		return
	}
	messageID, ok := pathID(ctx, "msgId", "message")
	if !ok {
		return
	}

	if err := c.messageService.Delete(ctx.Request.Context(), conversationID, messageID, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Message deleted"}))
}
