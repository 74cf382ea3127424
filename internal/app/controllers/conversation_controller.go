package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/app/services"
	"github.com/hubtc/portal/internal/middleware"
)

// ConversationController handles conversation listing, creation and settings
type ConversationController struct {
	conversationService services.ConversationService
	logger              zerolog.Logger
}

// NewConversationController creates a new ConversationController
func NewConversationController(conversationService services.ConversationService, logger zerolog.Logger) *ConversationController {
	return &ConversationController{
		conversationService: conversationService,
		logger:              logger,
	}
}

// ListConversations godoc
// @Summary List conversations
// @Description Lists the caller's conversations, most recently active first, with participants, last message and the caller's settings
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.ConversationResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 500 {object} dto.ErrorResponse
// @Router /conversations [get]
func (c *ConversationController) ListConversations(ctx *gin.Context) {
	userID, ok := sessionUserID(ctx)
	if !ok {
		return
	}

	conversations, err := c.conversationService.List(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(conversations))
}

// CreateConversation godoc
// @Summary Create a conversation
// @Description Creates a named group, or finds or creates the direct conversation with one other user.
// @Description An existing direct conversation is returned with 200 instead of 201.
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateConversationRequest true "Participants and group details"
// @Success 201 {object} dto.APIResponse{data=dto.ConversationResponse} "Conversation created"
// @Success 200 {object} dto.APIResponse{data=dto.ConversationResponse} "Existing direct conversation"
// @Failure 400 {object} dto.ErrorResponse "Invalid participants or missing group name"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 500 {object} dto.ErrorResponse
// @Router /conversations [post]
func (c *ConversationController) CreateConversation(ctx *gin.Context) {
	userID, ok := sessionUserID(ctx)
	if !ok {
		return
	}

	var req dto.CreateConversationRequest
	if !bindJSON(ctx, &req) {
		return
	}

	conversation, created, err := c.conversationService.Create(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ctx.JSON(status, dto.NewSuccessResponse(conversation))
}

// UpdateSettings godoc
// @Summary Update conversation settings
// @Description Mutes or unmutes a conversation for the caller. Muted conversations produce no notifications.
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Param request body dto.UpdateConversationSettingsRequest true "Settings"
// @Success 200 {object} dto.APIResponse{data=dto.ConversationSettingsResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Forbidden: not a participant"
// @Failure 404 {object} dto.ErrorResponse "Conversation not found"
// @Router /conversations/{id}/settings [patch]
func (c *ConversationController) UpdateSettings(ctx *gin.Context) {
	userID, ok := sessionUserID(ctx)
	if !ok {
		return
	}
	conversationID, ok := pathID(ctx, "id", "conversation")
	if !ok {
		return
	}

	var req dto.UpdateConversationSettingsRequest
	if !bindJSON(ctx, &req) {
		return
	}

	settings, err := c.conversationService.UpdateSettings(ctx.Request.Context(), conversationID, userID, *req.IsMuted)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Debug().Int64("conversationID", conversationID).Int64("userID", userID).
		Bool("isMuted", settings.IsMuted).Msg("Conversation settings updated")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(settings))
}
