package websocket

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/pkg/apperrors"
	"github.com/hubtc/portal/internal/pkg/contextkeys"
)

// ParticipantValidator confirms conversation membership before a stream is opened
type ParticipantValidator interface {
	ValidateParticipant(ctx context.Context, conversationID, userID int64) error
}

// Handler upgrades change-stream requests
type Handler struct {
	hub        *Hub
	authorizer ParticipantValidator
	logger     zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authorizer ParticipantValidator, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:        hub,
		authorizer: authorizer,
		logger:     logger,
	}
}

// HandleConnection godoc
// @Summary Open the change stream of a conversation
// @Description Upgrades to a WebSocket that pushes change hints (message.created, message.updated, reaction.changed, read.changed, typing). Hints carry no message state; fetch a snapshot on receipt.
// @Tags websocket
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 400 {object} dto.ErrorResponse "Invalid conversation ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Forbidden: User is not a participant in the conversation"
// @Failure 404 {object} dto.ErrorResponse "Conversation not found"
// @Router /conversations/{id}/ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || conversationID <= 0 {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid conversation ID")))
		return
	}

	userID := c.GetInt64(contextkeys.UserID)
	if userID <= 0 {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	if err := h.authorizer.ValidateParticipant(c.Request.Context(), conversationID, userID); err != nil {
		switch {
		case apperrors.Is(err, apperrors.ErrConversationNotFound):
			c.JSON(http.StatusNotFound, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Conversation not found")))
		case apperrors.Is(err, apperrors.ErrNotParticipant):
			c.JSON(http.StatusForbidden, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeForbidden, "User is not a participant in this conversation")))
		default:
			h.logger.Error().Err(err).Int64("conversationID", conversationID).Msg("Participant check failed")
			c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
		}
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("conversationID", conversationID).
			Int64("userID", userID).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:            h.hub,
		conn:           conn,
		send:           make(chan []byte, sendBuffer),
		userID:         userID,
		conversationID: conversationID,
		logger:         h.logger,
	}
	if !h.hub.add(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
