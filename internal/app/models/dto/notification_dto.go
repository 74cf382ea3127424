package dto

import (
	"time"

	"github.com/hubtc/portal/internal/app/models"
)

// NotificationResponse is a notification as returned to its owner
type NotificationResponse struct {
	ID             int64                   `json:"id"`
	Type           models.NotificationType `json:"type" example:"CHAT_MESSAGE"`
	ConversationID int64                   `json:"conversationId"`
	MessageID      int64                   `json:"messageId"`
	CreatedAt      time.Time               `json:"createdAt"`
	ReadAt         *time.Time              `json:"readAt,omitempty"`
}

// ToNotificationResponse maps a notification row
func ToNotificationResponse(n *models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:             n.ID,
		Type:           n.Type,
		ConversationID: n.ConversationID,
		MessageID:      n.MessageID,
		CreatedAt:      n.CreatedAt,
		ReadAt:         n.ReadAt,
	}
}
