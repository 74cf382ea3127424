package models

import "time"

// NotificationType classifies notification rows
type NotificationType string

const (
	NotificationChatMessage NotificationType = "CHAT_MESSAGE"
)

// Notification is a pollable alert for one user
type Notification struct {
	ID             int64            `json:"id" db:"id"`
	UserID         int64            `json:"userId" db:"user_id"`
	Type           NotificationType `json:"type" db:"type"`
	ConversationID int64            `json:"conversationId" db:"conversation_id"`
	MessageID      int64            `json:"messageId" db:"message_id"`
	CreatedAt      time.Time        `json:"createdAt" db:"created_at"`
	ReadAt         *time.Time       `json:"readAt,omitempty" db:"read_at"`
}
