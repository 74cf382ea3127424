package models

import "time"

// Conversation is a chat thread between two or more participants.
// Participants are fixed at creation.
type Conversation struct {
	ID            int64      `json:"id" db:"id"`
	IsGroup       bool       `json:"isGroup" db:"is_group"`
	Name          *string    `json:"name,omitempty" db:"name"`
	Image         *string    `json:"image,omitempty" db:"image"`
	CreatedBy     int64      `json:"createdBy" db:"created_by"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty" db:"last_message_at"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`

	// Related entities
	Participants []*User              `json:"participants,omitempty"`
	LastMessage  *Message             `json:"lastMessage,omitempty"`
	Settings     ConversationSettings `json:"settings"`
}

// ConversationSettings holds per-user preferences for a conversation
type ConversationSettings struct {
	ConversationID int64 `json:"conversationId" db:"conversation_id"`
	UserID         int64 `json:"userId" db:"user_id"`
	IsMuted        bool  `json:"isMuted" db:"is_muted"`
}

// HasParticipant reports whether userID is among the loaded participants.
func (c *Conversation) HasParticipant(userID int64) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
