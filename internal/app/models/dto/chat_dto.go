package dto

import (
	"time"

	"github.com/hubtc/portal/internal/app/models"
)

// --- Request DTOs ---

// CreateConversationRequest creates a direct or group conversation
type CreateConversationRequest struct {
	UserIDs []int64 `json:"userIds" binding:"required,min=1,dive,gt=0"`
	IsGroup bool    `json:"isGroup"`
	Name    *string `json:"name,omitempty" binding:"omitempty,max=120"`
	Image   *string `json:"image,omitempty" binding:"omitempty,url"`
}

// UpdateConversationSettingsRequest toggles per-user conversation preferences
type UpdateConversationSettingsRequest struct {
	IsMuted *bool `json:"isMuted" binding:"required"`
}

// SendMessageRequest carries a new message. At least one of content, image or fileUrl must be non-blank.
type SendMessageRequest struct {
	Content   *string `json:"content,omitempty" binding:"omitempty,max=4000"`
	Image     *string `json:"image,omitempty" binding:"omitempty,url"`
	FileURL   *string `json:"fileUrl,omitempty" binding:"omitempty,url"`
	FileName  *string `json:"fileName,omitempty" binding:"omitempty,max=255"`
	ReplyToID *int64  `json:"replyToId,omitempty" binding:"omitempty,gt=0"`
}

// EditMessageRequest replaces the content of a message
type EditMessageRequest struct {
	Content string `json:"content" binding:"required,notblank,max=4000"`
}

// ReactionRequest names the emoji of a toggle or removal
type ReactionRequest struct {
	Emoji string `json:"emoji" binding:"required,emoji" example:"👍"`
}

// --- Response DTOs ---

// ReplyPreviewResponse is the quoted summary of a reply target
type ReplyPreviewResponse struct {
	ID         int64  `json:"id"`
	SenderID   int64  `json:"senderId"`
	SenderName string `json:"senderName,omitempty"`
	Preview    string `json:"preview" example:"Can we move the Antalya transfer to 14:00?"`
	IsDeleted  bool   `json:"isDeleted"`
}

// ReadReceiptResponse is one reader of a message
type ReadReceiptResponse struct {
	UserID int64     `json:"userId"`
	ReadAt time.Time `json:"readAt"`
}

// MessageResponse is the wire form of a message. Deleted messages never carry a payload.
type MessageResponse struct {
	ID             int64                  `json:"id"`
	ConversationID int64                  `json:"conversationId"`
	SenderID       int64                  `json:"senderId"`
	Sender         *UserBasicResponse     `json:"sender,omitempty"`
	Content        *string                `json:"content,omitempty"`
	Image          *string                `json:"image,omitempty"`
	FileURL        *string                `json:"fileUrl,omitempty"`
	FileName       *string                `json:"fileName,omitempty"`
	Status         models.MessageStatus   `json:"status" enums:"ACTIVE,EDITED,DELETED"`
	IsEdited       bool                   `json:"isEdited"`
	IsDeleted      bool                   `json:"isDeleted"`
	CreatedAt      time.Time              `json:"createdAt"`
	DeletedAt      *time.Time             `json:"deletedAt,omitempty"`
	ReplyToID      *int64                 `json:"replyToId,omitempty"`
	ReplyTo        *ReplyPreviewResponse  `json:"replyTo,omitempty"`
	Reactions      []models.ReactionGroup `json:"reactions"`
	ReadBy         []ReadReceiptResponse  `json:"readBy"`
}

// ConversationSettingsResponse is the caller's view of conversation preferences
type ConversationSettingsResponse struct {
	ConversationID int64 `json:"conversationId"`
	IsMuted        bool  `json:"isMuted"`
}

// ConversationResponse is a conversation as listed for one participant
type ConversationResponse struct {
	ID            int64                        `json:"id"`
	IsGroup       bool                         `json:"isGroup"`
	Name          *string                      `json:"name,omitempty"`
	Image         *string                      `json:"image,omitempty"`
	CreatedBy     int64                        `json:"createdBy"`
	LastMessageAt *time.Time                   `json:"lastMessageAt,omitempty"`
	CreatedAt     time.Time                    `json:"createdAt"`
	Participants  []UserBasicResponse          `json:"participants"`
	LastMessage   *MessageResponse             `json:"lastMessage,omitempty"`
	Settings      ConversationSettingsResponse `json:"settings"`
}

// TypingUserResponse is one entry of the typing list
type TypingUserResponse struct {
	User UserBasicResponse `json:"user"`
}

// --- Mappers ---

// ToMessageResponse maps a message to its wire form, stripping the payload of deleted messages
func ToMessageResponse(message *models.Message) MessageResponse {
	m := message.Redacted()
	response := MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		Image:          m.Image,
		FileURL:        m.FileURL,
		FileName:       m.FileName,
		Status:         m.Status(),
		IsEdited:       m.IsEdited,
		IsDeleted:      m.IsDeleted(),
		CreatedAt:      m.CreatedAt,
		DeletedAt:      m.DeletedAt,
		ReplyToID:      m.ReplyToID,
		Reactions:      models.GroupReactions(m.Reactions),
		ReadBy:         make([]ReadReceiptResponse, 0, len(m.ReadReceipts)),
	}

	if m.Sender != nil {
		sender := ToUserBasicResponse(m.Sender)
		response.Sender = &sender
	}

	if m.ReplyTo != nil {
		preview := &ReplyPreviewResponse{
			ID:        m.ReplyTo.ID,
			SenderID:  m.ReplyTo.SenderID,
			Preview:   m.ReplyTo.Preview(),
			IsDeleted: m.ReplyTo.IsDeleted(),
		}
		if m.ReplyTo.Sender != nil {
			preview.SenderName = m.ReplyTo.Sender.DisplayName()
		}
		response.ReplyTo = preview
	}

	for _, r := range m.ReadReceipts {
		response.ReadBy = append(response.ReadBy, ReadReceiptResponse{UserID: r.UserID, ReadAt: r.ReadAt})
	}

	return response
}

// ToMessageResponses maps a list of messages preserving order
func ToMessageResponses(messages []*models.Message) []MessageResponse {
	responses := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, ToMessageResponse(m))
	}
	return responses
}

// ToConversationResponse maps a conversation for the participant whose settings are loaded
func ToConversationResponse(conversation *models.Conversation) ConversationResponse {
	response := ConversationResponse{
		ID:            conversation.ID,
		IsGroup:       conversation.IsGroup,
		Name:          conversation.Name,
		Image:         conversation.Image,
		CreatedBy:     conversation.CreatedBy,
		LastMessageAt: conversation.LastMessageAt,
		CreatedAt:     conversation.CreatedAt,
		Participants:  make([]UserBasicResponse, 0, len(conversation.Participants)),
		Settings: ConversationSettingsResponse{
			ConversationID: conversation.ID,
			IsMuted:        conversation.Settings.IsMuted,
		},
	}

	for _, p := range conversation.Participants {
		response.Participants = append(response.Participants, ToUserBasicResponse(p))
	}

	if conversation.LastMessage != nil {
		last := ToMessageResponse(conversation.LastMessage)
		response.LastMessage = &last
	}

	return response
}
