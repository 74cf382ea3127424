// Package services holds the chat business rules. Services receive the session
// user explicitly as a userID argument and return wire DTOs.
//
// Services defined in this package:
//   - ConversationService: listing, creation (direct find-or-create, groups) and mute settings
//   - MessageService: snapshots, send, edit and soft delete
//   - ReactionService: reaction toggle/removal and read receipts
//   - TypingService: typing liveness signals
//   - NotificationService: per-user notification inbox
//   - UserService: staff directory search
package services

import (
	"context"
	"time"

	"github.com/hubtc/portal/internal/app/models"
	"github.com/hubtc/portal/internal/pkg/websocket"
)

// Clock returns the current time
type Clock func() time.Time

// ParticipantAuthorizer is the authorization surface services depend on
type ParticipantAuthorizer interface {
	ValidateParticipant(ctx context.Context, conversationID, userID int64) error
	ValidateMessageInConversation(message *models.Message, conversationID int64) error
	ValidateMessageOwnership(message *models.Message, userID int64) error
}

// UserStore reads the staff directory
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)
	Search(ctx context.Context, query string, limit int) ([]*models.User, error)
}

// ConversationStore persists conversations, participants and settings
type ConversationStore interface {
	Create(ctx context.Context, conversation *models.Conversation, participantIDs []int64) error
	FindDirect(ctx context.Context, userID, otherID int64) (*models.Conversation, error)
	GetByID(ctx context.Context, id, userID int64) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]*models.Conversation, error)
	ParticipantIDs(ctx context.Context, conversationID int64) ([]int64, error)
	ParticipantIDsByConversation(ctx context.Context, conversationIDs []int64) (map[int64][]int64, error)
	MutedUserIDs(ctx context.Context, conversationID int64) (map[int64]bool, error)
	UpdateSettings(ctx context.Context, settings *models.ConversationSettings) error
	TouchLastMessage(ctx context.Context, conversationID int64, at time.Time) error
}

// MessageStore persists messages
type MessageStore interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID int64, before *time.Time, limit int) ([]*models.Message, error)
	LatestByConversation(ctx context.Context, conversationIDs []int64) (map[int64]*models.Message, error)
	UpdateContent(ctx context.Context, message *models.Message) error
	SoftDelete(ctx context.Context, id int64, at time.Time) error
}

// ReactionStore persists reactions
type ReactionStore interface {
	Toggle(ctx context.Context, messageID, userID int64, emoji string) (bool, error)
	Remove(ctx context.Context, messageID, userID int64, emoji string) error
	ListByMessageIDs(ctx context.Context, messageIDs []int64) (map[int64][]*models.Reaction, error)
}

// ReadReceiptStore persists read receipts
type ReadReceiptStore interface {
	MarkRead(ctx context.Context, messageID, userID int64, at time.Time) (bool, error)
	ListByMessageIDs(ctx context.Context, messageIDs []int64) (map[int64][]*models.ReadReceipt, error)
}

// NotificationStore persists notifications
type NotificationStore interface {
	CreateMany(ctx context.Context, notifications []*models.Notification) error
	ListForUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, userID int64, at time.Time) (*models.Notification, error)
}

// hydrator attaches reactions and read receipts to loaded messages
type hydrator struct {
	reactions ReactionStore
	receipts  ReadReceiptStore
}

func (h hydrator) hydrate(ctx context.Context, messages []*models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}

	reactions, err := h.reactions.ListByMessageIDs(ctx, ids)
	if err != nil {
		return err
	}
	receipts, err := h.receipts.ListByMessageIDs(ctx, ids)
	if err != nil {
		return err
	}

	for _, m := range messages {
		m.Reactions = reactions[m.ID]
		m.ReadReceipts = receipts[m.ID]
	}
	return nil
}

// publish sends a hint and only logs failures; hints are best effort
func publish(ctx context.Context, publisher websocket.Publisher, event websocket.Event, log func(error)) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log(err)
	}
}
