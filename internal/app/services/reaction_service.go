package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hubtc/portal/internal/app/models"
	"github.com/hubtc/portal/internal/pkg/apperrors"
	"github.com/hubtc/portal/internal/pkg/metrics"
	"github.com/hubtc/portal/internal/pkg/validation"
	"github.com/hubtc/portal/internal/pkg/websocket"
)

// ReactionService defines reaction and read-receipt operations on messages
type ReactionService interface {
	React(ctx context.Context, conversationID, messageID, userID int64, emoji string) ([]models.ReactionGroup, error)
	RemoveReaction(ctx context.Context, conversationID, messageID, userID int64, emoji string) error
	MarkRead(ctx context.Context, conversationID, messageID, userID int64) error
}

type reactionServiceImpl struct {
	messages  MessageStore
	reactions ReactionStore
	receipts  ReadReceiptStore
	authz     ParticipantAuthorizer
	publisher websocket.Publisher
	clock     Clock
	logger    zerolog.Logger
}

// NewReactionService creates a new ReactionService
func NewReactionService(
	messages MessageStore,
	reactions ReactionStore,
	receipts ReadReceiptStore,
	authz ParticipantAuthorizer,
	publisher websocket.Publisher,
	clock Clock,
	logger zerolog.Logger,
) ReactionService {
	if clock == nil {
		clock = time.Now
	}
	return &reactionServiceImpl{
		messages:  messages,
		reactions: reactions,
		receipts:  receipts,
		authz:     authz,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

func normalizeEmoji(emoji string) (string, error) {
	if !validation.IsEmoji(emoji) {
		return "", apperrors.ErrInvalidEmoji
	}
	return strings.TrimSpace(emoji), nil
}

// target checks membership and that the message belongs to the conversation.
// Deleted messages are valid targets.
func (s *reactionServiceImpl) target(ctx context.Context, conversationID, messageID, userID int64) (*models.Message, error) {
	if err := s.authz.ValidateParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.ValidateMessageInConversation(message, conversationID); err != nil {
		return nil, err
	}
	return message, nil
}

// React toggles the caller's emoji on a message and returns the message's reaction groups
func (s *reactionServiceImpl) React(ctx context.Context, conversationID, messageID, userID int64, emoji string) ([]models.ReactionGroup, error) {
	emoji, err := normalizeEmoji(emoji)
	if err != nil {
		return nil, err
	}
	if _, err := s.target(ctx, conversationID, messageID, userID); err != nil {
		return nil, err
	}

	added, err := s.reactions.Toggle(ctx, messageID, userID, emoji)
	if err != nil {
		s.logger.Error().Err(err).Int64("messageID", messageID).Int64("userID", userID).Msg("Failed to toggle reaction")
		return nil, fmt.Errorf("error toggling reaction: %w", err)
	}
	action := "removed"
	if added {
		action = "added"
	}
	metrics.ReactionsToggled.WithLabelValues(action).Inc()
	s.changed(ctx, websocket.EventReactionChanged, conversationID, messageID, userID)

	reactions, err := s.reactions.ListByMessageIDs(ctx, []int64{messageID})
	if err != nil {
		return nil, fmt.Errorf("error loading reactions: %w", err)
	}
	return models.GroupReactions(reactions[messageID]), nil
}

// RemoveReaction deletes the caller's emoji if present
func (s *reactionServiceImpl) RemoveReaction(ctx context.Context, conversationID, messageID, userID int64, emoji string) error {
	emoji, err := normalizeEmoji(emoji)
	if err != nil {
		return err
	}
	if _, err := s.target(ctx, conversationID, messageID, userID); err != nil {
		return err
	}
	if err := s.reactions.Remove(ctx, messageID, userID, emoji); err != nil {
		return fmt.Errorf("error removing reaction: %w", err)
	}
	s.changed(ctx, websocket.EventReactionChanged, conversationID, messageID, userID)
	return nil
}

// MarkRead records the caller's first read of a message. Reading one's own message is a no-op.
func (s *reactionServiceImpl) MarkRead(ctx context.Context, conversationID, messageID, userID int64) error {
	message, err := s.target(ctx, conversationID, messageID, userID)
	if err != nil {
		return err
	}
	if message.SenderID == userID {
		return nil
	}

	inserted, err := s.receipts.MarkRead(ctx, messageID, userID, s.clock())
	if err != nil {
		s.logger.Error().Err(err).Int64("messageID", messageID).Int64("userID", userID).Msg("Failed to mark read")
		return fmt.Errorf("error marking message read: %w", err)
	}
	if inserted {
		metrics.ReadReceipts.Inc()
		s.changed(ctx, websocket.EventReadChanged, conversationID, messageID, userID)
	}
	return nil
}

func (s *reactionServiceImpl) changed(ctx context.Context, kind websocket.EventType, conversationID, messageID, userID int64) {
	publish(ctx, s.publisher, websocket.Event{
		Type:           kind,
		ConversationID: conversationID,
		MessageID:      messageID,
		UserID:         userID,
		At:             s.clock(),
	}, func(err error) { s.logger.Debug().Err(err).Msg("Failed to publish hint") })
}
