package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hubtc/portal/internal/app/models"
	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/pkg/apperrors"
	"github.com/hubtc/portal/internal/pkg/helpers"
	"github.com/hubtc/portal/internal/pkg/metrics"
	"github.com/hubtc/portal/internal/pkg/websocket"
)

// MessageService defines the message operations of a conversation
type MessageService interface {
	Snapshot(ctx context.Context, conversationID, userID int64, before *time.Time, limit int) ([]dto.MessageResponse, error)
	Send(ctx context.Context, conversationID, userID int64, req *dto.SendMessageRequest) (*dto.MessageResponse, error)
	Edit(ctx context.Context, conversationID, messageID, userID int64, content string) (*dto.MessageResponse, error)
	Delete(ctx context.Context, conversationID, messageID, userID int64) error
}

// MessageServiceConfig holds the tunables of MessageService
type MessageServiceConfig struct {
	EditWindow    time.Duration
	SnapshotLimit int
	Clock         Clock
}

type messageServiceImpl struct {
	messages      MessageStore
	conversations ConversationStore
	notifications NotificationStore
	authz         ParticipantAuthorizer
	hydrator      hydrator
	publisher     websocket.Publisher
	cfg           MessageServiceConfig
	logger        zerolog.Logger
}

// NewMessageService creates a new MessageService
func NewMessageService(
	messages MessageStore,
	conversations ConversationStore,
	reactions ReactionStore,
	receipts ReadReceiptStore,
	notifications NotificationStore,
	authz ParticipantAuthorizer,
	publisher websocket.Publisher,
	cfg MessageServiceConfig,
	logger zerolog.Logger,
) MessageService {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.SnapshotLimit <= 0 {
		cfg.SnapshotLimit = helpers.DefaultSnapshotLimit
	}
	return &messageServiceImpl{
		messages:      messages,
		conversations: conversations,
		notifications: notifications,
		authz:         authz,
		hydrator:      hydrator{reactions: reactions, receipts: receipts},
		publisher:     publisher,
		cfg:           cfg,
		logger:        logger,
	}
}

// Snapshot returns the newest messages before the given point, ascending by (createdAt, id)
func (s *messageServiceImpl) Snapshot(ctx context.Context, conversationID, userID int64, before *time.Time, limit int) ([]dto.MessageResponse, error) {
	if err := s.authz.ValidateParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = s.cfg.SnapshotLimit
	}
	if limit > helpers.MaxSnapshotLimit {
		limit = helpers.MaxSnapshotLimit
	}

	messages, err := s.messages.ListByConversation(ctx, conversationID, before, limit)
	if err != nil {
		s.logger.Error().Err(err).Int64("conversationID", conversationID).Msg("Failed to list messages")
		return nil, fmt.Errorf("error retrieving messages: %w", err)
	}
	if err := s.hydrator.hydrate(ctx, messages); err != nil {
		return nil, fmt.Errorf("error loading message state: %w", err)
	}

	return dto.ToMessageResponses(messages), nil
}

// Send validates and stores a new message, then fans out notifications and a hint
func (s *messageServiceImpl) Send(ctx context.Context, conversationID, userID int64, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	if err := s.authz.ValidateParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        helpers.TrimToNil(req.Content),
		Image:          helpers.TrimToNil(req.Image),
		FileURL:        helpers.TrimToNil(req.FileURL),
		FileName:       helpers.TrimToNil(req.FileName),
		ReplyToID:      req.ReplyToID,
	}
	if !message.HasPayload() {
		return nil, apperrors.ErrEmptyMessage
	}
	if message.FileURL == nil {
		message.FileName = nil
	}

	if message.ReplyToID != nil {
		if err := s.validateReplyTarget(ctx, conversationID, *message.ReplyToID); err != nil {
			return nil, err
		}
	}

	if err := s.messages.Create(ctx, message); err != nil {
		s.logger.Error().Err(err).Int64("conversationID", conversationID).Int64("userID", userID).
			Msg("Failed to create message")
		return nil, fmt.Errorf("error creating message: %w", err)
	}
	metrics.MessagesSent.Inc()

	log := s.logger.With().Int64("conversationID", conversationID).Int64("messageID", message.ID).Logger()

	if err := s.conversations.TouchLastMessage(ctx, conversationID, message.CreatedAt); err != nil {
		log.Warn().Err(err).Msg("Failed to update conversation activity")
	}
	s.notifyParticipants(ctx, message, log)
	publish(ctx, s.publisher, websocket.Event{
		Type:           websocket.EventMessageCreated,
		ConversationID: conversationID,
		MessageID:      message.ID,
		UserID:         userID,
		At:             message.CreatedAt,
	}, func(err error) { log.Debug().Err(err).Msg("Failed to publish hint") })

	log.Debug().Int64("userID", userID).Msg("Message sent")
	return s.load(ctx, message.ID)
}

func (s *messageServiceImpl) validateReplyTarget(ctx context.Context, conversationID, replyToID int64) error {
	target, err := s.messages.GetByID(ctx, replyToID)
	if err != nil {
		if errors.Is(err, apperrors.ErrMessageNotFound) {
			return apperrors.ErrInvalidReplyTarget
		}
		return fmt.Errorf("error loading reply target: %w", err)
	}
	if target.ConversationID != conversationID {
		return apperrors.ErrInvalidReplyTarget
	}
	return nil
}

// notifyParticipants writes a notification for every other participant that has not muted the conversation
func (s *messageServiceImpl) notifyParticipants(ctx context.Context, message *models.Message, log zerolog.Logger) {
	participants, err := s.conversations.ParticipantIDs(ctx, message.ConversationID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load participants for notifications")
		return
	}
	muted, err := s.conversations.MutedUserIDs(ctx, message.ConversationID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load mute settings for notifications")
		return
	}

	notifications := make([]*models.Notification, 0, len(participants))
	for _, id := range participants {
		if id == message.SenderID || muted[id] {
			continue
		}
		notifications = append(notifications, &models.Notification{
			UserID:         id,
			Type:           models.NotificationChatMessage,
			ConversationID: message.ConversationID,
			MessageID:      message.ID,
		})
	}

	if err := s.notifications.CreateMany(ctx, notifications); err != nil {
		log.Warn().Err(err).Msg("Failed to create notifications")
	}
}

// Edit replaces the content of the caller's own message within the edit window
func (s *messageServiceImpl) Edit(ctx context.Context, conversationID, messageID, userID int64, content string) (*dto.MessageResponse, error) {
	message, err := s.loadForChange(ctx, conversationID, messageID, userID)
	if err != nil {
		return nil, err
	}

	if err := message.Edit(userID, content, s.cfg.Clock(), s.cfg.EditWindow); err != nil {
		return nil, err
	}
	if err := s.messages.UpdateContent(ctx, message); err != nil {
		if errors.Is(err, apperrors.ErrMessageDeleted) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating message: %w", err)
	}
	metrics.MessagesEdited.Inc()

	publish(ctx, s.publisher, websocket.Event{
		Type:           websocket.EventMessageUpdated,
		ConversationID: conversationID,
		MessageID:      messageID,
		UserID:         userID,
		At:             message.UpdatedAt,
	}, func(err error) { s.logger.Debug().Err(err).Msg("Failed to publish hint") })

	return s.load(ctx, messageID)
}

// Delete soft-deletes the caller's own message. Deleting twice succeeds and keeps the first deletedAt.
func (s *messageServiceImpl) Delete(ctx context.Context, conversationID, messageID, userID int64) error {
	message, err := s.loadForChange(ctx, conversationID, messageID, userID)
	if err != nil {
		return err
	}
	if message.IsDeleted() {
		return nil
	}

	now := s.cfg.Clock()
	if err := message.Delete(userID, now); err != nil {
		return err
	}
	if err := s.messages.SoftDelete(ctx, messageID, now); err != nil {
		return fmt.Errorf("error deleting message: %w", err)
	}
	metrics.MessagesDeleted.Inc()

	publish(ctx, s.publisher, websocket.Event{
		Type:           websocket.EventMessageUpdated,
		ConversationID: conversationID,
		MessageID:      messageID,
		UserID:         userID,
		At:             now,
	}, func(err error) { s.logger.Debug().Err(err).Msg("Failed to publish hint") })

	s.logger.Debug().Int64("conversationID", conversationID).Int64("messageID", messageID).Msg("Message deleted")
	return nil
}

// loadForChange checks membership, message placement and ownership
func (s *messageServiceImpl) loadForChange(ctx context.Context, conversationID, messageID, userID int64) (*models.Message, error) {
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
	if err := s.authz.ValidateMessageOwnership(message, userID); err != nil {
		return nil, err
	}
	return message, nil
}

func (s *messageServiceImpl) load(ctx context.Context, messageID int64) (*dto.MessageResponse, error) {
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("error reloading message: %w", err)
	}
	if err := s.hydrator.hydrate(ctx, []*models.Message{message}); err != nil {
		return nil, fmt.Errorf("error loading message state: %w", err)
	}
	response := dto.ToMessageResponse(message)
	return &response, nil
}
