package auth

import (
	"context"
	"fmt"

	"github.com/hubtc/portal/internal/app/models"
	"github.com/hubtc/portal/internal/pkg/apperrors"
	"github.com/hubtc/portal/internal/pkg/logger"
)

// MembershipStore answers conversation membership questions
type MembershipStore interface {
	Exists(ctx context.Context, conversationID int64) (bool, error)
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)
}

// AuthorizationService handles conversation-level authorization
type AuthorizationService struct {
	conversations MembershipStore
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(conversations MembershipStore) *AuthorizationService {
	return &AuthorizationService{conversations: conversations}
}

// ValidateParticipant returns ErrConversationNotFound for an unknown conversation and
// ErrNotParticipant when userID is not a member
func (s *AuthorizationService) ValidateParticipant(ctx context.Context, conversationID, userID int64) error {
	isParticipant, err := s.conversations.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		logger.Error().Err(err).Int64("conversationID", conversationID).Int64("userID", userID).
			Msg("Error checking conversation participant")
		return fmt.Errorf("error checking participant: %w", err)
	}
	if isParticipant {
		return nil
	}

	exists, err := s.conversations.Exists(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("error checking conversation: %w", err)
	}
	if !exists {
		return apperrors.ErrConversationNotFound
	}
	return apperrors.ErrNotParticipant
}

// ValidateMessageInConversation rejects a message addressed through the wrong conversation
func (s *AuthorizationService) ValidateMessageInConversation(message *models.Message, conversationID int64) error {
	if message.ConversationID != conversationID {
		return apperrors.ErrMessageNotFound
	}
	return nil
}

// ValidateMessageOwnership allows only the sender to modify a message
func (s *AuthorizationService) ValidateMessageOwnership(message *models.Message, userID int64) error {
	if message.SenderID != userID {
		return apperrors.ErrNotMessageSender
	}
	return nil
}
