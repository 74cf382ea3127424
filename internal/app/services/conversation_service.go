package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hubtc/portal/internal/app/models"
	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/pkg/apperrors"
	"github.com/hubtc/portal/internal/pkg/helpers"
)

// ConversationService defines conversation operations for the session user
type ConversationService interface {
	List(ctx context.Context, userID int64) ([]dto.ConversationResponse, error)
	// Create returns created=false when an existing direct conversation is returned instead
	Create(ctx context.Context, userID int64, req *dto.CreateConversationRequest) (resp *dto.ConversationResponse, created bool, err error)
	UpdateSettings(ctx context.Context, conversationID, userID int64, muted bool) (*dto.ConversationSettingsResponse, error)
}

type conversationServiceImpl struct {
	conversations ConversationStore
	messages      MessageStore
	users         UserStore
	authz         ParticipantAuthorizer
	logger        zerolog.Logger
}

// NewConversationService creates a new ConversationService
func NewConversationService(
	conversations ConversationStore,
	messages MessageStore,
	users UserStore,
	authz ParticipantAuthorizer,
	logger zerolog.Logger,
) ConversationService {
	return &conversationServiceImpl{
		conversations: conversations,
		messages:      messages,
		users:         users,
		authz:         authz,
		logger:        logger,
	}
}

// List returns the caller's conversations with participants, last message and settings
func (s *conversationServiceImpl) List(ctx context.Context, userID int64) ([]dto.ConversationResponse, error) {
	conversations, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to list conversations")
		return nil, fmt.Errorf("error listing conversations: %w", err)
	}
	if err := s.attach(ctx, conversations); err != nil {
		return nil, err
	}

	responses := make([]dto.ConversationResponse, 0, len(conversations))
	for _, c := range conversations {
		responses = append(responses, dto.ToConversationResponse(c))
	}
	return responses, nil
}

// attach loads participants and last messages for a batch of conversations
func (s *conversationServiceImpl) attach(ctx context.Context, conversations []*models.Conversation) error {
	if len(conversations) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(conversations))
	for _, c := range conversations {
		ids = append(ids, c.ID)
	}

	participantIDs, err := s.conversations.ParticipantIDsByConversation(ctx, ids)
	if err != nil {
		return fmt.Errorf("error loading participants: %w", err)
	}

	var userIDs []int64
	for _, pids := range participantIDs {
		userIDs = append(userIDs, pids...)
	}
	users, err := s.users.GetByIDs(ctx, uniqueIDs(userIDs))
	if err != nil {
		return fmt.Errorf("error loading participants: %w", err)
	}

	latest, err := s.messages.LatestByConversation(ctx, ids)
	if err != nil {
		return fmt.Errorf("error loading last messages: %w", err)
	}

	for _, c := range conversations {
		c.Participants = c.Participants[:0]
		for _, id := range participantIDs[c.ID] {
			if u, ok := users[id]; ok {
				c.Participants = append(c.Participants, u)
			}
		}
		c.LastMessage = latest[c.ID]
	}
	return nil
}

// Create finds or creates a direct conversation, or creates a named group
func (s *conversationServiceImpl) Create(ctx context.Context, userID int64, req *dto.CreateConversationRequest) (*dto.ConversationResponse, bool, error) {
	participantIDs := uniqueIDs(append([]int64{userID}, req.UserIDs...))
	name := helpers.TrimToNil(req.Name)

	if req.IsGroup {
		if name == nil {
			return nil, false, apperrors.ErrGroupNameRequired
		}
		if len(participantIDs) < 2 {
			return nil, false, apperrors.NewCustomError(apperrors.ErrInvalidParticipants, "a group needs at least one other participant")
		}
	} else if len(participantIDs) != 2 {
		return nil, false, apperrors.NewCustomError(apperrors.ErrInvalidParticipants, "a direct conversation has exactly one other participant")
	}

	users, err := s.users.GetByIDs(ctx, participantIDs)
	if err != nil {
		return nil, false, fmt.Errorf("error loading participants: %w", err)
	}
	for _, id := range participantIDs {
		if u, ok := users[id]; !ok || !u.IsActive {
			return nil, false, apperrors.NewCustomError(apperrors.ErrInvalidParticipants, fmt.Sprintf("user %d is not an active member", id))
		}
	}

	// participantIDs[0] is the caller
	var otherID int64
	if !req.IsGroup {
		otherID = participantIDs[1]
		existing, err := s.conversations.FindDirect(ctx, userID, otherID)
		if err == nil {
			resp, err := s.single(ctx, existing)
			return resp, false, err
		}
		if !errors.Is(err, apperrors.ErrConversationNotFound) {
			return nil, false, fmt.Errorf("error finding direct conversation: %w", err)
		}
		name = nil
	}

	conversation := &models.Conversation{
		IsGroup:   req.IsGroup,
		Name:      name,
		Image:     helpers.TrimToNil(req.Image),
		CreatedBy: userID,
	}
	if err := s.conversations.Create(ctx, conversation, participantIDs); err != nil {
		if errors.Is(err, apperrors.ErrResourceAlreadyExists) && !req.IsGroup {
			// lost a concurrent create of the same direct conversation
			existing, ferr := s.conversations.FindDirect(ctx, userID, otherID)
			if ferr != nil {
				return nil, false, fmt.Errorf("error finding direct conversation: %w", ferr)
			}
			resp, err := s.single(ctx, existing)
			return resp, false, err
		}
		s.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to create conversation")
		return nil, false, err
	}

	s.logger.Info().Int64("conversationID", conversation.ID).Int64("userID", userID).
		Bool("isGroup", conversation.IsGroup).Msg("Conversation created")

	created, err := s.conversations.GetByID(ctx, conversation.ID, userID)
	if err != nil {
		return nil, false, fmt.Errorf("error reloading conversation: %w", err)
	}
	resp, err := s.single(ctx, created)
	return resp, true, err
}

func (s *conversationServiceImpl) single(ctx context.Context, conversation *models.Conversation) (*dto.ConversationResponse, error) {
	if err := s.attach(ctx, []*models.Conversation{conversation}); err != nil {
		return nil, err
	}
	resp := dto.ToConversationResponse(conversation)
	return &resp, nil
}

// UpdateSettings sets the caller's mute flag
func (s *conversationServiceImpl) UpdateSettings(ctx context.Context, conversationID, userID int64, muted bool) (*dto.ConversationSettingsResponse, error) {
	if err := s.authz.ValidateParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	settings := &models.ConversationSettings{ConversationID: conversationID, UserID: userID, IsMuted: muted}
	if err := s.conversations.UpdateSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("error updating settings: %w", err)
	}
	return &dto.ConversationSettingsResponse{ConversationID: conversationID, IsMuted: muted}, nil
}

// uniqueIDs drops duplicates and non-positive IDs, keeping first-seen order
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
