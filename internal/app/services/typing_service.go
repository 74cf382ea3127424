package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/pkg/metrics"
	"github.com/hubtc/portal/internal/pkg/typing"
	"github.com/hubtc/portal/internal/pkg/websocket"
)

// TypingService records and reports typing liveness signals
type TypingService interface {
	Signal(ctx context.Context, conversationID, userID int64) error
	TypingUsers(ctx context.Context, conversationID, userID int64) ([]dto.TypingUserResponse, error)
}

type typingServiceImpl struct {
	store     typing.Store
	users     UserStore
	authz     ParticipantAuthorizer
	publisher websocket.Publisher
	ttl       time.Duration
	clock     Clock
	logger    zerolog.Logger
}

// NewTypingService creates a new TypingService; signals older than ttl are not reported
func NewTypingService(
	store typing.Store,
	users UserStore,
	authz ParticipantAuthorizer,
	publisher websocket.Publisher,
	ttl time.Duration,
	clock Clock,
	logger zerolog.Logger,
) TypingService {
	if clock == nil {
		clock = time.Now
	}
	return &typingServiceImpl{
		store:     store,
		users:     users,
		authz:     authz,
		publisher: publisher,
		ttl:       ttl,
		clock:     clock,
		logger:    logger,
	}
}

// Signal records that the caller is typing now
func (s *typingServiceImpl) Signal(ctx context.Context, conversationID, userID int64) error {
	if err := s.authz.ValidateParticipant(ctx, conversationID, userID); err != nil {
		return err
	}

	now := s.clock()
	if err := s.store.Touch(ctx, conversationID, userID, now); err != nil {
		s.logger.Error().Err(err).Int64("conversationID", conversationID).Msg("Failed to record typing")
		return fmt.Errorf("error recording typing: %w", err)
	}
	metrics.TypingSignals.WithLabelValues("recorded").Inc()

	publish(ctx, s.publisher, websocket.Event{
		Type:           websocket.EventTyping,
		ConversationID: conversationID,
		UserID:         userID,
		At:             now,
	}, func(err error) { s.logger.Debug().Err(err).Msg("Failed to publish hint") })
	return nil
}

// TypingUsers lists the other participants whose last signal is within the TTL
func (s *typingServiceImpl) TypingUsers(ctx context.Context, conversationID, userID int64) ([]dto.TypingUserResponse, error) {
	if err := s.authz.ValidateParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	signals, err := s.store.Active(ctx, conversationID, s.clock().Add(-s.ttl))
	if err != nil {
		return nil, fmt.Errorf("error reading typing state: %w", err)
	}

	ids := make([]int64, 0, len(signals))
	for _, sig := range signals {
		if sig.UserID != userID {
			ids = append(ids, sig.UserID)
		}
	}

	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error loading typing users: %w", err)
	}

	result := make([]dto.TypingUserResponse, 0, len(ids))
	for _, id := range ids {
		if u, ok := users[id]; ok {
			result = append(result, dto.TypingUserResponse{User: dto.ToUserBasicResponse(u)})
		}
	}
	return result, nil
}
