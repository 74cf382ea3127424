package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hubtc/portal/internal/app/models/dto"
)

// NotificationService exposes the caller's notification inbox
type NotificationService interface {
	List(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, notificationID, userID int64) (*dto.NotificationResponse, error)
}

type notificationServiceImpl struct {
	notifications NotificationStore
	clock         Clock
	logger        zerolog.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notifications NotificationStore, clock Clock, logger zerolog.Logger) NotificationService {
	if clock == nil {
		clock = time.Now
	}
	return &notificationServiceImpl{notifications: notifications, clock: clock, logger: logger}
}

func (s *notificationServiceImpl) List(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]dto.NotificationResponse, error) {
	notifications, err := s.notifications.ListForUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to list notifications")
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}

	responses := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, dto.ToNotificationResponse(n))
	}
	return responses, nil
}

// MarkRead marks one of the caller's notifications read; other users' notifications are not found
func (s *notificationServiceImpl) MarkRead(ctx context.Context, notificationID, userID int64) (*dto.NotificationResponse, error) {
	n, err := s.notifications.MarkRead(ctx, notificationID, userID, s.clock())
	if err != nil {
		return nil, err
	}
	resp := dto.ToNotificationResponse(n)
	return &resp, nil
}
