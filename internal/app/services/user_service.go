package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hubtc/portal/internal/app/models/dto"
)

// UserService searches the staff directory
type UserService interface {
	Search(ctx context.Context, query string, limit int) ([]dto.UserBasicResponse, error)
}

type userServiceImpl struct {
	users  UserStore
	logger zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(users UserStore, logger zerolog.Logger) UserService {
	return &userServiceImpl{users: users, logger: logger}
}

func (s *userServiceImpl) Search(ctx context.Context, query string, limit int) ([]dto.UserBasicResponse, error) {
	users, err := s.users.Search(ctx, query, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("Failed to search users")
		return nil, fmt.Errorf("error searching users: %w", err)
	}

	responses := make([]dto.UserBasicResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, dto.ToUserBasicResponse(u))
	}
	return responses, nil
}
