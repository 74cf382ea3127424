package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hubtc/portal/internal/app/models"
	"github.com/hubtc/portal/internal/pkg/apperrors"
)

type membership struct {
	conversations map[int64][]int64
	err           error
}

func (m membership) Exists(_ context.Context, conversationID int64) (bool, error) {
	_, ok := m.conversations[conversationID]
	return ok, m.err
}

func (m membership) IsParticipant(_ context.Context, conversationID, userID int64) (bool, error) {
	for _, id := range m.conversations[conversationID] {
		if id == userID {
			return true, m.err
		}
	}
	return false, m.err
}

func TestValidateParticipant(t *testing.T) {
	svc := NewAuthorizationService(membership{conversations: map[int64][]int64{1: {10, 11}}})
	ctx := context.Background()

	assert.NoError(t, svc.ValidateParticipant(ctx, 1, 10))
	assert.ErrorIs(t, svc.ValidateParticipant(ctx, 1, 12), apperrors.ErrNotParticipant)
	assert.ErrorIs(t, svc.ValidateParticipant(ctx, 2, 10), apperrors.ErrConversationNotFound)
}

func TestValidateParticipantStoreError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewAuthorizationService(membership{err: boom})
	assert.ErrorIs(t, svc.ValidateParticipant(context.Background(), 1, 1), boom)
}

func TestMessageChecks(t *testing.T) {
	svc := NewAuthorizationService(membership{})
	m := &models.Message{ConversationID: 4, SenderID: 9}

	assert.NoError(t, svc.ValidateMessageInConversation(m, 4))
	assert.ErrorIs(t, svc.ValidateMessageInConversation(m, 5), apperrors.ErrMessageNotFound)
	assert.NoError(t, svc.ValidateMessageOwnership(m, 9))
	assert.ErrorIs(t, svc.ValidateMessageOwnership(m, 1), apperrors.ErrNotMessageSender)
}
