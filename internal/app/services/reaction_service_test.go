package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/pkg/apperrors"
)

func sendTestMessage(t *testing.T, f *fixture, conversationID, userID int64, body string) int64 {
	t.Helper()
	msg, err := f.messageSvc.Send(context.Background(), conversationID, userID, &dto.SendMessageRequest{Content: text(body)})
	require.NoError(t, err)
	return msg.ID
}

func TestReactionService_ToggleTwiceRestores(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := sendTestMessage(t, f, 2, 1, "bus is here")

	groups, err := f.reactionSvc.React(ctx, 2, id, 2, "👍")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].Count)
	assert.Equal(t, []int64{2}, groups[0].UserIDs)

	groups, err = f.reactionSvc.React(ctx, 2, id, 3, " 👍 ")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].Count)

	groups, err = f.reactionSvc.React(ctx, 2, id, 2, "👍")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []int64{3}, groups[0].UserIDs)

	groups, err = f.reactionSvc.React(ctx, 2, id, 3, "👍")
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestReactionService_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := sendTestMessage(t, f, 1, 1, "hello")

	_, err := f.reactionSvc.React(ctx, 1, id, 2, "   ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidEmoji)

	_, err = f.reactionSvc.React(ctx, 1, id, 2, "thisisfartoolongforanemoji")
	assert.ErrorIs(t, err, apperrors.ErrInvalidEmoji)

	_, err = f.reactionSvc.React(ctx, 1, id, 3, "👍")
	assert.ErrorIs(t, err, apperrors.ErrNotParticipant)

	_, err = f.reactionSvc.React(ctx, 2, id, 1, "👍")
	assert.ErrorIs(t, err, apperrors.ErrMessageNotFound)

	_, err = f.reactionSvc.React(ctx, 1, 404, 1, "👍")
	assert.ErrorIs(t, err, apperrors.ErrMessageNotFound)
}

func TestReactionService_RemoveReaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := sendTestMessage(t, f, 1, 1, "hello")

	_, err := f.reactionSvc.React(ctx, 1, id, 2, "🎉")
	require.NoError(t, err)
	require.NoError(t, f.reactionSvc.RemoveReaction(ctx, 1, id, 2, "🎉"))
	require.NoError(t, f.reactionSvc.RemoveReaction(ctx, 1, id, 2, "🎉"), "removing an absent reaction is fine")

	snapshot, err := f.messageSvc.Snapshot(ctx, 1, 1, nil, 0)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Empty(t, snapshot[0].Reactions)
}

func TestReactionService_ReactOnDeletedMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := sendTestMessage(t, f, 1, 1, "oops")
	require.NoError(t, f.messageSvc.Delete(ctx, 1, id, 1))

	groups, err := f.reactionSvc.React(ctx, 1, id, 2, "😮")
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestReactionService_MarkRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := sendTestMessage(t, f, 2, 1, "schedule attached")

	t.Run("own message is a no-op", func(t *testing.T) {
		require.NoError(t, f.reactionSvc.MarkRead(ctx, 2, id, 1))
		assert.Empty(t, f.receipts.rows)
	})

	t.Run("first read wins", func(t *testing.T) {
		firstRead := f.clock.Now()
		require.NoError(t, f.reactionSvc.MarkRead(ctx, 2, id, 2))
		f.clock.Advance(time.Minute)
		require.NoError(t, f.reactionSvc.MarkRead(ctx, 2, id, 2))

		snapshot, err := f.messageSvc.Snapshot(ctx, 2, 1, nil, 0)
		require.NoError(t, err)
		require.Len(t, snapshot[0].ReadBy, 1)
		assert.Equal(t, int64(2), snapshot[0].ReadBy[0].UserID)
		assert.Equal(t, firstRead, snapshot[0].ReadBy[0].ReadAt)
	})

	t.Run("non participant", func(t *testing.T) {
		direct := sendTestMessage(t, f, 1, 2, "private")
		assert.ErrorIs(t, f.reactionSvc.MarkRead(ctx, 1, direct, 3), apperrors.ErrNotParticipant)
	})
}
