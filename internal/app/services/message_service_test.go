package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubtc/portal/internal/app/models"
	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/pkg/apperrors"
	"github.com/hubtc/portal/internal/pkg/websocket"
)

func TestMessageService_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("blank payload is rejected", func(t *testing.T) {
		f := newFixture()
		_, err := f.messageSvc.Send(ctx, 1, 1, &dto.SendMessageRequest{Content: text("   ")})
		assert.ErrorIs(t, err, apperrors.ErrEmptyMessage)
	})

	t.Run("non participant is rejected", func(t *testing.T) {
		f := newFixture()
		_, err := f.messageSvc.Send(ctx, 1, 3, &dto.SendMessageRequest{Content: text("hello")})
		assert.ErrorIs(t, err, apperrors.ErrNotParticipant)
	})

	t.Run("unknown conversation", func(t *testing.T) {
		f := newFixture()
		_, err := f.messageSvc.Send(ctx, 99, 1, &dto.SendMessageRequest{Content: text("hello")})
		assert.ErrorIs(t, err, apperrors.ErrConversationNotFound)
	})

	t.Run("content is trimmed and file name needs a file", func(t *testing.T) {
		f := newFixture()
		msg, err := f.messageSvc.Send(ctx, 1, 1, &dto.SendMessageRequest{
			Content:  text("  Transfer at 14:00  "),
			FileName: text("manifest.pdf"),
		})
		require.NoError(t, err)
		require.NotNil(t, msg.Content)
		assert.Equal(t, "Transfer at 14:00", *msg.Content)
		assert.Nil(t, msg.FileName)
		assert.Equal(t, models.MessageActive, msg.Status)
		assert.Equal(t, []websocket.EventType{websocket.EventMessageCreated}, f.publisher.types())
	})

	t.Run("image only is a valid payload", func(t *testing.T) {
		f := newFixture()
		msg, err := f.messageSvc.Send(ctx, 1, 2, &dto.SendMessageRequest{Image: text("https://cdn.hubtc.travel/bus.jpg")})
		require.NoError(t, err)
		assert.Nil(t, msg.Content)
		assert.NotNil(t, msg.Image)
	})

	t.Run("conversation activity is bumped", func(t *testing.T) {
		f := newFixture()
		_, err := f.messageSvc.Send(ctx, 2, 1, &dto.SendMessageRequest{Content: text("hi all")})
		require.NoError(t, err)
		conv, err := f.conversations.GetByID(ctx, 2, 1)
		require.NoError(t, err)
		require.NotNil(t, conv.LastMessageAt)
		assert.Equal(t, f.clock.Now(), *conv.LastMessageAt)
	})
}

func TestMessageService_ReplyIntegrity(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	inGroup, err := f.messageSvc.Send(ctx, 2, 1, &dto.SendMessageRequest{Content: text("group note")})
	require.NoError(t, err)

	_, err = f.messageSvc.Send(ctx, 1, 1, &dto.SendMessageRequest{Content: text("re"), ReplyToID: &inGroup.ID})
	assert.ErrorIs(t, err, apperrors.ErrInvalidReplyTarget)

	missing := int64(999)
	_, err = f.messageSvc.Send(ctx, 1, 1, &dto.SendMessageRequest{Content: text("re"), ReplyToID: &missing})
	assert.ErrorIs(t, err, apperrors.ErrInvalidReplyTarget)

	reply, err := f.messageSvc.Send(ctx, 2, 2, &dto.SendMessageRequest{Content: text("seen"), ReplyToID: &inGroup.ID})
	require.NoError(t, err)
	require.NotNil(t, reply.ReplyTo)
	assert.Equal(t, inGroup.ID, reply.ReplyTo.ID)
	assert.Equal(t, "group note", reply.ReplyTo.Preview)
}

func TestMessageService_NotificationsSkipSenderAndMuted(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.conversationSvc.UpdateSettings(ctx, 2, 3, true)
	require.NoError(t, err)

	_, err = f.messageSvc.Send(ctx, 2, 1, &dto.SendMessageRequest{Content: text("briefing at 8")})
	require.NoError(t, err)

	require.Len(t, f.notifications.rows, 1)
	n := f.notifications.rows[0]
	assert.Equal(t, int64(2), n.UserID)
	assert.Equal(t, models.NotificationChatMessage, n.Type)
	assert.Equal(t, int64(2), n.ConversationID)
}

func TestMessageService_Edit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	msg, err := f.messageSvc.Send(ctx, 1, 1, &dto.SendMessageRequest{Content: text("pickup 9:00")})
	require.NoError(t, err)

	_, err = f.messageSvc.Edit(ctx, 1, msg.ID, 2, "pickup 9:30")
	assert.ErrorIs(t, err, apperrors.ErrNotMessageSender)

	_, err = f.messageSvc.Edit(ctx, 1, msg.ID, 1, "  ")
	assert.ErrorIs(t, err, apperrors.ErrEmptyMessage)

	f.clock.Advance(10 * time.Minute)
	edited, err := f.messageSvc.Edit(ctx, 1, msg.ID, 1, "pickup 9:30")
	require.NoError(t, err)
	assert.Equal(t, models.MessageEdited, edited.Status)
	assert.True(t, edited.IsEdited)
	assert.Equal(t, "pickup 9:30", *edited.Content)

	f.clock.Advance(6 * time.Minute)
	_, err = f.messageSvc.Edit(ctx, 1, msg.ID, 1, "pickup 10:00")
	assert.ErrorIs(t, err, apperrors.ErrEditWindowExpired)
}

func TestMessageService_WrongConversationPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	msg, err := f.messageSvc.Send(ctx, 1, 1, &dto.SendMessageRequest{Content: text("direct only")})
	require.NoError(t, err)

	err = f.messageSvc.Delete(ctx, 2, msg.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrMessageNotFound)
	_, err = f.messageSvc.Edit(ctx, 2, msg.ID, 1, "moved")
	assert.ErrorIs(t, err, apperrors.ErrMessageNotFound)
}

func TestMessageService_DeletedMessageScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	original, err := f.messageSvc.Send(ctx, 2, 1, &dto.SendMessageRequest{
		Content: text("Room list v1"),
		FileURL: text("https://files.hubtc.travel/rooms.xlsx"),
	})
	require.NoError(t, err)
	reply, err := f.messageSvc.Send(ctx, 2, 2, &dto.SendMessageRequest{Content: text("thanks"), ReplyToID: &original.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, f.messageSvc.Delete(ctx, 2, original.ID, 2), apperrors.ErrNotMessageSender)

	require.NoError(t, f.messageSvc.Delete(ctx, 2, original.ID, 1))
	firstDeletedAt := *f.messages.messages[original.ID].DeletedAt

	f.clock.Advance(time.Minute)
	require.NoError(t, f.messageSvc.Delete(ctx, 2, original.ID, 1), "deleting twice succeeds")
	assert.Equal(t, firstDeletedAt, *f.messages.messages[original.ID].DeletedAt)

	_, err = f.messageSvc.Edit(ctx, 2, original.ID, 1, "Room list v2")
	assert.ErrorIs(t, err, apperrors.ErrMessageDeleted)

	snapshot, err := f.messageSvc.Snapshot(ctx, 2, 3, nil, 0)
	require.NoError(t, err)
	require.Len(t, snapshot, 2)

	deleted := snapshot[0]
	assert.Equal(t, original.ID, deleted.ID)
	assert.Equal(t, models.MessageDeleted, deleted.Status)
	assert.True(t, deleted.IsDeleted)
	assert.Nil(t, deleted.Content)
	assert.Nil(t, deleted.FileURL)

	assert.Equal(t, reply.ID, snapshot[1].ID)
	require.NotNil(t, snapshot[1].ReplyTo)
	assert.True(t, snapshot[1].ReplyTo.IsDeleted)
	assert.Equal(t, models.RemovedReplyPreview, snapshot[1].ReplyTo.Preview)

	// replying to a deleted message is still allowed
	_, err = f.messageSvc.Send(ctx, 2, 3, &dto.SendMessageRequest{Content: text("which list?"), ReplyToID: &original.ID})
	assert.NoError(t, err)
}

func TestMessageService_SnapshotOrderAndPaging(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	var ids []int64
	for _, body := range []string{"one", "two", "three"} {
		msg, err := f.messageSvc.Send(ctx, 1, 1, &dto.SendMessageRequest{Content: text(body)})
		require.NoError(t, err)
		ids = append(ids, msg.ID)
		f.clock.Advance(time.Second)
	}

	all, err := f.messageSvc.Snapshot(ctx, 1, 2, nil, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, m := range all {
		assert.Equal(t, ids[i], m.ID)
	}

	latest, err := f.messageSvc.Snapshot(ctx, 1, 2, nil, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, ids[1], latest[0].ID)

	before := all[2].CreatedAt
	older, err := f.messageSvc.Snapshot(ctx, 1, 2, &before, 10)
	require.NoError(t, err)
	assert.Len(t, older, 2)

	_, err = f.messageSvc.Snapshot(ctx, 1, 3, nil, 0)
	assert.ErrorIs(t, err, apperrors.ErrNotParticipant)
}
