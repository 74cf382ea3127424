package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubtc/portal/internal/pkg/apperrors"
	"github.com/hubtc/portal/internal/pkg/websocket"
)

func TestTypingService(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	require.NoError(t, f.typingSvc.Signal(ctx, 2, 1))
	f.clock.Advance(time.Second)
	require.NoError(t, f.typingSvc.Signal(ctx, 2, 3))

	seenBy2, err := f.typingSvc.TypingUsers(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, seenBy2, 2)
	assert.Equal(t, int64(3), seenBy2[0].User.ID, "most recent first")
	assert.Equal(t, int64(1), seenBy2[1].User.ID)

	seenBy1, err := f.typingSvc.TypingUsers(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, seenBy1, 1)
	assert.Equal(t, int64(3), seenBy1[0].User.ID)

	f.clock.Advance(4500 * time.Millisecond)
	seenBy2, err = f.typingSvc.TypingUsers(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, seenBy2, 1, "user 1 expired")
	assert.Equal(t, int64(3), seenBy2[0].User.ID)

	f.clock.Advance(time.Second)
	seenBy2, err = f.typingSvc.TypingUsers(ctx, 2, 2)
	require.NoError(t, err)
	assert.Empty(t, seenBy2)

	assert.Contains(t, f.publisher.types(), websocket.EventTyping)
}

func TestTypingService_NonParticipant(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	assert.ErrorIs(t, f.typingSvc.Signal(ctx, 1, 3), apperrors.ErrNotParticipant)
	_, err := f.typingSvc.TypingUsers(ctx, 1, 3)
	assert.ErrorIs(t, err, apperrors.ErrNotParticipant)
}
