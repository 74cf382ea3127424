package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubtc/portal/internal/pkg/apperrors"
)

func strPtr(s string) *string { return &s }

func TestMessageStatusTransitions(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	window := 15 * time.Minute

	t.Run("active to edited within window", func(t *testing.T) {
		m := &Message{SenderID: 1, Content: strPtr("helo"), CreatedAt: created}
		require.Equal(t, MessageActive, m.Status())

		require.NoError(t, m.Edit(1, "hello", created.Add(5*time.Minute), window))
		assert.Equal(t, MessageEdited, m.Status())
		assert.True(t, m.IsEdited)
		assert.Equal(t, "hello", *m.Content)
	})

	t.Run("edit after window rejected", func(t *testing.T) {
		m := &Message{SenderID: 1, Content: strPtr("hi"), CreatedAt: created}
		err := m.Edit(1, "late", created.Add(16*time.Minute), window)
		assert.ErrorIs(t, err, apperrors.ErrEditWindowExpired)
		assert.False(t, m.IsEdited)
		assert.Equal(t, "hi", *m.Content)
	})

	t.Run("edit by other user rejected", func(t *testing.T) {
		m := &Message{SenderID: 1, Content: strPtr("hi"), CreatedAt: created}
		assert.ErrorIs(t, m.Edit(2, "x", created, window), apperrors.ErrNotMessageSender)
	})

	t.Run("deleted is terminal", func(t *testing.T) {
		m := &Message{SenderID: 1, Content: strPtr("hi"), CreatedAt: created}
		require.NoError(t, m.Delete(1, created.Add(time.Minute)))
		assert.Equal(t, MessageDeleted, m.Status())
		first := *m.DeletedAt

		assert.ErrorIs(t, m.Edit(1, "again", created.Add(2*time.Minute), window), apperrors.ErrMessageDeleted)
		require.NoError(t, m.Delete(1, created.Add(3*time.Minute)))
		assert.Equal(t, first, *m.DeletedAt)
	})

	t.Run("delete by other user rejected", func(t *testing.T) {
		m := &Message{SenderID: 1, CreatedAt: created}
		assert.ErrorIs(t, m.Delete(2, created), apperrors.ErrNotMessageSender)
		assert.Nil(t, m.DeletedAt)
	})
}

func TestMessageRedactedAndPreview(t *testing.T) {
	now := time.Now()
	m := &Message{
		SenderID:  1,
		Content:   strPtr("secret plan"),
		Image:     strPtr("https://cdn/x.png"),
		FileURL:   strPtr("https://cdn/x.pdf"),
		FileName:  strPtr("x.pdf"),
		DeletedAt: &now,
	}

	r := m.Redacted()
	assert.Nil(t, r.Content)
	assert.Nil(t, r.Image)
	assert.Nil(t, r.FileURL)
	assert.Nil(t, r.FileName)
	assert.NotNil(t, m.Content, "original must be untouched")
	assert.Equal(t, RemovedReplyPreview, m.Preview())

	assert.Equal(t, "[image]", (&Message{Image: strPtr("u")}).Preview())
	assert.Equal(t, "[attachment: a.pdf]", (&Message{FileURL: strPtr("u"), FileName: strPtr("a.pdf")}).Preview())

	long := strings.Repeat("ş", 200)
	p := (&Message{Content: &long}).Preview()
	assert.Equal(t, previewRunes+1, len([]rune(p)))
}

func TestMessageHasPayload(t *testing.T) {
	assert.False(t, (&Message{}).HasPayload())
	assert.False(t, (&Message{Content: strPtr("   ")}).HasPayload())
	assert.True(t, (&Message{FileURL: strPtr("https://f")}).HasPayload())
}

func TestGroupReactions(t *testing.T) {
	base := time.Now()
	groups := GroupReactions([]*Reaction{
		{ID: 3, UserID: 3, Emoji: "🎉", CreatedAt: base.Add(2 * time.Second)},
		{ID: 1, UserID: 1, Emoji: "👍", CreatedAt: base},
		{ID: 2, UserID: 2, Emoji: "👍", CreatedAt: base.Add(time.Second)},
	})
	require.Len(t, groups, 2)
	assert.Equal(t, ReactionGroup{Emoji: "👍", Count: 2, UserIDs: []int64{1, 2}}, groups[0])
	assert.Equal(t, "🎉", groups[1].Emoji)

	assert.Empty(t, GroupReactions(nil))
}
