package chatsync

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubtc/portal/internal/app/models"
	"github.com/hubtc/portal/internal/app/models/dto"
)

func TestBody(t *testing.T) {
	image := "https://cdn.hubtc.io/a.png"
	file := "https://cdn.hubtc.io/plan.pdf"
	name := "plan.pdf"

	edited := msg(1, 0, "fixed")
	edited.IsEdited = true

	withImage := msg(2, 0, "")
	withImage.Content = nil
	withImage.Image = &image

	withFile := msg(3, 0, "see attached")
	withFile.FileURL = &file
	withFile.FileName = &name

	assert.Equal(t, "fixed (edited)", Body(edited))
	assert.Equal(t, "[image] "+image, Body(withImage))
	assert.Equal(t, "see attached [attachment: plan.pdf]", Body(withFile))
	assert.Equal(t, models.DeletedPlaceholder, Body(deleted(withFile, 1)))
}

func TestResolveReply(t *testing.T) {
	target := msg(1, 0, "Can we move the transfer to 14:00?")
	target.Sender = &dto.UserBasicResponse{ID: 2, FirstName: "Mehmet", LastName: "Demir"}
	replyTo := int64(1)
	reply := msg(2, 1, "Sure")
	reply.ReplyToID = &replyTo

	t.Run("loaded target", func(t *testing.T) {
		preview, ok := ResolveReply([]Message{target, reply}, reply)
		require.True(t, ok)
		assert.Equal(t, "Mehmet Demir", preview.SenderName)
		assert.Equal(t, "Can we move the transfer to 14:00?", preview.Preview)
		assert.False(t, preview.IsDeleted)
	})

	t.Run("locally deleted target overrides server preview", func(t *testing.T) {
		r := reply
		r.ReplyTo = &dto.ReplyPreviewResponse{ID: 1, SenderID: 2, Preview: "Can we move the transfer to 14:00?"}

		preview, ok := ResolveReply([]Message{deleted(target, 3), r}, r)
		require.True(t, ok)
		assert.True(t, preview.IsDeleted)
		assert.Equal(t, models.RemovedReplyPreview, preview.Preview)
	})

	t.Run("target not loaded uses server preview", func(t *testing.T) {
		r := reply
		r.ReplyTo = &dto.ReplyPreviewResponse{ID: 1, SenderID: 2, SenderName: "Mehmet Demir", Preview: "old", IsDeleted: true}

		preview, ok := ResolveReply([]Message{r}, r)
		require.True(t, ok)
		assert.Equal(t, models.RemovedReplyPreview, preview.Preview)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, ok := ResolveReply([]Message{reply}, reply)
		assert.False(t, ok)
	})

	t.Run("not a reply", func(t *testing.T) {
		_, ok := ResolveReply([]Message{target}, target)
		assert.False(t, ok)
	})
}

func TestLine(t *testing.T) {
	target := msg(1, 0, "Where is the meeting?")
	replyTo := int64(1)
	reply := msg(2, 1, "Room 4")
	reply.ReplyToID = &replyTo
	reply.Sender = &dto.UserBasicResponse{ID: 2, FirstName: "Elif"}
	reply.Reactions = []models.ReactionGroup{{Emoji: "👍", Count: 2, UserIDs: []int64{1, 3}}}

	line := Line([]Message{target, reply}, reply)

	assert.True(t, strings.HasPrefix(line, "[2] "))
	assert.Contains(t, line, "Elif: ")
	assert.Contains(t, line, `(re user 2: "Where is the meeting?")`)
	assert.Contains(t, line, "Room 4")
	assert.Contains(t, line, "[👍 2]")
}

func TestTypingLine(t *testing.T) {
	assert.Empty(t, TypingLine(nil))
	assert.Equal(t, "Ayse Kaya, Elif Sahin are typing...", TypingLine([]dto.UserBasicResponse{
		{ID: 1, FirstName: "Ayse", LastName: "Kaya"},
		{ID: 3, FirstName: "Elif", LastName: "Sahin"},
	}))
}
