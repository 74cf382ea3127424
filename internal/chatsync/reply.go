package chatsync

import (
	"github.com/hubtc/portal/internal/app/models"
	"github.com/hubtc/portal/internal/app/models/dto"
)

// ResolveReply returns the quoted summary of m's reply target. A target that is
// loaded locally wins over the server preview, so a deletion this client has
// already seen degrades the quote at once. An unknown target resolves to false.
func ResolveReply(messages []Message, m Message) (dto.ReplyPreviewResponse, bool) {
	if m.ReplyToID == nil {
		return dto.ReplyPreviewResponse{}, false
	}

	if i, ok := Locate(messages, *m.ReplyToID); ok {
		target := messages[i]
		preview := dto.ReplyPreviewResponse{
			ID:        target.ID,
			SenderID:  target.SenderID,
			Preview:   previewOf(target),
			IsDeleted: isDeleted(target),
		}
		if target.Sender != nil {
			preview.SenderName = displayName(*target.Sender)
		} else if m.ReplyTo != nil {
			preview.SenderName = m.ReplyTo.SenderName
		}
		return preview, true
	}

	if m.ReplyTo != nil {
		preview := *m.ReplyTo
		if preview.IsDeleted {
			preview.Preview = models.RemovedReplyPreview
		}
		return preview, true
	}
	return dto.ReplyPreviewResponse{}, false
}

// previewOf reuses the server's preview rules on a wire message
func previewOf(m Message) string {
	msg := models.Message{
		Content:  m.Content,
		Image:    m.Image,
		FileURL:  m.FileURL,
		FileName: m.FileName,
	}
	if isDeleted(m) {
		deletedAt := m.CreatedAt
		if m.DeletedAt != nil {
			deletedAt = *m.DeletedAt
		}
		msg.DeletedAt = &deletedAt
	}
	return msg.Preview()
}

// Locate finds the index of a message in an ordered list. Navigating to a
// message that is not loaded is a no-op for callers, so absence is not an error.
func Locate(messages []Message, messageID int64) (int, bool) {
	for i := range messages {
		if messages[i].ID == messageID {
			return i, true
		}
	}
	return -1, false
}
