package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hubtc/portal/internal/pkg/apperrors"
)

// MessageStatus is the closed set of lifecycle states of a message.
type MessageStatus string

const (
	MessageActive  MessageStatus = "ACTIVE"
	MessageEdited  MessageStatus = "EDITED"
	MessageDeleted MessageStatus = "DELETED"
)

const (
	// DeletedPlaceholder replaces the body of a deleted message wherever it is shown.
	DeletedPlaceholder = "This message was deleted"
	// RemovedReplyPreview replaces the preview of a deleted reply target.
	RemovedReplyPreview = "Original message removed"

	previewRunes = 120
)

// Message is a chat message. Status transitions:
// ACTIVE -> EDITED (sender, within the edit window), ACTIVE|EDITED -> DELETED (sender, terminal).
type Message struct {
	ID             int64      `json:"id" db:"id"`
	ConversationID int64      `json:"conversationId" db:"conversation_id"`
	SenderID       int64      `json:"senderId" db:"sender_id"`
	Content        *string    `json:"content,omitempty" db:"content"`
	Image          *string    `json:"image,omitempty" db:"image"`
	FileURL        *string    `json:"fileUrl,omitempty" db:"file_url"`
	FileName       *string    `json:"fileName,omitempty" db:"file_name"`
	ReplyToID      *int64     `json:"replyToId,omitempty" db:"reply_to_id"`
	IsEdited       bool       `json:"isEdited" db:"is_edited"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`

	// Related entities
	Sender       *User          `json:"sender,omitempty"`
	ReplyTo      *Message       `json:"replyTo,omitempty"`
	Reactions    []*Reaction    `json:"reactions,omitempty"`
	ReadReceipts []*ReadReceipt `json:"readReceipts,omitempty"`
}

// Status derives the lifecycle state.
func (m *Message) Status() MessageStatus {
	switch {
	case m.DeletedAt != nil:
		return MessageDeleted
	case m.IsEdited:
		return MessageEdited
	default:
		return MessageActive
	}
}

// IsDeleted reports the terminal state.
func (m *Message) IsDeleted() bool {
	return m.DeletedAt != nil
}

// HasPayload reports whether at least one of content, image or file URL is non-blank.
func (m *Message) HasPayload() bool {
	return nonBlank(m.Content) || nonBlank(m.Image) || nonBlank(m.FileURL)
}

// CheckEditable validates an edit by userID at now against the edit window.
func (m *Message) CheckEditable(userID int64, now time.Time, window time.Duration) error {
	if m.SenderID != userID {
		return apperrors.ErrNotMessageSender
	}
	if m.IsDeleted() {
		return apperrors.ErrMessageDeleted
	}
	if now.Sub(m.CreatedAt) > window {
		return apperrors.ErrEditWindowExpired
	}
	return nil
}

// Edit replaces the content and moves the message to EDITED.
func (m *Message) Edit(userID int64, content string, now time.Time, window time.Duration) error {
	if err := m.CheckEditable(userID, now, window); err != nil {
		return err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return apperrors.ErrEmptyMessage
	}
	m.Content = &content
	m.IsEdited = true
	m.UpdatedAt = now
	return nil
}

// CheckDeletable validates a delete by userID. Deleting a deleted message is allowed and changes nothing.
func (m *Message) CheckDeletable(userID int64) error {
	if m.SenderID != userID {
		return apperrors.ErrNotMessageSender
	}
	return nil
}

// Delete moves the message to DELETED. An existing deletedAt is kept.
func (m *Message) Delete(userID int64, now time.Time) error {
	if err := m.CheckDeletable(userID); err != nil {
		return err
	}
	if m.DeletedAt == nil {
		deletedAt := now
		m.DeletedAt = &deletedAt
		m.UpdatedAt = now
	}
	return nil
}

// Redacted returns a copy safe to expose: deleted messages lose their payload.
func (m *Message) Redacted() *Message {
	cp := *m
	if cp.IsDeleted() {
		cp.Content = nil
		cp.Image = nil
		cp.FileURL = nil
		cp.FileName = nil
	}
	return &cp
}

// Preview renders a short neutral description of the message for reply quoting.
func (m *Message) Preview() string {
	if m.IsDeleted() {
		return RemovedReplyPreview
	}
	if nonBlank(m.Content) {
		return truncateRunes(strings.TrimSpace(*m.Content), previewRunes)
	}
	if nonBlank(m.Image) {
		return "[image]"
	}
	if nonBlank(m.FileURL) {
		if nonBlank(m.FileName) {
			return "[attachment: " + *m.FileName + "]"
		}
		return "[attachment]"
	}
	return ""
}

func nonBlank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}
