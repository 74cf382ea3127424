package chatsync

import (
	"fmt"
	"strings"

	"github.com/hubtc/portal/internal/app/models"
	"github.com/hubtc/portal/internal/app/models/dto"
)

// Body is the text shown for a message. Deleted messages only ever show the placeholder.
func Body(m Message) string {
	if isDeleted(m) || m.Status == models.MessageDeleted {
		return models.DeletedPlaceholder
	}

	var parts []string
	if m.Content != nil && strings.TrimSpace(*m.Content) != "" {
		parts = append(parts, *m.Content)
	}
	if m.Image != nil && *m.Image != "" {
		parts = append(parts, "[image] "+*m.Image)
	}
	if m.FileURL != nil && *m.FileURL != "" {
		name := *m.FileURL
		if m.FileName != nil && *m.FileName != "" {
			name = *m.FileName
		}
		parts = append(parts, "[attachment: "+name+"]")
	}

	body := strings.Join(parts, " ")
	if m.IsEdited {
		body += " (edited)"
	}
	return body
}

// SenderName is the display name of the message author, or "user N" when not expanded
func SenderName(m Message) string {
	if m.Sender != nil {
		return displayName(*m.Sender)
	}
	return fmt.Sprintf("user %d", m.SenderID)
}

func displayName(u dto.UserBasicResponse) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return fmt.Sprintf("user %d", u.ID)
	}
	return name
}

// Line renders one message of the list: "[id] 10:04 Ayse Kaya: body", followed by
// the quoted reply target and the reaction summary when present.
func Line(messages []Message, m Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s %s: ", m.ID, m.CreatedAt.Local().Format("15:04"), SenderName(m))

	if preview, ok := ResolveReply(messages, m); ok {
		author := preview.SenderName
		if author == "" {
			author = fmt.Sprintf("user %d", preview.SenderID)
		}
		fmt.Fprintf(&b, "(re %s: %q) ", author, preview.Preview)
	}

	b.WriteString(Body(m))

	if len(m.Reactions) > 0 {
		groups := make([]string, 0, len(m.Reactions))
		for _, g := range m.Reactions {
			groups = append(groups, fmt.Sprintf("%s %d", g.Emoji, g.Count))
		}
		b.WriteString("  [" + strings.Join(groups, " ") + "]")
	}
	return b.String()
}

// TypingLine summarises who is typing, empty when nobody is
func TypingLine(users []dto.UserBasicResponse) string {
	switch len(users) {
	case 0:
		return ""
	case 1:
		return displayName(users[0]) + " is typing..."
	default:
		names := make([]string, 0, len(users))
		for _, u := range users {
			names = append(names, displayName(u))
		}
		return strings.Join(names, ", ") + " are typing..."
	}
}
