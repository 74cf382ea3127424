package websocket

import (
	"context"
	"time"
)

// EventType names a change hint
type EventType string

const (
	EventMessageCreated  EventType = "message.created"
	EventMessageUpdated  EventType = "message.updated"
	EventReactionChanged EventType = "reaction.changed"
	EventReadChanged     EventType = "read.changed"
	EventTyping          EventType = "typing"
)

// Event says that something changed in a conversation. It never carries message
// state; clients respond by fetching a fresh snapshot.
type Event struct {
	Type           EventType `json:"type"`
	ConversationID int64     `json:"conversationId"`
	MessageID      int64     `json:"messageId,omitempty"`
	UserID         int64     `json:"userId,omitempty"`
	At             time.Time `json:"at"`
}

// Publisher fans an event out to the conversation's subscribers
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
