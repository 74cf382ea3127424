// Package typing keeps the ephemeral "who is typing" state of conversations.
// Entries are liveness signals: a user counts as typing while their last signal
// is younger than the TTL. There is no explicit stop.
package typing

import (
	"context"
	"time"
)

// Signal is the last typing signal of one user
type Signal struct {
	UserID int64
	At     time.Time
}

// Store records typing signals and answers which ones are still live
type Store interface {
	// Touch records that userID was typing in conversationID at the given time
	Touch(ctx context.Context, conversationID, userID int64, at time.Time) error
	// Active returns the signals at or after since, most recent first
	Active(ctx context.Context, conversationID int64, since time.Time) ([]Signal, error)
}
