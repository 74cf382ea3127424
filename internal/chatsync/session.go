package chatsync

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hubtc/portal/internal/app/models"
	"github.com/hubtc/portal/internal/app/models/dto"
)

// API is the part of the chat API a session drives. *Client implements it.
type API interface {
	Snapshot(ctx context.Context, conversationID int64) ([]Message, error)
	Send(ctx context.Context, conversationID int64, req dto.SendMessageRequest) (*Message, error)
	Edit(ctx context.Context, conversationID, messageID int64, content string) (*Message, error)
	Delete(ctx context.Context, conversationID, messageID int64) error
	React(ctx context.Context, conversationID, messageID int64, emoji string) ([]models.ReactionGroup, error)
	RemoveReaction(ctx context.Context, conversationID, messageID int64, emoji string) error
	MarkRead(ctx context.Context, conversationID, messageID int64) error
	SignalTyping(ctx context.Context, conversationID int64) error
	TypingUsers(ctx context.Context, conversationID int64) ([]dto.UserBasicResponse, error)
}

// SessionConfig tunes a session
type SessionConfig struct {
	PollInterval   time.Duration
	TypingDebounce time.Duration
	// OnChange is called, outside the session lock, after the visible state changed
	OnChange func()
	// Now defaults to time.Now
	Now func() time.Time
}

const (
	defaultPollInterval   = 3 * time.Second
	defaultTypingDebounce = 2 * time.Second
)

// Session is one user's view of one open conversation. It keeps the reconciled
// message list and typing set, refreshes them by polling while active, and only
// changes local state after the API acknowledged a mutation.
//
// A snapshot covers the newest chat.snapshot_limit messages. Loaded messages
// older than that window are kept but no longer refreshed, so later edits,
// deletes and reactions on them are not seen until the session is reopened.
type Session struct {
	api            API
	conversationID int64
	userID         int64
	config         SessionConfig
	logger         zerolog.Logger

	mu       sync.Mutex
	messages []Message
	typing   []dto.UserBasicResponse
	active   bool
	issued   uint64
	applied  uint64
	acked    uint64 // last refresh issued before an acknowledged write
	typedAt  time.Time
	// id of the last message this session marked read (or is marking)
	readMarked int64

	nudge chan struct{}
}

// NewSession creates an active session. Call Run to start polling.
func NewSession(api API, conversationID, userID int64, config SessionConfig, logger zerolog.Logger) *Session {
	if config.PollInterval <= 0 {
		config.PollInterval = defaultPollInterval
	}
	if config.TypingDebounce <= 0 {
		config.TypingDebounce = defaultTypingDebounce
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Session{
		api:            api,
		conversationID: conversationID,
		userID:         userID,
		config:         config,
		logger:         logger.With().Int64("conversationID", conversationID).Logger(),
		active:         true,
		nudge:          make(chan struct{}, 1),
	}
}

// ConversationID of the open conversation
func (s *Session) ConversationID() int64 { return s.conversationID }

// Run refreshes immediately and then on every poll interval, or sooner when
// nudged, until ctx is done. Refresh failures are retried on the next tick.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		case <-s.nudge:
			s.poll(ctx)
		}
	}
}

func (s *Session) poll(ctx context.Context) {
	if !s.Active() {
		return
	}
	if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
		s.logger.Debug().Err(err).Msg("Poll failed, retrying on next interval")
	}
}

// Pause suspends polling, e.g. while the view is hidden
func (s *Session) Pause() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

// Resume re-enables polling and refreshes at once
func (s *Session) Resume() {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
	s.Nudge()
}

// Active reports whether polling is enabled
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Nudge asks Run for an early refresh. Pending nudges coalesce.
func (s *Session) Nudge() {
	select {
	case s.nudge <- struct{}{}:
	default:
	}
}

// Refresh fetches a snapshot and the typing set and applies them, unless a
// refresh issued later has already been applied or a write was acknowledged
// while this one was in flight.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	snapshot, err := s.api.Snapshot(ctx, s.conversationID)
	if err != nil {
		return err
	}
	typing, typingErr := s.api.TypingUsers(ctx, s.conversationID)

	s.mu.Lock()
	if seq < s.applied || seq <= s.acked {
		applied, acked := s.applied, s.acked
		s.mu.Unlock()
		s.logger.Debug().Uint64("seq", seq).Uint64("applied", applied).Uint64("acked", acked).Msg("Discarding stale snapshot")
		return nil
	}
	s.applied = seq
	s.messages = Merge(s.messages, snapshot)
	if typingErr == nil {
		s.typing = typing
	}
	s.mu.Unlock()

	s.changed()
	s.autoRead(ctx)
	return typingErr
}

// autoRead marks the single most recent message read when someone else sent it
func (s *Session) autoRead(ctx context.Context) {
	s.mu.Lock()
	if len(s.messages) == 0 {
		s.mu.Unlock()
		return
	}
	last := s.messages[len(s.messages)-1]
	if last.SenderID == s.userID || last.ID == s.readMarked || readBy(last, s.userID) {
		s.mu.Unlock()
		return
	}
	previous := s.readMarked
	s.readMarked = last.ID
	s.mu.Unlock()

	if err := s.api.MarkRead(ctx, s.conversationID, last.ID); err != nil {
		s.logger.Debug().Err(err).Int64("messageID", last.ID).Msg("Auto read failed")
		s.mu.Lock()
		if s.readMarked == last.ID {
			s.readMarked = previous
		}
		s.mu.Unlock()
	}
}

func readBy(m Message, userID int64) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// Messages returns a copy of the reconciled list
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// TypingUsers returns the other participants typing as of the last refresh
func (s *Session) TypingUsers() []dto.UserBasicResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dto.UserBasicResponse, len(s.typing))
	copy(out, s.typing)
	return out
}

// Locate returns the index of a loaded message, or -1 and false
func (s *Session) Locate(messageID int64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Locate(s.messages, messageID)
}

// Send posts a message and shows it as soon as the server acknowledged it
func (s *Session) Send(ctx context.Context, req dto.SendMessageRequest) (*Message, error) {
	message, err := s.api.Send(ctx, s.conversationID, req)
	if err != nil {
		return nil, err
	}
	s.upsert(*message)
	return message, nil
}

// Reply sends content as a reply to an earlier message of the conversation
func (s *Session) Reply(ctx context.Context, replyToID int64, content string) (*Message, error) {
	return s.Send(ctx, dto.SendMessageRequest{Content: &content, ReplyToID: &replyToID})
}

// Edit replaces the content of one of the user's messages
func (s *Session) Edit(ctx context.Context, messageID int64, content string) (*Message, error) {
	message, err := s.api.Edit(ctx, s.conversationID, messageID, content)
	if err != nil {
		return nil, err
	}
	s.upsert(*message)
	return message, nil
}

// Delete soft-deletes one of the user's messages. A failed delete leaves the list untouched.
func (s *Session) Delete(ctx context.Context, messageID int64) error {
	if err := s.api.Delete(ctx, s.conversationID, messageID); err != nil {
		return err
	}

	s.mu.Lock()
	s.acknowledged()
	if i, ok := Locate(s.messages, messageID); ok && !isDeleted(s.messages[i]) {
		deletedAt := s.config.Now()
		m := stripped(s.messages[i])
		m.DeletedAt = &deletedAt
		s.messages[i] = m
	}
	s.mu.Unlock()
	s.changed()
	return nil
}

// React toggles an emoji and adopts the reaction set the server returned
func (s *Session) React(ctx context.Context, messageID int64, emoji string) ([]models.ReactionGroup, error) {
	groups, err := s.api.React(ctx, s.conversationID, messageID, emoji)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.acknowledged()
	if i, ok := Locate(s.messages, messageID); ok {
		s.messages[i].Reactions = groups
	}
	s.mu.Unlock()
	s.changed()
	return groups, nil
}

// RemoveReaction drops the user's emoji from a message
func (s *Session) RemoveReaction(ctx context.Context, messageID int64, emoji string) error {
	if err := s.api.RemoveReaction(ctx, s.conversationID, messageID, emoji); err != nil {
		return err
	}

	s.mu.Lock()
	s.acknowledged()
	if i, ok := Locate(s.messages, messageID); ok {
		s.messages[i].Reactions = withoutReaction(s.messages[i].Reactions, s.userID, emoji)
	}
	s.mu.Unlock()
	s.changed()
	return nil
}

func withoutReaction(groups []models.ReactionGroup, userID int64, emoji string) []models.ReactionGroup {
	out := make([]models.ReactionGroup, 0, len(groups))
	for _, g := range groups {
		if g.Emoji != emoji {
			out = append(out, g)
			continue
		}
		users := make([]int64, 0, len(g.UserIDs))
		for _, id := range g.UserIDs {
			if id != userID {
				users = append(users, id)
			}
		}
		if len(users) > 0 {
			out = append(out, models.ReactionGroup{Emoji: g.Emoji, Count: len(users), UserIDs: users})
		}
	}
	return out
}

// Typing signals that the user is composing, at most once per debounce window.
// It reports whether a signal was sent.
func (s *Session) Typing(ctx context.Context) (bool, error) {
	now := s.config.Now()

	s.mu.Lock()
	if !s.typedAt.IsZero() && now.Sub(s.typedAt) < s.config.TypingDebounce {
		s.mu.Unlock()
		return false, nil
	}
	previous := s.typedAt
	s.typedAt = now
	s.mu.Unlock()

	if err := s.api.SignalTyping(ctx, s.conversationID); err != nil {
		s.mu.Lock()
		if s.typedAt.Equal(now) {
			s.typedAt = previous
		}
		s.mu.Unlock()
		return false, err
	}
	return true, nil
}

func (s *Session) upsert(message Message) {
	s.mu.Lock()
	s.acknowledged()
	s.messages = Merge(s.messages, []Message{message})
	s.mu.Unlock()
	s.changed()
}

// acknowledged makes every refresh already in flight stale. Callers hold mu.
func (s *Session) acknowledged() {
	s.acked = s.issued
}

func (s *Session) changed() {
	if s.config.OnChange != nil {
		s.config.OnChange()
	}
}
