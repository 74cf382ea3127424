package chatsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	ws "github.com/hubtc/portal/internal/pkg/websocket"
)

// Stream listens to a conversation's change hints and nudges the session on
// each one. Hints are optional: the session keeps polling on its own.
type Stream struct {
	url     string
	session *Session
	dialer  *websocket.Dialer
	logger  zerolog.Logger
	backoff time.Duration
}

// NewStream prepares a stream for the session's conversation
func NewStream(client *Client, session *Session, logger zerolog.Logger) (*Stream, error) {
	url, err := client.StreamURL(session.ConversationID())
	if err != nil {
		return nil, err
	}
	return &Stream{
		url:     url,
		session: session,
		dialer:  websocket.DefaultDialer,
		logger:  logger,
		backoff: 5 * time.Second,
	}, nil
}

// Run keeps the stream connected until ctx is done, redialling after failures
func (s *Stream) Run(ctx context.Context) {
	for {
		if err := s.listen(ctx); err != nil && ctx.Err() == nil {
			s.logger.Debug().Err(err).Dur("backoff", s.backoff).Msg("Change stream disconnected")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.backoff):
		}
	}
}

func (s *Stream) listen(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial change stream: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if s.relevant(data) {
			s.session.Nudge()
		}
	}
}

// relevant reports whether a frame (events joined by newlines) concerns the session
func (s *Stream) relevant(frame []byte) bool {
	for _, line := range bytes.Split(frame, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var event ws.Event
		if err := json.Unmarshal(line, &event); err != nil {
			s.logger.Debug().Err(err).Msg("Ignoring malformed change hint")
			continue
		}
		if event.ConversationID == 0 || event.ConversationID == s.session.ConversationID() {
			return true
		}
	}
	return false
}
