package chatsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hubtc/portal/internal/app/models"
	"github.com/hubtc/portal/internal/app/models/dto"
)

// Message is the wire form of a chat message as served by the API
type Message = dto.MessageResponse

// Conversation is a conversation as listed for the session user
type Conversation = dto.ConversationResponse

// APIError is a non-2xx answer of the chat API
type APIError struct {
	Status  int
	Code    dto.ErrorCode
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("chat api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("chat api: status %d (%s): %s", e.Status, e.Code, e.Message)
}

// IsNotFound reports whether err is an API 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsValidation reports whether the API refused the request itself (400, 403, 422)
func IsValidation(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusUnprocessableEntity, http.StatusConflict:
		return true
	}
	return false
}

// IsTransient reports whether err is a network failure, a 5xx or a 429
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
	}
	return true
}

// Client calls the conversation endpoints of the chat API on behalf of one user
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a client for the API rooted at baseURL (e.g. http://localhost:8080/api/v1)
func NewClient(baseURL, token string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	return c
}

// envelope mirrors dto.APIResponse with a typed payload
type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("error decoding response: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		c.logger.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
			Str("code", string(apiErr.Code)).Msg("Chat API request failed")
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("error decoding response data: %w", err)
	}
	return nil
}

func conversationPath(conversationID int64) string {
	return "/conversations/" + strconv.FormatInt(conversationID, 10)
}

func messagePath(conversationID, messageID int64) string {
	return conversationPath(conversationID) + "/messages/" + strconv.FormatInt(messageID, 10)
}

// ListConversations returns the caller's conversations, most recently active first
func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	var conversations []Conversation
	if err := c.do(ctx, http.MethodGet, "/conversations", nil, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// CreateConversation finds or creates a direct conversation, or creates a group
func (c *Client) CreateConversation(ctx context.Context, req dto.CreateConversationRequest) (*Conversation, error) {
	var conversation Conversation
	if err := c.do(ctx, http.MethodPost, "/conversations", req, &conversation); err != nil {
		return nil, err
	}
	return &conversation, nil
}

// SetMuted toggles the caller's mute flag for a conversation
func (c *Client) SetMuted(ctx context.Context, conversationID int64, muted bool) (*dto.ConversationSettingsResponse, error) {
	var settings dto.ConversationSettingsResponse
	req := dto.UpdateConversationSettingsRequest{IsMuted: &muted}
	if err := c.do(ctx, http.MethodPatch, conversationPath(conversationID)+"/settings", req, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Snapshot fetches the server's current view of a conversation's messages in
// ascending order. A missing conversation reads as an empty snapshot.
func (c *Client) Snapshot(ctx context.Context, conversationID int64) ([]Message, error) {
	var messages []Message
	err := c.do(ctx, http.MethodGet, conversationPath(conversationID)+"/messages", nil, &messages)
	if IsNotFound(err) {
		return []Message{}, nil
	}
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Send posts a new message and returns it as persisted
func (c *Client) Send(ctx context.Context, conversationID int64, req dto.SendMessageRequest) (*Message, error) {
	var message Message
	if err := c.do(ctx, http.MethodPost, conversationPath(conversationID)+"/messages", req, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// Edit replaces the content of one of the caller's messages
func (c *Client) Edit(ctx context.Context, conversationID, messageID int64, content string) (*Message, error) {
	var message Message
	req := dto.EditMessageRequest{Content: content}
	if err := c.do(ctx, http.MethodPatch, messagePath(conversationID, messageID), req, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// Delete soft-deletes one of the caller's messages
func (c *Client) Delete(ctx context.Context, conversationID, messageID int64) error {
	return c.do(ctx, http.MethodDelete, messagePath(conversationID, messageID), nil, nil)
}

// React toggles the caller's emoji on a message and returns the resulting groups
func (c *Client) React(ctx context.Context, conversationID, messageID int64, emoji string) ([]models.ReactionGroup, error) {
	groups := []models.ReactionGroup{}
	req := dto.ReactionRequest{Emoji: emoji}
	if err := c.do(ctx, http.MethodPost, messagePath(conversationID, messageID)+"/reactions", req, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// RemoveReaction removes the caller's emoji from a message
func (c *Client) RemoveReaction(ctx context.Context, conversationID, messageID int64, emoji string) error {
	req := dto.ReactionRequest{Emoji: emoji}
	return c.do(ctx, http.MethodDelete, messagePath(conversationID, messageID)+"/reactions", req, nil)
}

// MarkRead records that the caller has seen a message
func (c *Client) MarkRead(ctx context.Context, conversationID, messageID int64) error {
	return c.do(ctx, http.MethodPost, messagePath(conversationID, messageID)+"/read", nil, nil)
}

// SignalTyping tells the server the caller is composing
func (c *Client) SignalTyping(ctx context.Context, conversationID int64) error {
	return c.do(ctx, http.MethodPost, conversationPath(conversationID)+"/typing", nil, nil)
}

// TypingUsers lists the other participants currently typing
func (c *Client) TypingUsers(ctx context.Context, conversationID int64) ([]dto.UserBasicResponse, error) {
	var entries []dto.TypingUserResponse
	err := c.do(ctx, http.MethodGet, conversationPath(conversationID)+"/typing", nil, &entries)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	users := make([]dto.UserBasicResponse, 0, len(entries))
	for _, e := range entries {
		users = append(users, e.User)
	}
	return users, nil
}

// StreamURL is the websocket address of a conversation's change stream
func (c *Client) StreamURL(conversationID int64) (string, error) {
	u, err := url.Parse(c.baseURL + conversationPath(conversationID) + "/ws")
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
