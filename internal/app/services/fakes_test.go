package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hubtc/portal/internal/app/auth"
	"github.com/hubtc/portal/internal/app/models"
	"github.com/hubtc/portal/internal/app/repositories"
	"github.com/hubtc/portal/internal/pkg/apperrors"
	"github.com/hubtc/portal/internal/pkg/typing"
	"github.com/hubtc/portal/internal/pkg/websocket"
)

type fakeUsers struct {
	users map[int64]*models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) GetByIDs(_ context.Context, ids []int64) (map[int64]*models.User, error) {
	out := make(map[int64]*models.User)
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeUsers) Search(_ context.Context, _ string, limit int) ([]*models.User, error) {
	out := make([]*models.User, 0)
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeConversations struct {
	mu           sync.Mutex
	nextID       int64
	conversation map[int64]*models.Conversation
	participants map[int64][]int64
	muted        map[int64]map[int64]bool
	direct       map[string]int64
}

func newFakeConversations() *fakeConversations {
	return &fakeConversations{
		conversation: make(map[int64]*models.Conversation),
		participants: make(map[int64][]int64),
		muted:        make(map[int64]map[int64]bool),
		direct:       make(map[string]int64),
	}
}

func (f *fakeConversations) add(id int64, isGroup bool, participantIDs ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conversation[id] = &models.Conversation{ID: id, IsGroup: isGroup, CreatedBy: participantIDs[0]}
	f.participants[id] = participantIDs
	if !isGroup {
		f.direct[repositories.DirectKey(participantIDs[0], participantIDs[1])] = id
	}
	if id > f.nextID {
		f.nextID = id
	}
}

func (f *fakeConversations) copyFor(id, userID int64) *models.Conversation {
	c := *f.conversation[id]
	c.Settings = models.ConversationSettings{ConversationID: id, UserID: userID, IsMuted: f.muted[id][userID]}
	return &c
}

func (f *fakeConversations) Create(_ context.Context, c *models.Conversation, participantIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !c.IsGroup {
		if _, ok := f.direct[repositories.DirectKey(participantIDs[0], participantIDs[1])]; ok {
			return apperrors.ErrResourceAlreadyExists
		}
	}
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Now()
	stored := *c
	f.conversation[c.ID] = &stored
	f.participants[c.ID] = append([]int64(nil), participantIDs...)
	if !c.IsGroup {
		f.direct[repositories.DirectKey(participantIDs[0], participantIDs[1])] = c.ID
	}
	return nil
}

func (f *fakeConversations) FindDirect(_ context.Context, userID, otherID int64) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.direct[repositories.DirectKey(userID, otherID)]
	if !ok {
		return nil, apperrors.ErrConversationNotFound
	}
	return f.copyFor(id, userID), nil
}

func (f *fakeConversations) GetByID(_ context.Context, id, userID int64) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.conversation[id]; !ok {
		return nil, apperrors.ErrConversationNotFound
	}
	return f.copyFor(id, userID), nil
}

func (f *fakeConversations) ListForUser(_ context.Context, userID int64) ([]*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Conversation, 0)
	for id, pids := range f.participants {
		for _, p := range pids {
			if p == userID {
				out = append(out, f.copyFor(id, userID))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeConversations) Exists(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.conversation[id]
	return ok, nil
}

func (f *fakeConversations) IsParticipant(_ context.Context, id, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.participants[id] {
		if p == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeConversations) ParticipantIDs(_ context.Context, id int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.participants[id]...), nil
}

func (f *fakeConversations) ParticipantIDsByConversation(ctx context.Context, ids []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64)
	for _, id := range ids {
		pids, _ := f.ParticipantIDs(ctx, id)
		out[id] = pids
	}
	return out, nil
}

func (f *fakeConversations) MutedUserIDs(_ context.Context, id int64) (map[int64]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]bool)
	for uid, m := range f.muted[id] {
		if m {
			out[uid] = true
		}
	}
	return out, nil
}

func (f *fakeConversations) UpdateSettings(_ context.Context, s *models.ConversationSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.muted[s.ConversationID] == nil {
		f.muted[s.ConversationID] = make(map[int64]bool)
	}
	f.muted[s.ConversationID][s.UserID] = s.IsMuted
	return nil
}

func (f *fakeConversations) TouchLastMessage(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.conversation[id]; ok {
		c.LastMessageAt = &at
	}
	return nil
}

type fakeMessages struct {
	mu       sync.Mutex
	nextID   int64
	messages map[int64]*models.Message
	clock    Clock
}

func newFakeMessages(clock Clock) *fakeMessages {
	return &fakeMessages{messages: make(map[int64]*models.Message), clock: clock}
}

func (f *fakeMessages) Create(_ context.Context, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m.ID = f.nextID
	m.CreatedAt = f.clock()
	m.UpdatedAt = m.CreatedAt
	stored := *m
	f.messages[m.ID] = &stored
	return nil
}

// withReply returns a copy with the reply target attached like the SQL join does
func (f *fakeMessages) withReply(m *models.Message) *models.Message {
	cp := *m
	if cp.ReplyToID != nil {
		if target, ok := f.messages[*cp.ReplyToID]; ok {
			t := *target
			cp.ReplyTo = &t
		}
	}
	return &cp
}

func (f *fakeMessages) GetByID(_ context.Context, id int64) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return nil, apperrors.ErrMessageNotFound
	}
	return f.withReply(m), nil
}

func (f *fakeMessages) ListByConversation(_ context.Context, conversationID int64, before *time.Time, limit int) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Message, 0)
	for _, m := range f.messages {
		if m.ConversationID != conversationID {
			continue
		}
		if before != nil && !m.CreatedAt.Before(*before) {
			continue
		}
		out = append(out, f.withReply(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeMessages) LatestByConversation(ctx context.Context, ids []int64) (map[int64]*models.Message, error) {
	out := make(map[int64]*models.Message)
	for _, id := range ids {
		list, _ := f.ListByConversation(ctx, id, nil, 1)
		if len(list) == 1 {
			out[id] = list[0]
		}
	}
	return out, nil
}

func (f *fakeMessages) UpdateContent(_ context.Context, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.messages[m.ID]
	if stored.DeletedAt != nil {
		return apperrors.ErrMessageDeleted
	}
	stored.Content = m.Content
	stored.IsEdited = true
	stored.UpdatedAt = m.UpdatedAt
	return nil
}

func (f *fakeMessages) SoftDelete(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored := f.messages[id]; stored.DeletedAt == nil {
		stored.DeletedAt = &at
	}
	return nil
}

type reactionKey struct {
	messageID, userID int64
	emoji             string
}

type fakeReactions struct {
	mu     sync.Mutex
	nextID int64
	rows   map[reactionKey]*models.Reaction
}

func newFakeReactions() *fakeReactions {
	return &fakeReactions{rows: make(map[reactionKey]*models.Reaction)}
}

func (f *fakeReactions) Toggle(_ context.Context, messageID, userID int64, emoji string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := reactionKey{messageID, userID, emoji}
	if _, ok := f.rows[k]; ok {
		delete(f.rows, k)
		return false, nil
	}
	f.nextID++
	f.rows[k] = &models.Reaction{ID: f.nextID, MessageID: messageID, UserID: userID, Emoji: emoji, CreatedAt: time.Now()}
	return true, nil
}

func (f *fakeReactions) Remove(_ context.Context, messageID, userID int64, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, reactionKey{messageID, userID, emoji})
	return nil
}

func (f *fakeReactions) ListByMessageIDs(_ context.Context, ids []int64) (map[int64][]*models.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[int64]bool)
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[int64][]*models.Reaction)
	for _, r := range f.rows {
		if want[r.MessageID] {
			out[r.MessageID] = append(out[r.MessageID], r)
		}
	}
	return out, nil
}

type fakeReceipts struct {
	mu   sync.Mutex
	rows map[[2]int64]*models.ReadReceipt
}

func newFakeReceipts() *fakeReceipts {
	return &fakeReceipts{rows: make(map[[2]int64]*models.ReadReceipt)}
}

func (f *fakeReceipts) MarkRead(_ context.Context, messageID, userID int64, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := [2]int64{messageID, userID}
	if _, ok := f.rows[k]; ok {
		return false, nil
	}
	f.rows[k] = &models.ReadReceipt{MessageID: messageID, UserID: userID, ReadAt: at}
	return true, nil
}

func (f *fakeReceipts) ListByMessageIDs(_ context.Context, ids []int64) (map[int64][]*models.ReadReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64][]*models.ReadReceipt)
	for _, id := range ids {
		for k, r := range f.rows {
			if k[0] == id {
				out[id] = append(out[id], r)
			}
		}
	}
	return out, nil
}

type fakeNotifications struct {
	mu   sync.Mutex
	rows []*models.Notification
}

func (f *fakeNotifications) CreateMany(_ context.Context, ns []*models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range ns {
		n.ID = int64(len(f.rows) + 1)
		f.rows = append(f.rows, n)
	}
	return nil
}

func (f *fakeNotifications) ListForUser(_ context.Context, userID int64, unreadOnly bool, limit int) ([]*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Notification, 0)
	for _, n := range f.rows {
		if n.UserID == userID && (!unreadOnly || n.ReadAt == nil) {
			out = append(out, n)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id, userID int64, at time.Time) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.rows {
		if n.ID == id && n.UserID == userID {
			if n.ReadAt == nil {
				n.ReadAt = &at
			}
			return n, nil
		}
	}
	return nil, apperrors.ErrNotificationNotFound
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e websocket.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []websocket.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]websocket.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// manualClock is a settable test clock
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixture wires every service over shared fakes. Users 1 (Ayse), 2 (Mehmet) and 3 (Elif)
// share direct conversation 1 (users 1, 2) and group 2 (all three).
type fixture struct {
	clock         *manualClock
	users         *fakeUsers
	conversations *fakeConversations
	messages      *fakeMessages
	reactions     *fakeReactions
	receipts      *fakeReceipts
	notifications *fakeNotifications
	publisher     *recordingPublisher
	typingStore   *typing.MemoryStore

	conversationSvc ConversationService
	messageSvc      MessageService
	reactionSvc     ReactionService
	typingSvc       TypingService
	notificationSvc NotificationService
}

func newFixture() *fixture {
	clock := &manualClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	f := &fixture{
		clock: clock,
		users: &fakeUsers{users: map[int64]*models.User{
			1: {ID: 1, FirstName: "Ayse", LastName: "Kaya", IsActive: true},
			2: {ID: 2, FirstName: "Mehmet", LastName: "Demir", IsActive: true},
			3: {ID: 3, FirstName: "Elif", LastName: "Yilmaz", IsActive: true},
			4: {ID: 4, FirstName: "Former", LastName: "Staff", IsActive: false},
		}},
		conversations: newFakeConversations(),
		messages:      newFakeMessages(clock.Now),
		reactions:     newFakeReactions(),
		receipts:      newFakeReceipts(),
		notifications: &fakeNotifications{},
		publisher:     &recordingPublisher{},
		typingStore:   typing.NewMemoryStore(5 * time.Second),
	}
	f.conversations.add(1, false, 1, 2)
	f.conversations.add(2, true, 1, 2, 3)

	authz := auth.NewAuthorizationService(f.conversations)
	log := zerolog.Nop()

	f.conversationSvc = NewConversationService(f.conversations, f.messages, f.users, authz, log)
	f.messageSvc = NewMessageService(f.messages, f.conversations, f.reactions, f.receipts, f.notifications,
		authz, f.publisher, MessageServiceConfig{EditWindow: 15 * time.Minute, Clock: clock.Now}, log)
	f.reactionSvc = NewReactionService(f.messages, f.reactions, f.receipts, authz, f.publisher, clock.Now, log)
	f.typingSvc = NewTypingService(f.typingStore, f.users, authz, f.publisher, 5*time.Second, clock.Now, log)
	f.notificationSvc = NewNotificationService(f.notifications, clock.Now, log)
	return f
}

func text(s string) *string { return &s }
