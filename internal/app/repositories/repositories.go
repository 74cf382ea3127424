package repositories

import (
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// psql builds Postgres-flavoured statements
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	ConversationRepository *ConversationRepository
	MessageRepository      *MessageRepository
	ReactionRepository     *ReactionRepository
	ReadReceiptRepository  *ReadReceiptRepository
	NotificationRepository *NotificationRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(db),
		ConversationRepository: NewConversationRepository(db),
		MessageRepository:      NewMessageRepository(db),
		ReactionRepository:     NewReactionRepository(db),
		ReadReceiptRepository:  NewReadReceiptRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}
