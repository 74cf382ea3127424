package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hubtc/portal/internal/app/models"
	"github.com/hubtc/portal/internal/pkg/apperrors"
)

// MessageRepository handles database operations for chat messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// messageSelect joins the sender and the reply target (with its sender) onto each message
func messageSelect() squirrel.SelectBuilder {
	return psql.Select(
		"m.id", "m.conversation_id", "m.sender_id", "m.content", "m.image", "m.file_url", "m.file_name",
		"m.reply_to_id", "m.is_edited", "m.created_at", "m.updated_at", "m.deleted_at",
		"u.first_name", "u.last_name", "u.hub_name", "u.profile_photo_url",
		"r.id", "r.sender_id", "r.content", "r.image", "r.file_url", "r.file_name", "r.created_at", "r.deleted_at",
		"ru.first_name", "ru.last_name",
	).
		From("messages m").
		LeftJoin("users u ON u.id = m.sender_id").
		LeftJoin("messages r ON r.id = m.reply_to_id").
		LeftJoin("users ru ON ru.id = r.sender_id")
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	var senderFirst, senderLast, senderHub, senderPhoto *string
	var replyID, replySenderID *int64
	var replyContent, replyImage, replyFileURL, replyFileName *string
	var replyCreatedAt, replyDeletedAt *time.Time
	var replyFirst, replyLast *string

	err := row.Scan(
		&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Image, &m.FileURL, &m.FileName,
		&m.ReplyToID, &m.IsEdited, &m.CreatedAt, &m.UpdatedAt, &m.DeletedAt,
		&senderFirst, &senderLast, &senderHub, &senderPhoto,
		&replyID, &replySenderID, &replyContent, &replyImage, &replyFileURL, &replyFileName,
		&replyCreatedAt, &replyDeletedAt,
		&replyFirst, &replyLast,
	)
	if err != nil {
		return nil, err
	}

	if senderFirst != nil {
		m.Sender = &models.User{
			ID:              m.SenderID,
			FirstName:       *senderFirst,
			LastName:        derefString(senderLast),
			HubName:         senderHub,
			ProfilePhotoURL: senderPhoto,
		}
	}

	if replyID != nil {
		reply := &models.Message{
			ID:             *replyID,
			ConversationID: m.ConversationID,
			Content:        replyContent,
			Image:          replyImage,
			FileURL:        replyFileURL,
			FileName:       replyFileName,
			DeletedAt:      replyDeletedAt,
		}
		if replySenderID != nil {
			reply.SenderID = *replySenderID
		}
		if replyCreatedAt != nil {
			reply.CreatedAt = *replyCreatedAt
		}
		if replyFirst != nil {
			reply.Sender = &models.User{ID: reply.SenderID, FirstName: *replyFirst, LastName: derefString(replyLast)}
		}
		m.ReplyTo = reply
	}

	return &m, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Create inserts a new message and fills its ID and timestamps
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	sql, args, err := psql.Insert("messages").
		Columns("conversation_id", "sender_id", "content", "image", "file_url", "file_name", "reply_to_id").
		Values(message.ConversationID, message.SenderID, message.Content, message.Image,
			message.FileURL, message.FileName, message.ReplyToID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&message.ID, &message.CreatedAt, &message.UpdatedAt); err != nil {
		return fmt.Errorf("error creating message: %w", err)
	}
	return nil
}

// GetByID retrieves a message with its sender and reply target
func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	sql, args, err := messageSelect().Where(squirrel.Eq{"m.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	message, err := scanMessage(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, fmt.Errorf("error retrieving message: %w", err)
	}
	return message, nil
}

// ListByConversation returns the newest limit messages created before the given
// point (all when nil), ordered ascending by (createdAt, id). Deleted messages are included.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID int64, before *time.Time, limit int) ([]*models.Message, error) {
	builder := messageSelect().
		Where(squirrel.Eq{"m.conversation_id": conversationID}).
		OrderBy("m.created_at DESC", "m.id DESC").
		Limit(uint64(limit))

	if before != nil {
		builder = builder.Where(squirrel.Lt{"m.created_at": *before})
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.Message, 0, limit)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning message row: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// LatestByConversation returns the newest message of each conversation
func (r *MessageRepository) LatestByConversation(ctx context.Context, conversationIDs []int64) (map[int64]*models.Message, error) {
	result := make(map[int64]*models.Message, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return result, nil
	}

	sql, args, err := messageSelect().
		Options("DISTINCT ON (m.conversation_id)").
		Where(squirrel.Eq{"m.conversation_id": conversationIDs}).
		OrderBy("m.conversation_id", "m.created_at DESC", "m.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning message row: %w", err)
		}
		result[message.ConversationID] = message
	}
	return result, rows.Err()
}

// UpdateContent persists an edit. Deleted rows are never touched; ErrMessageDeleted is
// returned when the message was deleted concurrently.
func (r *MessageRepository) UpdateContent(ctx context.Context, message *models.Message) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE messages
		SET content = $1, is_edited = TRUE, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL`,
		message.Content, message.UpdatedAt, message.ID)
	if err != nil {
		return fmt.Errorf("error updating message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMessageDeleted
	}
	return nil
}

// SoftDelete sets deletedAt once; later calls keep the first value
func (r *MessageRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL`,
		at, id)
	if err != nil {
		return fmt.Errorf("error deleting message: %w", err)
	}
	return nil
}
