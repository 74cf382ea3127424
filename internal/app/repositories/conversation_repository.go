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
	"github.com/hubtc/portal/internal/pkg/dberrors"
)

const directKeyConstraint = "uq_conversations_direct_key"

// ConversationRepository handles conversations, their participants and per-user settings
type ConversationRepository struct {
	db *pgxpool.Pool
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// DirectKey is the canonical key of the direct conversation between two users
func DirectKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// Create inserts a conversation with its participants and a settings row per participant.
// For a direct conversation that already exists, ErrResourceAlreadyExists is returned.
func (r *ConversationRepository) Create(ctx context.Context, conversation *models.Conversation, participantIDs []int64) error {
	var directKey *string
	if !conversation.IsGroup {
		if len(participantIDs) != 2 {
			return apperrors.ErrInvalidParticipants
		}
		key := DirectKey(participantIDs[0], participantIDs[1])
		directKey = &key
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		sql, args, err := psql.Insert("conversations").
			Columns("is_group", "name", "image", "created_by", "direct_key").
			Values(conversation.IsGroup, conversation.Name, conversation.Image, conversation.CreatedBy, directKey).
			Suffix("RETURNING id, created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("error building SQL: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&conversation.ID, &conversation.CreatedAt); err != nil {
			if dberrors.IsDuplicateConstraintError(err, directKeyConstraint) {
				return apperrors.ErrResourceAlreadyExists
			}
			return fmt.Errorf("error creating conversation: %w", err)
		}

		participants := psql.Insert("conversation_participants").Columns("conversation_id", "user_id")
		settings := psql.Insert("conversation_settings").Columns("conversation_id", "user_id")
		for _, id := range participantIDs {
			participants = participants.Values(conversation.ID, id)
			settings = settings.Values(conversation.ID, id)
		}

		for _, builder := range []squirrel.InsertBuilder{participants, settings} {
			sql, args, err := builder.ToSql()
			if err != nil {
				return fmt.Errorf("error building SQL: %w", err)
			}
			if _, err := tx.Exec(ctx, sql, args...); err != nil {
				if dberrors.IsForeignKeyError(err) {
					return apperrors.NewCustomError(apperrors.ErrInvalidParticipants, "unknown participant")
				}
				return fmt.Errorf("error adding participants: %w", err)
			}
		}
		return nil
	})
}

var conversationColumns = []string{
	"c.id", "c.is_group", "c.name", "c.image", "c.created_by", "c.last_message_at", "c.created_at",
	"COALESCE(s.is_muted, FALSE)",
}

func scanConversation(row pgx.Row, userID int64) (*models.Conversation, error) {
	c := &models.Conversation{}
	err := row.Scan(&c.ID, &c.IsGroup, &c.Name, &c.Image, &c.CreatedBy, &c.LastMessageAt, &c.CreatedAt,
		&c.Settings.IsMuted)
	c.Settings.ConversationID = c.ID
	c.Settings.UserID = userID
	return c, err
}

// FindDirect returns the direct conversation between two users
func (r *ConversationRepository) FindDirect(ctx context.Context, userID, otherID int64) (*models.Conversation, error) {
	sql, args, err := psql.Select(conversationColumns...).
		From("conversations c").
		LeftJoin("conversation_settings s ON s.conversation_id = c.id AND s.user_id = ?", userID).
		Where(squirrel.Eq{"c.direct_key": DirectKey(userID, otherID)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	conversation, err := scanConversation(r.db.QueryRow(ctx, sql, args...), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, fmt.Errorf("error retrieving conversation: %w", err)
	}
	return conversation, nil
}

// GetByID retrieves a conversation with the settings of userID
func (r *ConversationRepository) GetByID(ctx context.Context, id, userID int64) (*models.Conversation, error) {
	sql, args, err := psql.Select(conversationColumns...).
		From("conversations c").
		LeftJoin("conversation_settings s ON s.conversation_id = c.id AND s.user_id = ?", userID).
		Where(squirrel.Eq{"c.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	conversation, err := scanConversation(r.db.QueryRow(ctx, sql, args...), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, fmt.Errorf("error retrieving conversation: %w", err)
	}
	return conversation, nil
}

// ListForUser returns the conversations userID participates in, most recently active first
func (r *ConversationRepository) ListForUser(ctx context.Context, userID int64) ([]*models.Conversation, error) {
	sql, args, err := psql.Select(conversationColumns...).
		From("conversations c").
		Join("conversation_participants p ON p.conversation_id = c.id AND p.user_id = ?", userID).
		LeftJoin("conversation_settings s ON s.conversation_id = c.id AND s.user_id = ?", userID).
		OrderBy("COALESCE(c.last_message_at, c.created_at) DESC", "c.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	conversations := make([]*models.Conversation, 0)
	for rows.Next() {
		c, err := scanConversation(rows, userID)
		if err != nil {
			return nil, fmt.Errorf("error scanning conversation row: %w", err)
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// IsParticipant reports whether userID belongs to the conversation
func (r *ConversationRepository) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2)`,
		conversationID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking participant: %w", err)
	}
	return exists, nil
}

// Exists reports whether the conversation exists
func (r *ConversationRepository) Exists(ctx context.Context, conversationID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM conversations WHERE id = $1)`, conversationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking conversation: %w", err)
	}
	return exists, nil
}

// ParticipantIDs lists the participants of a conversation
func (r *ConversationRepository) ParticipantIDs(ctx context.Context, conversationID int64) ([]int64, error) {
	byConversation, err := r.ParticipantIDsByConversation(ctx, []int64{conversationID})
	if err != nil {
		return nil, err
	}
	return byConversation[conversationID], nil
}

// ParticipantIDsByConversation lists participants for several conversations at once
func (r *ConversationRepository) ParticipantIDsByConversation(ctx context.Context, conversationIDs []int64) (map[int64][]int64, error) {
	result := make(map[int64][]int64, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return result, nil
	}

	sql, args, err := psql.Select("conversation_id", "user_id").
		From("conversation_participants").
		Where(squirrel.Eq{"conversation_id": conversationIDs}).
		OrderBy("conversation_id", "joined_at", "user_id").
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
		var conversationID, userID int64
		if err := rows.Scan(&conversationID, &userID); err != nil {
			return nil, fmt.Errorf("error scanning participant row: %w", err)
		}
		result[conversationID] = append(result[conversationID], userID)
	}
	return result, rows.Err()
}

// MutedUserIDs returns the participants that muted the conversation
func (r *ConversationRepository) MutedUserIDs(ctx context.Context, conversationID int64) (map[int64]bool, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id FROM conversation_settings WHERE conversation_id = $1 AND is_muted`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	muted := make(map[int64]bool)
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("error scanning settings row: %w", err)
		}
		muted[userID] = true
	}
	return muted, rows.Err()
}

// UpdateSettings upserts the settings row of userID
func (r *ConversationRepository) UpdateSettings(ctx context.Context, settings *models.ConversationSettings) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO conversation_settings (conversation_id, user_id, is_muted, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (conversation_id, user_id)
		DO UPDATE SET is_muted = EXCLUDED.is_muted, updated_at = NOW()`,
		settings.ConversationID, settings.UserID, settings.IsMuted)
	if err != nil {
		return fmt.Errorf("error updating conversation settings: %w", err)
	}
	return nil
}

// TouchLastMessage moves lastMessageAt forward to at
func (r *ConversationRepository) TouchLastMessage(ctx context.Context, conversationID int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET last_message_at = GREATEST(COALESCE(last_message_at, $2), $2)
		WHERE id = $1`,
		conversationID, at)
	if err != nil {
		return fmt.Errorf("error updating conversation activity: %w", err)
	}
	return nil
}
