package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hubtc/portal/internal/app/models"
)

// ReactionRepository stores emoji reactions; (message_id, user_id, emoji) is unique
type ReactionRepository struct {
	db *pgxpool.Pool
}

// NewReactionRepository creates a new ReactionRepository
func NewReactionRepository(db *pgxpool.Pool) *ReactionRepository {
	return &ReactionRepository{db: db}
}

// Toggle removes the reaction when present and adds it otherwise, in one transaction.
// It reports whether the reaction exists afterwards.
func (r *ReactionRepository) Toggle(ctx context.Context, messageID, userID int64, emoji string) (bool, error) {
	var added bool
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM message_reactions WHERE message_id = $1 AND user_id = $2 AND emoji = $3`,
			messageID, userID, emoji)
		if err != nil {
			return fmt.Errorf("error removing reaction: %w", err)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO message_reactions (message_id, user_id, emoji)
			VALUES ($1, $2, $3)
			ON CONFLICT ON CONSTRAINT uq_message_reactions DO NOTHING`,
			messageID, userID, emoji); err != nil {
			return fmt.Errorf("error adding reaction: %w", err)
		}
		added = true
		return nil
	})
	return added, err
}

// Remove deletes the reaction if present
func (r *ReactionRepository) Remove(ctx context.Context, messageID, userID int64, emoji string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM message_reactions WHERE message_id = $1 AND user_id = $2 AND emoji = $3`,
		messageID, userID, emoji)
	if err != nil {
		return fmt.Errorf("error removing reaction: %w", err)
	}
	return nil
}

// ListByMessageIDs returns the reactions of the given messages keyed by message ID
func (r *ReactionRepository) ListByMessageIDs(ctx context.Context, messageIDs []int64) (map[int64][]*models.Reaction, error) {
	result := make(map[int64][]*models.Reaction, len(messageIDs))
	if len(messageIDs) == 0 {
		return result, nil
	}

	sql, args, err := psql.Select("id", "message_id", "user_id", "emoji", "created_at").
		From("message_reactions").
		Where(squirrel.Eq{"message_id": messageIDs}).
		OrderBy("created_at", "id").
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
		reaction := &models.Reaction{}
		if err := rows.Scan(&reaction.ID, &reaction.MessageID, &reaction.UserID, &reaction.Emoji, &reaction.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning reaction row: %w", err)
		}
		result[reaction.MessageID] = append(result[reaction.MessageID], reaction)
	}
	return result, rows.Err()
}
