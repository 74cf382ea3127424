package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hubtc/portal/internal/app/models"
)

// ReadReceiptRepository stores first-read times per (message, user)
type ReadReceiptRepository struct {
	db *pgxpool.Pool
}

// NewReadReceiptRepository creates a new ReadReceiptRepository
func NewReadReceiptRepository(db *pgxpool.Pool) *ReadReceiptRepository {
	return &ReadReceiptRepository{db: db}
}

// MarkRead records a receipt. An existing receipt keeps its original readAt.
// It reports whether a new row was written.
func (r *ReadReceiptRepository) MarkRead(ctx context.Context, messageID, userID int64, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO message_read_receipts (message_id, user_id, read_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id, user_id) DO NOTHING`,
		messageID, userID, at)
	if err != nil {
		return false, fmt.Errorf("error marking message read: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByMessageIDs returns receipts keyed by message ID, earliest reader first
func (r *ReadReceiptRepository) ListByMessageIDs(ctx context.Context, messageIDs []int64) (map[int64][]*models.ReadReceipt, error) {
	result := make(map[int64][]*models.ReadReceipt, len(messageIDs))
	if len(messageIDs) == 0 {
		return result, nil
	}

	sql, args, err := psql.Select("message_id", "user_id", "read_at").
		From("message_read_receipts").
		Where(squirrel.Eq{"message_id": messageIDs}).
		OrderBy("read_at", "user_id").
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
		receipt := &models.ReadReceipt{}
		if err := rows.Scan(&receipt.MessageID, &receipt.UserID, &receipt.ReadAt); err != nil {
			return nil, fmt.Errorf("error scanning receipt row: %w", err)
		}
		result[receipt.MessageID] = append(result[receipt.MessageID], receipt)
	}
	return result, rows.Err()
}
