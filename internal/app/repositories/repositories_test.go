package repositories

import (
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, "3:9", DirectKey(9, 3))
	assert.Equal(t, DirectKey(3, 9), DirectKey(9, 3))
}

func TestMessageSelectSnapshotQuery(t *testing.T) {
	before := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sql, args, err := messageSelect().
		Where(squirrel.Eq{"m.conversation_id": int64(4)}).
		Where(squirrel.Lt{"m.created_at": before}).
		OrderBy("m.created_at DESC", "m.id DESC").
		Limit(50).
		ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "LEFT JOIN messages r ON r.id = m.reply_to_id")
	assert.Contains(t, sql, "m.conversation_id = $1")
	assert.Contains(t, sql, "m.created_at < $2")
	assert.Contains(t, sql, "LIMIT 50")
	assert.Equal(t, []interface{}{int64(4), before}, args)
}
