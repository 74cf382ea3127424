package chatsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubtc/portal/internal/app/models"
)

var base = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func msg(id int64, minute int, content string) Message {
	c := content
	return Message{
		ID:             id,
		ConversationID: 1,
		SenderID:       2,
		Content:        &c,
		Status:         models.MessageActive,
		CreatedAt:      base.Add(time.Duration(minute) * time.Minute),
		Reactions:      []models.ReactionGroup{},
	}
}

func deleted(m Message, minute int) Message {
	at := base.Add(time.Duration(minute) * time.Minute)
	m = stripped(m)
	m.DeletedAt = &at
	return m
}

func ids(messages []Message) []int64 {
	out := make([]int64, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.ID)
	}
	return out
}

func TestMerge_ServerReplacesLocalAndKeepsExtras(t *testing.T) {
	local := []Message{msg(1, 0, "draft"), msg(5, 9, "just sent")}
	edited := msg(1, 0, "final")
	edited.IsEdited = true
	snapshot := []Message{edited, msg(2, 1, "hi")}

	merged := Merge(local, snapshot)

	require.Len(t, merged, 3)
	assert.Equal(t, []int64{1, 2, 5}, ids(merged))
	assert.Equal(t, "final", *merged[0].Content)
	assert.True(t, merged[0].IsEdited)
	assert.Equal(t, "just sent", *merged[2].Content)
}

func TestMerge_OrdersByCreatedAtThenID(t *testing.T) {
	snapshot := []Message{msg(9, 2, "c"), msg(4, 1, "b"), msg(3, 1, "a"), msg(7, 0, "z")}
	assert.Equal(t, []int64{7, 3, 4, 9}, ids(Merge(nil, snapshot)))
}

func TestMerge_Idempotent(t *testing.T) {
	cases := []struct {
		name     string
		local    []Message
		snapshot []Message
	}{
		{"empty", nil, nil},
		{"only local", []Message{msg(1, 0, "a")}, nil},
		{"only snapshot", nil, []Message{msg(1, 0, "a"), msg(2, 1, "b")}},
		{"overlap", []Message{msg(1, 0, "old"), msg(3, 5, "mine")}, []Message{msg(1, 0, "new"), msg(2, 1, "b")}},
		{"local delete vs stale snapshot", []Message{deleted(msg(1, 0, "a"), 3)}, []Message{msg(1, 0, "a")}},
		{"duplicate ids in snapshot", nil, []Message{msg(1, 0, "a"), msg(1, 0, "b")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			once := Merge(tc.local, tc.snapshot)
			twice := Merge(once, tc.snapshot)
			assert.Equal(t, once, twice)
		})
	}
}

func TestMerge_Convergence(t *testing.T) {
	s1 := []Message{msg(1, 0, "a")}
	s2 := append(append([]Message{}, s1...), msg(2, 1, "b"))
	s3 := append(append([]Message{}, s2...), msg(3, 2, "c"))

	// message 10 was sent locally and no snapshot knows it yet
	list := []Message{msg(10, 30, "pending")}
	for _, s := range [][]Message{s1, s2, s3, s3} {
		list = Merge(list, s)
	}

	assert.Equal(t, []int64{1, 2, 3, 10}, ids(list))
}

func TestMerge_SentMessageNotDuplicated(t *testing.T) {
	sent := msg(42, 5, "on my way")
	local := Merge([]Message{msg(1, 0, "hello")}, []Message{sent})

	snapshot := []Message{msg(1, 0, "hello"), msg(42, 5, "on my way")}
	merged := Merge(local, snapshot)

	assert.Equal(t, []int64{1, 42}, ids(merged))
}

func TestMerge_SoftDeleteIsTerminal(t *testing.T) {
	t.Run("stale snapshot cannot resurrect payload", func(t *testing.T) {
		local := []Message{deleted(msg(1, 0, "secret"), 2)}
		stale := msg(1, 0, "secret")
		stale.Reactions = []models.ReactionGroup{{Emoji: "👍", Count: 1, UserIDs: []int64{3}}}

		merged := Merge(local, []Message{stale})

		require.Len(t, merged, 1)
		assert.True(t, merged[0].IsDeleted)
		assert.Equal(t, models.MessageDeleted, merged[0].Status)
		assert.Nil(t, merged[0].Content)
		assert.Equal(t, local[0].DeletedAt, merged[0].DeletedAt)
		assert.Len(t, merged[0].Reactions, 1, "server reactions are kept on the tombstone")
		assert.Equal(t, models.DeletedPlaceholder, Body(merged[0]))
	})

	t.Run("deleted server copy is stripped", func(t *testing.T) {
		leaky := msg(1, 0, "secret")
		at := base.Add(time.Minute)
		leaky.DeletedAt = &at
		leaky.IsDeleted = true

		merged := Merge([]Message{msg(1, 0, "secret")}, []Message{leaky})

		assert.Nil(t, merged[0].Content)
		assert.Equal(t, models.DeletedPlaceholder, Body(merged[0]))
	})

	t.Run("deleted message is still shown", func(t *testing.T) {
		snapshot := []Message{msg(1, 0, "A"), deleted(msg(2, 1, "B"), 3)}
		merged := Merge(nil, snapshot)

		require.Len(t, merged, 2)
		assert.Equal(t, "A", Body(merged[0]))
		assert.Equal(t, models.DeletedPlaceholder, Body(merged[1]))
	})
}

func TestMerge_DoesNotModifyInputs(t *testing.T) {
	local := []Message{deleted(msg(1, 0, "a"), 1)}
	snapshot := []Message{msg(1, 0, "a")}

	Merge(local, snapshot)

	require.NotNil(t, snapshot[0].Content)
	assert.False(t, snapshot[0].IsDeleted)
}
