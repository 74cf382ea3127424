package chatsync

import (
	"sort"

	"github.com/hubtc/portal/internal/app/models"
)

// Merge reconciles the local list with a server snapshot. Snapshot messages
// replace local copies with the same id, local messages the snapshot does not
// know are kept, and the result is ordered by (createdAt, id). A message the
// local list already holds as deleted stays deleted whatever the snapshot says.
//
// Merge(Merge(local, s), s) equals Merge(local, s). Neither input is modified.
func Merge(local, snapshot []Message) []Message {
	byID := make(map[int64]Message, len(local)+len(snapshot))
	for _, m := range local {
		byID[m.ID] = m
	}

	seen := make(map[int64]bool, len(snapshot))
	for _, server := range snapshot {
		if seen[server.ID] {
			continue
		}
		seen[server.ID] = true

		switch existing, ok := byID[server.ID]; {
		case isDeleted(server):
			server = stripped(server)
		case ok && isDeleted(existing):
			server = tombstone(server, existing)
		}
		byID[server.ID] = server
	}

	merged := make([]Message, 0, len(byID))
	for _, m := range byID {
		merged = append(merged, m)
	}
	sortMessages(merged)
	return merged
}

// tombstone keeps server state (reactions, receipts) but carries the local deletion over.
func tombstone(server, deleted Message) Message {
	server = stripped(server)
	server.DeletedAt = deleted.DeletedAt
	return server
}

// stripped returns m in the DELETED state without its payload
func stripped(m Message) Message {
	m.Content = nil
	m.Image = nil
	m.FileURL = nil
	m.FileName = nil
	m.IsDeleted = true
	m.Status = models.MessageDeleted
	return m
}

func isDeleted(m Message) bool {
	return m.IsDeleted || m.DeletedAt != nil
}

func sortMessages(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}
