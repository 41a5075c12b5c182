// Package store holds the ordered, deduplicated message collection that the
// chat view renders. It is the single owner of message and reaction state on
// the client; ingest, polling, and optimistic writes all propose mutations
// here and never keep copies of their own.
package store

import (
	"github.com/adamavenir/parley/internal/types"
)

// provisionalMatchWindow bounds how far apart a provisional entry and its
// durable counterpart may be timestamped and still be considered the same
// send. Client and server clocks disagree, but not by more than this.
const provisionalMatchWindow = int64(30_000)

// MessageStore keeps messages in ascending creation-timestamp order with a
// stable first-seen tie break. All methods are synchronous and expected to be
// called from a single goroutine (the update loop).
type MessageStore struct {
	messages []types.Message
	index    map[string]int
}

// New returns an empty store.
func New() *MessageStore {
	return &MessageStore{index: make(map[string]int)}
}

// Len returns the number of messages held.
func (s *MessageStore) Len() int {
	return len(s.messages)
}

// Get returns the message with the given id, if present.
func (s *MessageStore) Get(id string) (types.Message, bool) {
	i, ok := s.index[id]
	if !ok {
		return types.Message{}, false
	}
	return s.messages[i], true
}

// Snapshot returns a copy of the ordered message list.
func (s *MessageStore) Snapshot() []types.Message {
	out := make([]types.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// ApplyInsert inserts a message at its timestamp position. Ties sort after
// existing entries, so arrival order is preserved among equal timestamps.
// Re-inserting an id already present is a no-op.
func (s *MessageStore) ApplyInsert(msg types.Message) {
	if _, ok := s.index[msg.ID]; ok {
		return
	}
	pos := s.insertPos(msg.CreatedAt)
	s.messages = append(s.messages, types.Message{})
	copy(s.messages[pos+1:], s.messages[pos:])
	s.messages[pos] = msg
	s.reindexFrom(pos)
}

// ApplyReplace swaps the entry stored under oldID for msg, repositioning it
// by timestamp. Used to promote a provisional entry to its durable form and
// to overwrite a stale cached copy. If oldID is absent this degrades to an
// insert.
func (s *MessageStore) ApplyReplace(oldID string, msg types.Message) {
	if i, ok := s.index[msg.ID]; ok && msg.ID != oldID {
		// The durable row already arrived via another path; just drop the
		// old entry and refresh the existing one in place.
		s.messages[i] = msg
		s.ApplyRemove(oldID)
		return
	}
	s.ApplyRemove(oldID)
	s.ApplyInsert(msg)
}

// ApplyRemove deletes the message with the given id. Unknown ids are a no-op.
func (s *MessageStore) ApplyRemove(id string) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	delete(s.index, id)
	s.messages = append(s.messages[:i], s.messages[i+1:]...)
	s.reindexFrom(i)
}

// ApplyReactionSet overwrites the reaction set for one message.
func (s *MessageStore) ApplyReactionSet(messageID string, reactions []types.Reaction) {
	i, ok := s.index[messageID]
	if !ok {
		return
	}
	s.messages[i].Reactions = reactions
}

// ReplaceAll swaps the store contents for an authoritative snapshot. Live
// provisional entries are matched against the snapshot by author, content,
// and approximate timestamp; a match means the durable row has landed and
// the provisional copy is dropped. Unmatched provisionals are carried over
// at their timestamp position so a just-sent message never flashes away.
func (s *MessageStore) ReplaceAll(snapshot []types.Message) {
	var pending []types.Message
	for _, msg := range s.messages {
		if msg.Provisional() {
			pending = append(pending, msg)
		}
	}

	s.messages = s.messages[:0]
	s.index = make(map[string]int, len(snapshot))
	for _, msg := range snapshot {
		s.ApplyInsert(msg)
	}

	for _, prov := range pending {
		if s.matchesDurable(prov) {
			continue
		}
		s.ApplyInsert(prov)
	}
}

// matchesDurable reports whether a provisional entry has a durable
// counterpart already in the store.
func (s *MessageStore) matchesDurable(prov types.Message) bool {
	for _, msg := range s.messages {
		if msg.Provisional() {
			continue
		}
		if msg.AuthorID != prov.AuthorID || msg.Content != prov.Content {
			continue
		}
		delta := msg.CreatedAt - prov.CreatedAt
		if delta < 0 {
			delta = -delta
		}
		if delta <= provisionalMatchWindow {
			return true
		}
	}
	return false
}

// ProvisionalMatching finds the provisional entry that an incoming durable
// row confirms, using the same author, content, and timestamp-window rule as
// ReplaceAll. Returns the provisional id.
func (s *MessageStore) ProvisionalMatching(durable types.Message) (string, bool) {
	for _, msg := range s.messages {
		if !msg.Provisional() {
			continue
		}
		if msg.AuthorID != durable.AuthorID || msg.Content != durable.Content {
			continue
		}
		delta := durable.CreatedAt - msg.CreatedAt
		if delta < 0 {
			delta = -delta
		}
		if delta <= provisionalMatchWindow {
			return msg.ID, true
		}
	}
	return "", false
}

// insertPos finds the index where a message with the given timestamp should
// land: after every entry with an equal or earlier timestamp.
func (s *MessageStore) insertPos(ts int64) int {
	lo, hi := 0, len(s.messages)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.messages[mid].CreatedAt <= ts {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (s *MessageStore) reindexFrom(start int) {
	for i := start; i < len(s.messages); i++ {
		s.index[s.messages[i].ID] = i
	}
}
