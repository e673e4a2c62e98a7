package store

import (
	"maps"

	"github.com/mmcdole/favlive/internal/domain"
)

// ChannelStore is an insertion-ordered collection of channels keyed by ID.
//
// It is not safe for concurrent use. Every call, including reads, must
// come from the interaction context that owns the store.
type ChannelStore struct {
	order []string
	byID  map[string]*domain.Channel
	total int

	listeners []func()
}

func NewChannelStore() *ChannelStore {
	return &ChannelStore{byID: make(map[string]*domain.Channel)}
}

// OnChange registers fn to be called after every mutation
func (s *ChannelStore) OnChange(fn func()) {
	s.listeners = append(s.listeners, fn)
}

func (s *ChannelStore) changed() {
	for _, fn := range s.listeners {
		fn()
	}
}

// ReplaceAll swaps the whole content for channels. Duplicate IDs keep their
// first occurrence and every pending flag is reset.
func (s *ChannelStore) ReplaceAll(channels []domain.Channel, total int) {
	s.order = make([]string, 0, len(channels))
	s.byID = make(map[string]*domain.Channel, len(channels))
	s.insert(channels)
	s.total = total
	s.changed()
}

// Append adds channels whose IDs are not yet present, in received order,
// and records the new total. It returns the IDs that were added.
func (s *ChannelStore) Append(channels []domain.Channel, total int) []string {
	added := s.insert(channels)
	s.total = total
	s.changed()
	return added
}

func (s *ChannelStore) insert(channels []domain.Channel) []string {
	var added []string
	for _, ch := range channels {
		if _, exists := s.byID[ch.ID]; exists {
			continue
		}
		c := ch.Clone()
		c.UpdatePending = false
		s.byID[c.ID] = &c
		s.order = append(s.order, c.ID)
		added = append(added, c.ID)
	}
	return added
}

// Merge applies update to the channel with the same ID. Status and the
// pending flag are always taken; title and logos only when set. Unknown IDs
// are ignored and Merge reports false.
func (s *ChannelStore) Merge(update domain.Channel) bool {
	cur, ok := s.byID[update.ID]
	if !ok {
		return false
	}
	cur.Status = update.Status
	cur.UpdatePending = update.UpdatePending
	if update.Title != "" {
		cur.Title = update.Title
	}
	if len(update.Logos) > 0 {
		cur.Logos = maps.Clone(update.Logos)
	}
	s.changed()
	return true
}

// MarkPending flags the channel as awaiting a status check
func (s *ChannelStore) MarkPending(id string) bool {
	cur, ok := s.byID[id]
	if !ok {
		return false
	}
	cur.UpdatePending = true
	s.changed()
	return true
}

// Clear empties the store and resets the total
func (s *ChannelStore) Clear() {
	s.order = nil
	s.byID = make(map[string]*domain.Channel)
	s.total = 0
	s.changed()
}

func (s *ChannelStore) Count() int { return len(s.order) }

// Total is the size of the full listing as last reported by the source
func (s *ChannelStore) Total() int { return s.total }

// At returns a copy of the channel at position pos
func (s *ChannelStore) At(pos int) (domain.Channel, bool) {
	if pos < 0 || pos >= len(s.order) {
		return domain.Channel{}, false
	}
	return s.byID[s.order[pos]].Clone(), true
}

func (s *ChannelStore) IDAt(pos int) (string, bool) {
	if pos < 0 || pos >= len(s.order) {
		return "", false
	}
	return s.order[pos], true
}

func (s *ChannelStore) Get(id string) (domain.Channel, bool) {
	ch, ok := s.byID[id]
	if !ok {
		return domain.Channel{}, false
	}
	return ch.Clone(), true
}

// IDs returns the IDs in display order
func (s *ChannelStore) IDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// Snapshot returns copies of all channels in display order
func (s *ChannelStore) Snapshot() []domain.Channel {
	out := make([]domain.Channel, len(s.order))
	for i, id := range s.order {
		out[i] = s.byID[id].Clone()
	}
	return out
}
