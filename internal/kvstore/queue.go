package kvstore

import (
	"sort"

	"github.com/cockroachdb/pebble"

	"github.com/chdb/checkers/internal/models"
)

func (s *Store) queue() ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	if _, err := s.getJSON(keyQueue, &entries); err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].JoinedAt != entries[j].JoinedAt {
			return entries[i].JoinedAt < entries[j].JoinedAt
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	return entries, nil
}

func (s *Store) saveQueue(entries []models.QueueEntry) error {
	b := s.db.NewBatch()
	defer b.Close()
	if err := setJSON(b, keyQueue, entries); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

// JoinQueue replaces any entry the player already holds, then either
// removes and returns the longest-waiting opponent on the same time
// control or enqueues the entry and returns "".
func (s *Store) JoinQueue(entry models.QueueEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.queue()
	if err != nil {
		return "", err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.PlayerID != entry.PlayerID {
			kept = append(kept, e)
		}
	}
	entries = kept

	for i, e := range entries {
		if e.TimeControl == entry.TimeControl {
			entries = append(entries[:i], entries[i+1:]...)
			return e.PlayerID, s.saveQueue(entries)
		}
	}

	return "", s.saveQueue(append(entries, entry))
}

func (s *Store) LeaveQueue(player string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.queue()
	if err != nil {
		return false, err
	}
	for i, e := range entries {
		if e.PlayerID == player {
			return true, s.saveQueue(append(entries[:i], entries[i+1:]...))
		}
	}
	return false, nil
}

func (s *Store) QueueEntries() ([]models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue()
}
