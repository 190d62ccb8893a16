package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
)

// NoteStore keeps analysis records in memory.
type NoteStore struct {
	mu    sync.RWMutex
	notes []insight.NoteRecord
}

// NewNoteStore creates an empty in-memory note store.
func NewNoteStore() *NoteStore {
	return &NoteStore{}
}

// SaveNote appends a record.
func (s *NoteStore) SaveNote(_ context.Context, rec insight.NoteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, rec)
	return nil
}

// ListNotes returns the owner's records, newest first.
func (s *NoteStore) ListNotes(_ context.Context, ownerID string) ([]insight.NoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []insight.NoteRecord
	for _, rec := range s.notes {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
