package store

import (
	"context"
	"sync"

	"github.com/amishk599/jobscout/internal/model"
)

var _ model.ListingStore = (*MemoryStore)(nil)

// MemoryStore keeps listings in process memory. Used for dry runs and tests;
// nothing survives a restart.
type MemoryStore struct {
	mu    sync.Mutex
	index map[model.Key]int
	rows  []model.Listing
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[model.Key]int)}
}

func (s *MemoryStore) Exists(_ context.Context, key model.Key) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[key]
	return ok, nil
}

func (s *MemoryStore) Insert(_ context.Context, l model.Listing) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[l.Key()]; ok {
		return false, nil
	}
	s.index[l.Key()] = len(s.rows)
	s.rows = append(s.rows, l)
	return true, nil
}

func (s *MemoryStore) All(_ context.Context, q model.ListQuery) ([]model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var filtered []model.Listing
	for _, l := range s.rows {
		if matches(l, q) {
			filtered = append(filtered, l)
		}
	}
	return append([]model.Listing{}, page(filtered, q)...), nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows), nil
}

func (s *MemoryStore) Close() error { return nil }
