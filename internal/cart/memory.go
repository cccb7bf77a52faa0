package cart

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryStore struct {
	mu    sync.RWMutex
	lines map[string]map[string]*Line // owner -> productID -> line
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lines: make(map[string]map[string]*Line)}
}

func (s *MemoryStore) ListLines(_ context.Context, owner string) ([]Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Line, 0, len(s.lines[owner]))
	for _, l := range s.lines[owner] {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) AddLine(_ context.Context, owner, productID string, qty int) (*Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lines[owner] == nil {
		s.lines[owner] = make(map[string]*Line)
	}
	if l, ok := s.lines[owner][productID]; ok {
		l.Quantity += qty
		cp := *l
		return &cp, nil
	}
	l := &Line{Owner: owner, ProductID: productID, Quantity: qty, CreatedAt: time.Now().UTC()}
	s.lines[owner][productID] = l
	cp := *l
	return &cp, nil
}

func (s *MemoryStore) DecrementLine(_ context.Context, owner, productID string) (*Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lines[owner][productID]
	if !ok {
		return nil, ErrLineNotFound
	}
	if l.Quantity <= 1 {
		delete(s.lines[owner], productID)
		return nil, nil
	}
	l.Quantity--
	cp := *l
	return &cp, nil
}

func (s *MemoryStore) RemoveLine(_ context.Context, owner, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lines[owner][productID]; !ok {
		return ErrLineNotFound
	}
	delete(s.lines[owner], productID)
	return nil
}

func (s *MemoryStore) ClearLines(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lines, owner)
	return nil
}
