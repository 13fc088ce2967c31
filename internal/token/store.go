package token

import (
	"context"
	"fmt"
	"sync"

	"tokengate/pkg/platform/sentinel"
)

// Store is the persistence contract for tokens.
type Store interface {
	Put(ctx context.Context, tok *Token) error
	Get(ctx context.Context, id string) (*Token, error)
}

// MemoryStore keeps tokens in a map.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*Token
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]*Token)}
}

func (s *MemoryStore) Put(_ context.Context, tok *Token) error {
	if tok == nil || tok.ID == "" {
		return fmt.Errorf("token with id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *tok
	s.tokens[tok.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.tokens[id]
	if !ok {
		return nil, fmt.Errorf("token %s: %w", id, sentinel.ErrNotFound)
	}
	cp := *tok
	return &cp, nil
}
