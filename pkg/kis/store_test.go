package kis

import (
	"context"
	"sync"
)

// memoryStore is an append-only TokenStore used by the tests.
type memoryStore struct {
	mu     sync.Mutex
	tokens map[uint][]Token
}

func newMemoryStore() *memoryStore {
	return &memoryStore{tokens: make(map[uint][]Token)}
}

func (s *memoryStore) Latest(_ context.Context, accountID uint) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.tokens[accountID]
	if len(list) == 0 {
		return nil, nil
	}
	tok := list[len(list)-1]
	return &tok, nil
}

func (s *memoryStore) Append(_ context.Context, accountID uint, token Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[accountID] = append(s.tokens[accountID], token)
	return nil
}

func (s *memoryStore) count(accountID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens[accountID])
}
