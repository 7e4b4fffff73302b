package flow

import (
	"context"
	"sync"

	"github.com/ivanoskov/gastos_bot/internal/model"
)

// Store хранит состояние диалога по ключу (чат, пользователь).
// Get возвращает nil без ошибки, если диалога нет.
type Store interface {
	Get(ctx context.Context, id model.Identity) (model.ConversationState, error)
	Put(ctx context.Context, id model.Identity, state model.ConversationState) error
	Delete(ctx context.Context, id model.Identity) error
}

// MemoryStore - состояние в памяти процесса; теряется при перезапуске
type MemoryStore struct {
	mu     sync.Mutex
	states map[model.Identity]model.ConversationState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[model.Identity]model.ConversationState),
	}
}

func (s *MemoryStore) Get(ctx context.Context, id model.Identity) (model.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[id], nil
}

func (s *MemoryStore) Put(ctx context.Context, id model.Identity, state model.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[id] = state
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
	return nil
}
