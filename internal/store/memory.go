package store

import (
	"context"
	"sync"
	"time"

	"sudooom.im.mafia/internal/model"
)

// MemoryStore 进程内会话存储，用于单机部署和测试
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
	codes    map[string]string
}

// NewMemoryStore 创建进程内存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*model.Session),
		codes:    make(map[string]string),
	}
}

func (m *MemoryStore) Create(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.codes[s.Code]; ok {
		return ErrCodeTaken
	}
	if _, ok := m.sessions[s.ID]; ok {
		return ErrVersionConflict
	}

	now := time.Now()
	s.Version = 1
	s.CreatedAt = now
	s.UpdatedAt = now
	m.sessions[s.ID] = s.Clone()
	m.codes[s.Code] = s.ID
	return nil
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) GetByCode(ctx context.Context, code string) (*model.Session, error) {
	m.mu.RLock()
	id, ok := m.codes[code]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *MemoryStore) Save(_ context.Context, s *model.Session, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.sessions[s.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != expectedVersion {
		return ErrVersionConflict
	}

	s.Version = expectedVersion + 1
	s.UpdatedAt = time.Now()
	m.sessions[s.ID] = s.Clone()
	return nil
}
