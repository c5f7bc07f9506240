package feed

import (
	"context"
	"sync"
)

// Memory 进程内事件总线
// 阶段生命周期事件同步交给所有订阅者，所有事件都保留供查询
type Memory struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
	session  map[string][]*Event
	private  map[string][]*Event
}

// NewMemory 创建进程内事件总线
func NewMemory() *Memory {
	return &Memory{
		handlers: make(map[int]Handler),
		session:  make(map[string][]*Event),
		private:  make(map[string][]*Event),
	}
}

func (m *Memory) Publish(ctx context.Context, ev *Event) error {
	m.mu.Lock()
	m.session[ev.SessionID] = append(m.session[ev.SessionID], ev)
	var handlers []Handler
	if ev.Type.IsPhaseLifecycle() {
		handlers = make([]Handler, 0, len(m.handlers))
		for _, h := range m.handlers {
			handlers = append(handlers, h)
		}
	}
	m.mu.Unlock()

	for _, h := range handlers {
		h(ctx, ev)
	}
	return nil
}

func (m *Memory) PublishToPlayer(_ context.Context, playerID string, ev *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.private[playerID] = append(m.private[playerID], ev)
	return nil
}

func (m *Memory) Subscribe(_ context.Context, handler Handler) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.handlers[id] = handler
	return &memorySubscription{bus: m, id: id}, nil
}

// Events 返回会话已发布的会话级事件
func (m *Memory) Events(sessionID string) []*Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Event(nil), m.session[sessionID]...)
}

// PlayerEvents 返回推送给玩家的私有事件
func (m *Memory) PlayerEvents(playerID string) []*Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Event(nil), m.private[playerID]...)
}

type memorySubscription struct {
	bus *Memory
	id  int
}

func (s *memorySubscription) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.handlers, s.id)
	return nil
}
