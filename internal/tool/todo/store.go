package todo

import "sync"

// MemoryStore keeps one agent's todo list for the life of the session.
type MemoryStore struct {
	mu    sync.RWMutex
	todos []Todo
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Read returns a copy of the current list.
func (s *MemoryStore) Read() []Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Todo, len(s.todos))
	copy(out, s.todos)
	return out
}

// Write replaces the list with a copy of todos.
func (s *MemoryStore) Write(todos []Todo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos = make([]Todo, len(todos))
	copy(s.todos, todos)
}
