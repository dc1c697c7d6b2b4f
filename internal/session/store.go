package session

import (
	"sync"
	"time"
)

// Key identifies one conversation: a user inside a chat.
type Key struct {
	ChatID int64
	UserID int64
}

type item[T any] struct {
	value   T
	touched time.Time
}

// Store хранит черновики диалогов с истечением по простою.
type Store[T any] struct {
	mu    sync.Mutex
	items map[Key]item[T]
	ttl   time.Duration
	now   func() time.Time
}

// NewStore создает хранилище сессий с таймаутом простоя ttl.
func NewStore[T any](ttl time.Duration, now func() time.Time) *Store[T] {
	if now == nil {
		now = time.Now
	}

	return &Store[T]{
		items: make(map[Key]item[T]),
		ttl:   ttl,
		now:   now,
	}
}

// Get возвращает сессию; просроченная сессия удаляется и считается отсутствующей.
func (s *Store[T]) Get(key Key) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	it, ok := s.items[key]
	if !ok {
		return zero, false
	}

	if s.expired(it) {
		delete(s.items, key)
		return zero, false
	}

	return it.value, true
}

// Put сохраняет сессию и продлевает ее срок.
func (s *Store[T]) Put(key Key, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = item[T]{value: value, touched: s.now()}
}

// Delete удаляет сессию.
func (s *Store[T]) Delete(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
}

// Sweep удаляет все просроченные сессии и возвращает их число.
func (s *Store[T]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, it := range s.items {
		if s.expired(it) {
			delete(s.items, key)
			removed++
		}
	}

	return removed
}

// Len возвращает число хранимых сессий.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items)
}

func (s *Store[T]) expired(it item[T]) bool {
	return s.ttl > 0 && s.now().Sub(it.touched) > s.ttl
}
