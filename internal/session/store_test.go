package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

// TestStoreExpiresOnAccess проверяет, что простаивающая сессия считается завершенной.
func TestStoreExpiresOnAccess(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 16, 10, 0, 0, 0, time.UTC)}
	store := NewStore[string](15*time.Minute, clock.Now)
	key := Key{ChatID: 1, UserID: 2}

	store.Put(key, "amount")

	clock.now = clock.now.Add(10 * time.Minute)
	got, ok := store.Get(key)
	assert.True(t, ok)
	assert.Equal(t, "amount", got)

	clock.now = clock.now.Add(16 * time.Minute)
	_, ok = store.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

// TestStorePutRefreshes проверяет продление срока при каждом шаге.
func TestStorePutRefreshes(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 16, 10, 0, 0, 0, time.UTC)}
	store := NewStore[int](time.Minute, clock.Now)
	key := Key{ChatID: 1, UserID: 1}

	store.Put(key, 1)
	clock.now = clock.now.Add(50 * time.Second)
	store.Put(key, 2)
	clock.now = clock.now.Add(50 * time.Second)

	got, ok := store.Get(key)
	assert.True(t, ok)
	assert.Equal(t, 2, got)
}

// TestStoreSweep проверяет периодическую очистку и изоляцию ключей.
func TestStoreSweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 16, 10, 0, 0, 0, time.UTC)}
	store := NewStore[string](time.Minute, clock.Now)

	store.Put(Key{ChatID: 1, UserID: 1}, "old")
	clock.now = clock.now.Add(2 * time.Minute)
	store.Put(Key{ChatID: 2, UserID: 2}, "fresh")

	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())

	store.Delete(Key{ChatID: 2, UserID: 2})
	assert.Equal(t, 0, store.Len())
}
