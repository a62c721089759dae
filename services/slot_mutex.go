package services

import (
	"sync"

	"github.com/tablereserve/reservation-app/models"
)

// slotMutex hands out one mutex per slot key and forgets it once unused.
type slotMutex struct {
	mu    sync.Mutex
	locks map[models.SlotKey]*slotEntry
}

type slotEntry struct {
	mu   sync.Mutex
	refs int
}

func newSlotMutex() *slotMutex {
	return &slotMutex{locks: make(map[models.SlotKey]*slotEntry)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (m *slotMutex) Lock(key models.SlotKey) func() {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &slotEntry{}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		m.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
}
