package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Alturino/storefront/cart/internal/domain"
)

// Memory keeps serialized carts in process. Carts do not survive a restart.
type Memory struct {
	mu    sync.Mutex
	carts map[uuid.UUID][]byte
}

func NewMemory() *Memory {
	return &Memory{carts: map[uuid.UUID][]byte{}}
}

func (m *Memory) Load(_ context.Context, sessionID uuid.UUID) ([]domain.Line, error) {
	m.mu.Lock()
	data, ok := m.carts[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return Unmarshal(data)
}

func (m *Memory) Save(_ context.Context, sessionID uuid.UUID, lines []domain.Line) error {
	data, err := Marshal(lines)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.carts[sessionID] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	delete(m.carts, sessionID)
	m.mu.Unlock()
	return nil
}

// Put stores raw bytes, bypassing serialization.
func (m *Memory) Put(sessionID uuid.UUID, data []byte) {
	m.mu.Lock()
	m.carts[sessionID] = data
	m.mu.Unlock()
}
