package events

import (
	"context"
	"sync"
)

type Delivered[Payload any] struct {
	Key     string
	Payload Payload
}

// MemoryDelivery keeps every published payload in order. Used for local runs and tests.
type MemoryDelivery[Payload any] struct {
	mu        sync.Mutex
	delivered []Delivered[Payload]

	// set through FailNext
	failNext int
	failErr  error
}

func NewMemoryDelivery[Payload any]() *MemoryDelivery[Payload] {
	return &MemoryDelivery[Payload]{}
}

func (m *MemoryDelivery[Payload]) Publish(_ context.Context, deliveryKey string, payload Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext > 0 {
		m.failNext--

		return m.failErr
	}

	m.delivered = append(m.delivered, Delivered[Payload]{Key: deliveryKey, Payload: payload})

	return nil
}

func (m *MemoryDelivery[Payload]) FailNext(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failNext = n
	m.failErr = err
}

func (m *MemoryDelivery[Payload]) Delivered() []Delivered[Payload] {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Delivered[Payload], len(m.delivered))
	copy(out, m.delivered)

	return out
}

func (m *MemoryDelivery[Payload]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.delivered = nil
}

func (m *MemoryDelivery[Payload]) Close(context.Context) error {
	return nil
}
