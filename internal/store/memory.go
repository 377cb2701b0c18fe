package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"shopgate/internal/model"
)

// Memory is the store used when no DATABASE_URL is set.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]model.PaymentSession // transactionId -> session
	events   map[string][]model.ShipmentEvent // orderId -> events, oldest first
}

func NewMemory() *Memory {
	return &Memory{
		sessions: map[string]model.PaymentSession{},
		events:   map[string][]model.ShipmentEvent{},
	}
}

func (m *Memory) SavePaymentSession(ctx context.Context, s model.PaymentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	m.sessions[s.TransactionID] = s
	return nil
}

func (m *Memory) GetPaymentSession(ctx context.Context, transactionID string) (model.PaymentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[transactionID]
	if !ok {
		return model.PaymentSession{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) UpdatePaymentState(ctx context.Context, transactionID, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[transactionID]
	if !ok {
		return ErrNotFound
	}
	s.State = state
	m.sessions[transactionID] = s
	return nil
}

func (m *Memory) RecordShipmentEvent(ctx context.Context, e model.ShipmentEvent) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now().UTC()
	}
	m.events[e.OrderID] = append(m.events[e.OrderID], e)
	return e.ID, nil
}

func (m *Memory) ListShipmentEvents(ctx context.Context, orderID string, limit int) ([]model.ShipmentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	evs := m.events[orderID]
	if limit > 0 && len(evs) > limit {
		evs = evs[len(evs)-limit:]
	}
	out := make([]model.ShipmentEvent, len(evs))
	copy(out, evs)
	return out, nil
}
