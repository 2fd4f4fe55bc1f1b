package exchange

import (
	"context"
	"sync"
)

// MemoryStore is a mutex-guarded Store for tests and local demos. The mutex
// is held across every check-then-act window, so it honors the same
// serialization contract as the Postgres store: duplicate-active creation and
// double settlement cannot both succeed.
type MemoryStore struct {
	mu        sync.Mutex
	services  map[string]Service
	exchanges map[string]Exchange
	ratings   map[string]Rating
	balances  map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		services:  make(map[string]Service),
		exchanges: make(map[string]Exchange),
		ratings:   make(map[string]Rating),
		balances:  make(map[string]int64),
	}
}

// PutService seeds a service listing.
func (m *MemoryStore) PutService(svc Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[svc.ID] = svc
}

// SetBalance seeds a user's credit balance.
func (m *MemoryStore) SetBalance(userID string, credits int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = credits
}

func (m *MemoryStore) ServiceByID(ctx context.Context, id string) (*Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	svc, ok := m.services[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &svc, nil
}

func (m *MemoryStore) ExchangeByID(ctx context.Context, id string) (*Exchange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ex, ok := m.exchanges[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ex, nil
}

func (m *MemoryStore) CreateExchange(ctx context.Context, ex *Exchange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.exchanges {
		if existing.RequestedServiceID == ex.RequestedServiceID &&
			existing.RequesterID == ex.RequesterID &&
			existing.ProviderID == ex.ProviderID &&
			existing.Status.Active() {
			return ErrDuplicateActive
		}
	}
	m.exchanges[ex.ID] = *ex
	return nil
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, id string, from, to Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ex, ok := m.exchanges[id]
	if !ok {
		return ErrNotFound
	}
	if ex.Status != from {
		return ErrConflict
	}
	ex.Status = to
	m.exchanges[id] = ex
	return nil
}

func (m *MemoryStore) CompleteWithTransfer(ctx context.Context, id string, from Status, requesterID, providerID string, cost int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ex, ok := m.exchanges[id]
	if !ok {
		return ErrNotFound
	}
	if ex.Status != from {
		return ErrConflict
	}

	balance := m.balances[requesterID]
	if balance < cost {
		return &InsufficientFundsError{RequesterID: requesterID, Balance: balance, Cost: cost}
	}

	m.balances[requesterID] = balance - cost
	m.balances[providerID] += cost
	ex.Status = StatusCompleted
	m.exchanges[id] = ex
	return nil
}

func (m *MemoryStore) Balance(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID], nil
}

func (m *MemoryStore) CreateRating(ctx context.Context, r *Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.ratings {
		if existing.ExchangeID == r.ExchangeID && existing.AuthorID == r.AuthorID {
			return ErrAlreadyRated
		}
	}
	m.ratings[r.ID] = *r
	return nil
}
