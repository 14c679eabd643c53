package services

import (
	"context"
	"sync"

	"github.com/kendall-kelly/customer-analytics-api/analytics"
)

// MockModelStore is an in-memory ModelStore for testing
type MockModelStore struct {
	models  map[uint]*analytics.Model
	saves   int
	SaveErr error
	mu      sync.RWMutex
}

// NewMockModelStore creates an empty mock store
func NewMockModelStore() *MockModelStore {
	return &MockModelStore{models: make(map[uint]*analytics.Model)}
}

// SetAsMockForTesting sets this mock as the global model store instance for testing
func (m *MockModelStore) SetAsMockForTesting() {
	SetModelStore(m)
}

func (m *MockModelStore) Name() string { return "mock" }

// Save stores the model unless SaveErr is set
func (m *MockModelStore) Save(_ context.Context, tenantID uint, model *analytics.Model) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.models[tenantID] = model
	return nil
}

func (m *MockModelStore) Load(_ context.Context, tenantID uint) (*analytics.Model, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	model, ok := m.models[tenantID]
	if !ok {
		return nil, ErrModelNotFound
	}
	return model, nil
}

// Saves returns how many times Save was called
func (m *MockModelStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Clear removes every stored model
func (m *MockModelStore) Clear() {
	m.mu.Lock()
	m.models = make(map[uint]*analytics.Model)
	m.saves = 0
	m.mu.Unlock()
}
