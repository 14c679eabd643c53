package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/kendall-kelly/customer-analytics-api/models"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newTestEngine(opts ...Option) *Engine {
	base := []Option{
		WithClock(fixedClock),
		WithEntropy(func() uint64 { return 7 }),
	}
	return NewEngine(append(base, opts...)...)
}

func daysAgo(n int) *time.Time {
	t := testNow.AddDate(0, 0, -n)
	return &t
}

func order(id, clientID, tenantID uint, amount float64, date *time.Time) models.Order {
	return models.Order{ID: id, ClientID: clientID, TenantID: tenantID, TotalAmount: amount, OrderDate: date, Status: "completed"}
}

// spreadOrders builds a tenant-1 dataset with three clearly separated spend groups
func spreadOrders() []models.Order {
	var orders []models.Order
	id := uint(1)
	add := func(clientID uint, amounts ...float64) {
		for i, a := range amounts {
			orders = append(orders, order(id, clientID, 1, a, daysAgo(int(clientID)+i)))
			id++
		}
	}
	for c := uint(1); c <= 5; c++ {
		add(c, 40, 60)
	}
	for c := uint(6); c <= 10; c++ {
		add(c, 900, 1100, 1000)
	}
	for c := uint(11); c <= 15; c++ {
		add(c, 4000, 5000, 6000, 5000)
	}
	return orders
}

// recordingSaver captures saved models
type recordingSaver struct {
	mu     sync.Mutex
	saved  map[uint]*Model
	calls  int
	failOn error
}

func newRecordingSaver() *recordingSaver {
	return &recordingSaver{saved: make(map[uint]*Model)}
}

func (s *recordingSaver) Save(_ context.Context, tenantID uint, model *Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failOn != nil {
		return s.failOn
	}
	s.saved[tenantID] = model
	return nil
}
