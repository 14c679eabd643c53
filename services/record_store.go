package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kendall-kelly/customer-analytics-api/logger"
	"github.com/kendall-kelly/customer-analytics-api/models"
)

// Snapshot is one immutable load of the three tenant datasets. Readers must not modify it.
type Snapshot struct {
	Clients  []models.Client
	Orders   []models.Order
	Messages []models.Message
	Source   string
	LoadedAt time.Time
}

// RecordSource loads a complete snapshot from a backing store
type RecordSource interface {
	Name() string
	Load(ctx context.Context) (*Snapshot, error)
}

// RecordStore serves tenant-scoped reads from the current snapshot. Reload swaps the
// snapshot pointer in one step, so a reader sees either the old or the new dataset.
type RecordStore struct {
	source   RecordSource
	current  atomic.Pointer[Snapshot]
	reloadMu sync.Mutex
}

var recordStoreInstance *RecordStore

// NewRecordStore creates a store over source. It holds an empty snapshot until Reload is called.
func NewRecordStore(source RecordSource) *RecordStore {
	s := &RecordStore{source: source}
	s.current.Store(&Snapshot{Source: source.Name()})
	return s
}

// GetRecordStore returns the process record store
func GetRecordStore() *RecordStore {
	return recordStoreInstance
}

// SetRecordStore sets the process record store (main and tests)
func SetRecordStore(s *RecordStore) {
	recordStoreInstance = s
}

// Source returns the backing source
func (s *RecordStore) Source() RecordSource {
	return s.source
}

// Reload loads a fresh snapshot and swaps it in. On failure the previous snapshot stays.
func (s *RecordStore) Reload(ctx context.Context) (*Snapshot, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	snap, err := s.source.Load(ctx)
	ReloadsTotal.WithLabelValues(s.source.Name(), resultLabel(err)).Inc()
	if err != nil {
		logger.L().Error("dataset reload failed", "source", s.source.Name(), "error", err)
		return nil, fmt.Errorf("reload from %s: %w", s.source.Name(), err)
	}
	if snap.Source == "" {
		snap.Source = s.source.Name()
	}
	if snap.LoadedAt.IsZero() {
		snap.LoadedAt = time.Now().UTC()
	}
	s.current.Store(snap)

	RecordsLoaded.WithLabelValues("clients").Set(float64(len(snap.Clients)))
	RecordsLoaded.WithLabelValues("orders").Set(float64(len(snap.Orders)))
	RecordsLoaded.WithLabelValues("messages").Set(float64(len(snap.Messages)))
	logger.L().Info("dataset reloaded",
		"source", snap.Source,
		"clients", len(snap.Clients),
		"orders", len(snap.Orders),
		"messages", len(snap.Messages),
		"duration", time.Since(start),
	)
	return snap, nil
}

// Snapshot returns the current snapshot
func (s *RecordStore) Snapshot() *Snapshot {
	return s.current.Load()
}

// Orders returns the tenant's orders from the current snapshot
func (s *RecordStore) Orders(tenantID uint) []models.Order {
	return filterTenant(s.Snapshot().Orders, func(o models.Order) uint { return o.TenantID }, tenantID)
}

// Clients returns the tenant's clients from the current snapshot
func (s *RecordStore) Clients(tenantID uint) []models.Client {
	return filterTenant(s.Snapshot().Clients, func(c models.Client) uint { return c.TenantID }, tenantID)
}

// Messages returns the tenant's messages from the current snapshot
func (s *RecordStore) Messages(tenantID uint) []models.Message {
	return filterTenant(s.Snapshot().Messages, func(m models.Message) uint { return m.TenantID }, tenantID)
}

func filterTenant[T any](rows []T, tenant func(T) uint, tenantID uint) []T {
	out := make([]T, 0)
	for _, r := range rows {
		if tenant(r) == tenantID {
			out = append(out, r)
		}
	}
	return out
}

// StaticSource serves a fixed snapshot
type StaticSource struct {
	Snap *Snapshot
	Err  error
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Snap == nil {
		return &Snapshot{}, nil
	}
	copied := *s.Snap
	return &copied, nil
}
