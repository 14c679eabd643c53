package services

import (
	"context"
	"fmt"
	"time"

	"github.com/kendall-kelly/customer-analytics-api/models"
	"gorm.io/gorm"
)

// GormRecordSource loads the datasets from the clients, orders and messages tables
type GormRecordSource struct {
	db *gorm.DB
}

// NewGormRecordSource creates a source over db
func NewGormRecordSource(db *gorm.DB) *GormRecordSource {
	return &GormRecordSource{db: db}
}

func (s *GormRecordSource) Name() string { return "database" }

// Load reads every table in one read-only transaction so the three datasets are consistent
func (s *GormRecordSource) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Source: s.Name()}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("tenant_id, client_id").Find(&snap.Clients).Error; err != nil {
			return fmt.Errorf("load clients: %w", err)
		}
		if err := tx.Order("id").Find(&snap.Orders).Error; err != nil {
			return fmt.Errorf("load orders: %w", err)
		}
		if err := tx.Order("id").Find(&snap.Messages).Error; err != nil {
			return fmt.Errorf("load messages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	snap.LoadedAt = time.Now().UTC()
	return snap, nil
}

// ReplaceTenant deletes the tenant's rows and inserts data in their place, all in one transaction.
// Order and message ids are global keys, so the database assigns new ones.
func (s *GormRecordSource) ReplaceTenant(ctx context.Context, tenantID uint, data *Snapshot) error {
	orders := make([]models.Order, len(data.Orders))
	for i, o := range data.Orders {
		o.ID = 0
		orders[i] = o
	}
	messages := make([]models.Message, len(data.Messages))
	for i, m := range data.Messages {
		m.ID = 0
		messages[i] = m
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range models.All() {
			if err := tx.Where("tenant_id = ?", tenantID).Delete(m).Error; err != nil {
				return fmt.Errorf("clear tenant %d: %w", tenantID, err)
			}
		}
		if len(data.Clients) > 0 {
			if err := tx.CreateInBatches(&data.Clients, 200).Error; err != nil {
				return fmt.Errorf("insert clients: %w", err)
			}
		}
		if len(orders) > 0 {
			if err := tx.CreateInBatches(&orders, 200).Error; err != nil {
				return fmt.Errorf("insert orders: %w", err)
			}
		}
		if len(messages) > 0 {
			if err := tx.CreateInBatches(&messages, 200).Error; err != nil {
				return fmt.Errorf("insert messages: %w", err)
			}
		}
		return nil
	})
}
