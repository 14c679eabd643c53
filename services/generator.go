package services

import (
	"context"
	"fmt"
	"time"

	"github.com/kendall-kelly/customer-analytics-api/analytics"
	"github.com/kendall-kelly/customer-analytics-api/logger"
	"github.com/kendall-kelly/customer-analytics-api/models"
	"github.com/kendall-kelly/customer-analytics-api/utils"
)

// GeneratorConfig sizes one synthetic tenant dataset
type GeneratorConfig struct {
	TenantID          uint
	Clients           int
	Orders            int
	Messages          int
	MinAmount         float64
	MaxAmount         float64
	Statuses          []string
	DeliveryCompanies int
	// Progress, when set, is called once per generated record
	Progress func(delta int)
}

// DefaultGeneratorConfig returns the standard fixture size for tenantID
func DefaultGeneratorConfig(tenantID uint) GeneratorConfig {
	return GeneratorConfig{
		TenantID:          tenantID,
		Clients:           500,
		Orders:            2000,
		Messages:          1500,
		MinAmount:         50,
		MaxAmount:         500,
		Statuses:          []string{"completed", "cancelled"},
		DeliveryCompanies: 3,
	}
}

// Total is the number of records Generate produces
func (c GeneratorConfig) Total() int {
	return c.Clients + c.Orders + c.Messages
}

// DataSink replaces one tenant's records in a backing store
type DataSink interface {
	ReplaceTenant(ctx context.Context, tenantID uint, data *Snapshot) error
}

var (
	firstNames = []string{"Amine", "Sara", "Youssef", "Fatima", "Omar", "Khadija", "Mehdi", "Salma", "Hamza", "Imane", "Karim", "Nadia", "Adam", "Leila", "Rachid", "Hiba"}
	lastNames  = []string{"Alaoui", "Benali", "Chraibi", "Idrissi", "El Amrani", "Tazi", "Bennani", "Fassi", "Berrada", "Ziani", "Lahlou", "Mansouri"}
	cities     = []string{"Casablanca", "Rabat", "Marrakech", "Fès", "Tanger", "Agadir", "Meknès", "Oujda", "Kénitra", "Tétouan"}

	messageOpeners = []string{"The delivery was", "My order arrived and it was", "Customer service was", "The product is", "Honestly the packaging was", "This time the experience was"}
	messageTones   = []string{"great", "very good", "not good", "terrible", "fine", "really amazing", "slow", "perfect", "disappointing", "excellent", "late", "okay"}
	messageClosers = []string{".", "!", ", thanks.", ", I will order again.", ", please check my refund.", "!!"}
)

// Generate builds a synthetic dataset for cfg.TenantID with dates between January 1st of
// now's year and now. Client ids run from 1; orders and messages pick clients uniformly.
func Generate(cfg GeneratorConfig, rng analytics.Random, now time.Time) *Snapshot {
	now = now.UTC()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	span := now.Sub(yearStart)
	randomDate := func() *time.Time {
		d := yearStart.Add(time.Duration(rng.Float64() * float64(span))).Truncate(24 * time.Hour)
		return &d
	}
	progress := func() {
		if cfg.Progress != nil {
			cfg.Progress(1)
		}
	}

	snap := &Snapshot{
		Clients:  make([]models.Client, 0, cfg.Clients),
		Orders:   make([]models.Order, 0, cfg.Orders),
		Messages: make([]models.Message, 0, cfg.Messages),
		Source:   "generator",
		LoadedAt: now,
	}
	for i := 1; i <= cfg.Clients; i++ {
		snap.Clients = append(snap.Clients, models.Client{
			ClientID: uint(i),
			TenantID: cfg.TenantID,
			Name:     analytics.Choice(rng, firstNames) + " " + analytics.Choice(rng, lastNames),
			City:     analytics.Choice(rng, cities),
		})
		progress()
	}
	if cfg.Clients == 0 {
		return snap
	}

	for i := 1; i <= cfg.Orders; i++ {
		o := models.Order{
			ID:          uint(i),
			ClientID:    uint(rng.IntN(cfg.Clients) + 1),
			TenantID:    cfg.TenantID,
			OrderDate:   randomDate(),
			TotalAmount: utils.Round2(analytics.Uniform(rng, cfg.MinAmount, cfg.MaxAmount)),
			Status:      analytics.Choice(rng, cfg.Statuses),
		}
		if cfg.DeliveryCompanies > 0 {
			company := uint(rng.IntN(cfg.DeliveryCompanies) + 1)
			o.DeliveryCompanyID = &company
		}
		snap.Orders = append(snap.Orders, o)
		progress()
	}

	for i := 1; i <= cfg.Messages; i++ {
		content := fmt.Sprintf("%s %s%s", analytics.Choice(rng, messageOpeners), analytics.Choice(rng, messageTones), analytics.Choice(rng, messageClosers))
		snap.Messages = append(snap.Messages, models.Message{
			ID:        uint(i),
			ClientID:  uint(rng.IntN(cfg.Clients) + 1),
			TenantID:  cfg.TenantID,
			Content:   content,
			CreatedAt: randomDate(),
		})
		progress()
	}
	return snap
}

// Regenerate writes a fresh synthetic dataset for the tenant into sink, then reloads store
// when it is not nil. It returns the generated records.
func Regenerate(ctx context.Context, sink DataSink, store *RecordStore, cfg GeneratorConfig, rng analytics.Random, now time.Time) (*Snapshot, error) {
	data := Generate(cfg, rng, now)
	if err := sink.ReplaceTenant(ctx, cfg.TenantID, data); err != nil {
		return nil, fmt.Errorf("write synthetic data: %w", err)
	}
	logger.L().Info("synthetic data written",
		"tenant_id", cfg.TenantID,
		"clients", len(data.Clients),
		"orders", len(data.Orders),
		"messages", len(data.Messages),
	)
	if store != nil {
		if _, err := store.Reload(ctx); err != nil {
			return nil, err
		}
	}
	return data, nil
}

var dataSinkInstance DataSink

// GetDataSink returns the sink regenerate-data writes to
func GetDataSink() DataSink {
	return dataSinkInstance
}

// SetDataSink sets the regenerate-data sink (main and tests)
func SetDataSink(sink DataSink) {
	dataSinkInstance = sink
}
