package analytics

import (
	"sort"

	"github.com/kendall-kelly/customer-analytics-api/utils"
)

// The scoring rules below are placeholders: churn levels and recommended products are
// drawn at random and the CLV multiplier is a random scalar. They carry no learned signal.

// CLVLimit caps the CLV ranking
const CLVLimit = 10

// Bounds of the per-request CLV multiplier
const (
	CLVMultiplierLow  = 1.1
	CLVMultiplierHigh = 1.5
)

// RiskLevels are the possible churn labels
var RiskLevels = []string{"Low", "Medium", "High"}

// ProductCatalog is the fixed set recommendations are drawn from
var ProductCatalog = []string{"Product A", "Product B", "Product C", "Product D"}

// CLVEntry is one client's estimated lifetime value
type CLVEntry struct {
	ClientID     uint    `json:"client_id"`
	PredictedCLV float64 `json:"predicted_clv"`
}

// ChurnRisk labels one client
type ChurnRisk struct {
	ClientID  uint   `json:"client_id"`
	RiskLevel string `json:"risk_level"`
}

// Recommendation assigns a product to one client
type Recommendation struct {
	ClientID    uint   `json:"client_id"`
	ProductName string `json:"product_name"`
}

// CLV ranks clients by avg_order × order_count × m, where m ~ U(1.1, 1.5) is drawn once
// per call, and returns the top CLVLimit.
func (e *Engine) CLV(orders []Order, tenantID uint) []CLVEntry {
	features := e.Features(orders, tenantID)
	if len(features) == 0 {
		return []CLVEntry{}
	}

	multiplier := Uniform(e.unseeded(), CLVMultiplierLow, CLVMultiplierHigh)
	entries := make([]CLVEntry, len(features))
	for i, f := range features {
		entries[i] = CLVEntry{ClientID: f.ClientID, PredictedCLV: f.AvgOrder * float64(f.OrderCount) * multiplier}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].PredictedCLV > entries[j].PredictedCLV })
	if len(entries) > CLVLimit {
		entries = entries[:CLVLimit]
	}
	for i := range entries {
		entries[i].PredictedCLV = utils.Round2(entries[i].PredictedCLV)
	}
	return entries
}

// Churn assigns a uniformly random risk level to every client
func (e *Engine) Churn(orders []Order, tenantID uint) []ChurnRisk {
	features := e.Features(orders, tenantID)
	rng := e.seeded()
	out := make([]ChurnRisk, len(features))
	for i, f := range features {
		out[i] = ChurnRisk{ClientID: f.ClientID, RiskLevel: Choice(rng, RiskLevels)}
	}
	return out
}

// Recommend assigns a uniformly random catalog product to every client
func (e *Engine) Recommend(orders []Order, tenantID uint) []Recommendation {
	features := e.Features(orders, tenantID)
	rng := e.seeded()
	out := make([]Recommendation, len(features))
	for i, f := range features {
		out[i] = Recommendation{ClientID: f.ClientID, ProductName: Choice(rng, ProductCatalog)}
	}
	return out
}
