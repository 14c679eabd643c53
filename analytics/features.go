package analytics

import (
	"sort"
	"time"

	"github.com/kendall-kelly/customer-analytics-api/models"
	"github.com/kendall-kelly/customer-analytics-api/utils"
)

// Order is the raw record every feature is derived from
type Order = models.Order

// FeatureNames is the column order of ClientFeatures.Vector
var FeatureNames = []string{"total_spent", "order_count", "avg_order", "days_since_last"}

// ClientFeatures is the per-client aggregate of one tenant's (possibly filtered) orders.
// Rows only exist for clients with at least one order, so OrderCount >= 1.
type ClientFeatures struct {
	ClientID      uint       `json:"client_id"`
	TotalSpent    float64    `json:"total_spent"`
	OrderCount    int        `json:"order_count"`
	AvgOrder      float64    `json:"avg_order"`
	LastOrderDate *time.Time `json:"last_order_date,omitempty"`
	DaysSinceLast int        `json:"days_since_last"`
}

// Vector returns the unscaled feature vector used for clustering and regression
func (f ClientFeatures) Vector() []float64 {
	return []float64{f.TotalSpent, float64(f.OrderCount), f.AvgOrder, float64(f.DaysSinceLast)}
}

// Rounded returns a copy with the currency fields rounded for output
func (f ClientFeatures) Rounded() ClientFeatures {
	f.TotalSpent = utils.Round2(f.TotalSpent)
	f.AvgOrder = utils.Round2(f.AvgOrder)
	return f
}

// TenantOrders returns the orders belonging to tenantID, preserving their order
func TenantOrders(orders []Order, tenantID uint) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.TenantID == tenantID {
			out = append(out, o)
		}
	}
	return out
}

// BuildFeatures groups the tenant's orders by client and returns one row per client,
// sorted by client id. An empty result is valid and means "no data".
//
// DaysSinceLast is the floored day count between the latest dated order and now; it is 0
// when none of the client's orders carries a date.
func BuildFeatures(orders []Order, tenantID uint, now time.Time) []ClientFeatures {
	byClient := make(map[uint]*ClientFeatures)
	for _, o := range orders {
		if o.TenantID != tenantID {
			continue
		}
		row, ok := byClient[o.ClientID]
		if !ok {
			row = &ClientFeatures{ClientID: o.ClientID}
			byClient[o.ClientID] = row
		}
		row.TotalSpent += o.TotalAmount
		row.OrderCount++
		if o.OrderDate != nil && (row.LastOrderDate == nil || o.OrderDate.After(*row.LastOrderDate)) {
			last := *o.OrderDate
			row.LastOrderDate = &last
		}
	}

	rows := make([]ClientFeatures, 0, len(byClient))
	for _, row := range byClient {
		row.AvgOrder = row.TotalSpent / float64(row.OrderCount)
		if row.LastOrderDate != nil {
			row.DaysSinceLast = utils.DaysBetween(*row.LastOrderDate, now)
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ClientID < rows[j].ClientID })
	return rows
}

// featureMatrix returns the vectors of rows in row order
func featureMatrix(rows []ClientFeatures) [][]float64 {
	x := make([][]float64, len(rows))
	for i, r := range rows {
		x[i] = r.Vector()
	}
	return x
}
