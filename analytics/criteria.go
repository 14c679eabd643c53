package analytics

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kendall-kelly/customer-analytics-api/utils"
)

// Criteria is the caller-supplied filter mapping of a segmentation request.
// Unrecognized keys are ignored.
type Criteria map[string]any

// Thresholds of the client_type presets
const (
	VIPOrderAmount      = 3000.0
	FrequentOrderCount  = 5
	NewClientWindowDays = 30
)

// Client type presets; only one applies per request
const (
	ClientTypeVIP      = "vip"
	ClientTypeFrequent = "frequent"
	ClientTypeNew      = "new"
)

// CriteriaError reports a filter value that could not be interpreted
type CriteriaError struct {
	Key   string
	Value any
	Err   error
}

func (e *CriteriaError) Error() string {
	return fmt.Sprintf("invalid criteria %s=%v: %v", e.Key, e.Value, e.Err)
}

func (e *CriteriaError) Unwrap() error {
	return e.Err
}

// Filters is the parsed form of Criteria
type Filters struct {
	DateFrom   *time.Time
	DateTo     *time.Time
	MinSpent   *float64
	MinOrders  *float64
	ClientType string
}

// ParseCriteria validates c. Missing and null values leave the corresponding filter off.
func ParseCriteria(c Criteria) (Filters, error) {
	var f Filters

	if v, ok := present(c, "date_from"); ok {
		t, err := criteriaDate(v)
		if err != nil {
			return Filters{}, &CriteriaError{Key: "date_from", Value: v, Err: err}
		}
		f.DateFrom = &t
	}
	if v, ok := present(c, "date_to"); ok {
		t, err := criteriaDate(v)
		if err != nil {
			return Filters{}, &CriteriaError{Key: "date_to", Value: v, Err: err}
		}
		f.DateTo = &t
	}
	if v, ok := present(c, "min_spent"); ok {
		n, err := criteriaNumber(v)
		if err != nil {
			return Filters{}, &CriteriaError{Key: "min_spent", Value: v, Err: err}
		}
		f.MinSpent = &n
	}
	if v, ok := present(c, "min_orders"); ok {
		n, err := criteriaNumber(v)
		if err != nil {
			return Filters{}, &CriteriaError{Key: "min_orders", Value: v, Err: err}
		}
		f.MinOrders = &n
	}
	if v, ok := present(c, "client_type"); ok {
		s, isString := v.(string)
		if !isString {
			return Filters{}, &CriteriaError{Key: "client_type", Value: v, Err: fmt.Errorf("expected a string")}
		}
		switch ct := strings.ToLower(strings.TrimSpace(s)); ct {
		case ClientTypeVIP, ClientTypeFrequent, ClientTypeNew:
			f.ClientType = ct
		}
	}
	return f, nil
}

// Apply filters raw orders. Date, amount and client type filters run first; min_orders
// then counts each client's orders within what is left. Orders without a date never
// satisfy a date-based filter.
func (f Filters) Apply(orders []Order, now time.Time) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if f.DateFrom != nil && (o.OrderDate == nil || o.OrderDate.Before(*f.DateFrom)) {
			continue
		}
		if f.DateTo != nil && (o.OrderDate == nil || o.OrderDate.After(*f.DateTo)) {
			continue
		}
		if f.MinSpent != nil && o.TotalAmount < *f.MinSpent {
			continue
		}
		out = append(out, o)
	}

	switch f.ClientType {
	case ClientTypeVIP:
		out = keepOrders(out, func(o Order) bool { return o.TotalAmount > VIPOrderAmount })
	case ClientTypeFrequent:
		counts := orderCounts(out)
		out = keepOrders(out, func(o Order) bool { return counts[o.ClientID] > FrequentOrderCount })
	case ClientTypeNew:
		since := now.AddDate(0, 0, -NewClientWindowDays)
		out = keepOrders(out, func(o Order) bool { return o.OrderDate != nil && !o.OrderDate.Before(since) })
	}

	if f.MinOrders != nil {
		counts := orderCounts(out)
		out = keepOrders(out, func(o Order) bool { return float64(counts[o.ClientID]) >= *f.MinOrders })
	}
	return out
}

// Applied reports the active filters in their normalized form
func (f Filters) Applied() map[string]any {
	applied := make(map[string]any)
	if f.DateFrom != nil {
		applied["date_from"] = f.DateFrom.Format(time.RFC3339)
	}
	if f.DateTo != nil {
		applied["date_to"] = f.DateTo.Format(time.RFC3339)
	}
	if f.MinSpent != nil {
		applied["min_spent"] = *f.MinSpent
	}
	if f.MinOrders != nil {
		applied["min_orders"] = *f.MinOrders
	}
	if f.ClientType != "" {
		applied["client_type"] = f.ClientType
	}
	return applied
}

func present(c Criteria, key string) (any, bool) {
	v, ok := c[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func criteriaDate(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("expected a date string")
	}
	return utils.ParseDate(s)
}

func criteriaNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func orderCounts(orders []Order) map[uint]int {
	counts := make(map[uint]int)
	for _, o := range orders {
		counts[o.ClientID]++
	}
	return counts
}

func keepOrders(orders []Order, keep func(Order) bool) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}
