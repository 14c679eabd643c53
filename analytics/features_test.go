package analytics

import (
	"testing"

	"github.com/kendall-kelly/customer-analytics-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFeatures_SingleClient(t *testing.T) {
	orders := []models.Order{
		order(1, 1, 1, 100, daysAgo(10)),
		order(2, 1, 1, 200, daysAgo(5)),
		order(3, 1, 1, 300, daysAgo(20)),
	}

	rows := BuildFeatures(orders, 1, testNow)

	require.Len(t, rows, 1)
	assert.Equal(t, uint(1), rows[0].ClientID)
	assert.Equal(t, 600.0, rows[0].TotalSpent)
	assert.Equal(t, 3, rows[0].OrderCount)
	assert.Equal(t, 200.0, rows[0].AvgOrder)
	assert.Equal(t, 5, rows[0].DaysSinceLast, "recency should use the latest order")
	require.NotNil(t, rows[0].LastOrderDate)
	assert.True(t, daysAgo(5).Equal(*rows[0].LastOrderDate))
}

func TestBuildFeatures_TenantScoped(t *testing.T) {
	orders := []models.Order{
		order(1, 1, 1, 100, daysAgo(1)),
		order(2, 2, 2, 999, daysAgo(1)),
		order(3, 3, 1, 50, daysAgo(1)),
	}

	rows := BuildFeatures(orders, 1, testNow)

	require.Len(t, rows, 2)
	assert.Equal(t, uint(1), rows[0].ClientID)
	assert.Equal(t, uint(3), rows[1].ClientID, "rows should be sorted by client id")

	assert.Empty(t, BuildFeatures(orders, 42, testNow), "unknown tenant should produce no rows")
}

func TestBuildFeatures_EmptyInput(t *testing.T) {
	rows := BuildFeatures(nil, 1, testNow)
	assert.NotNil(t, rows, "empty result should be an empty slice, not nil")
	assert.Empty(t, rows)
}

func TestBuildFeatures_MissingDates(t *testing.T) {
	orders := []models.Order{
		order(1, 1, 1, 100, nil),
		order(2, 2, 1, 100, nil),
		order(3, 2, 1, 100, daysAgo(3)),
	}

	rows := BuildFeatures(orders, 1, testNow)

	require.Len(t, rows, 2)
	assert.Nil(t, rows[0].LastOrderDate)
	assert.Equal(t, 0, rows[0].DaysSinceLast, "missing dates should count as zero days")
	assert.Equal(t, 3, rows[1].DaysSinceLast, "dated orders should win over undated ones")
}

func TestBuildFeatures_AggregateInvariants(t *testing.T) {
	rng := NewRandom(99)
	var orders []models.Order
	expectedTotal := map[uint]float64{}
	expectedCount := map[uint]int{}
	for i := 0; i < 500; i++ {
		clientID := uint(rng.IntN(40) + 1)
		amount := Uniform(rng, 1, 700)
		orders = append(orders, order(uint(i+1), clientID, 1, amount, daysAgo(rng.IntN(200))))
		expectedTotal[clientID] += amount
		expectedCount[clientID]++
	}

	rows := BuildFeatures(orders, 1, testNow)

	assert.Len(t, rows, len(expectedCount))
	for _, r := range rows {
		assert.GreaterOrEqual(t, r.OrderCount, 1)
		assert.Equal(t, expectedCount[r.ClientID], r.OrderCount)
		assert.InDelta(t, expectedTotal[r.ClientID], r.TotalSpent, 1e-9)
		assert.InDelta(t, r.TotalSpent, r.AvgOrder*float64(r.OrderCount), 1e-9)
	}
}

func TestClientFeatures_VectorAndRounding(t *testing.T) {
	f := ClientFeatures{ClientID: 4, TotalSpent: 100.456, OrderCount: 3, AvgOrder: 33.4853, DaysSinceLast: 12}

	assert.Equal(t, []float64{100.456, 3, 33.4853, 12}, f.Vector())
	assert.Len(t, FeatureNames, len(f.Vector()))

	r := f.Rounded()
	assert.Equal(t, 100.46, r.TotalSpent)
	assert.Equal(t, 33.49, r.AvgOrder)
	assert.Equal(t, 100.456, f.TotalSpent, "Rounded should not modify the receiver")
}
