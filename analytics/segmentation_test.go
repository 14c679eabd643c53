package analytics

import (
	"sort"
	"testing"

	"github.com/kendall-kelly/customer-analytics-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func membership(result *SegmentationResult) [][]uint {
	var groups [][]uint
	for _, rows := range result.Segments {
		ids := make([]uint, len(rows))
		for i, r := range rows {
			ids[i] = r.ClientID
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		groups = append(groups, ids)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}

func TestSegment_PartitionsClients(t *testing.T) {
	engine := newTestEngine()
	orders := spreadOrders()

	result, err := engine.Segment(orders, 1, 3, nil)
	require.NoError(t, err)

	expected := map[uint]bool{}
	for _, f := range BuildFeatures(orders, 1, testNow) {
		expected[f.ClientID] = true
	}
	seen := map[uint]bool{}
	for _, rows := range result.Segments {
		for _, r := range rows {
			assert.False(t, seen[r.ClientID], "client %d appears in more than one segment", r.ClientID)
			seen[r.ClientID] = true
		}
	}
	assert.Equal(t, expected, seen, "segments should cover every client exactly once")
	assert.Equal(t, 15, result.Summary.Clients)
	assert.Equal(t, 3, result.Summary.Clusters)
}

func TestSegment_RolesFollowSpendRank(t *testing.T) {
	engine := newTestEngine()

	result, err := engine.Segment(spreadOrders(), 1, 3, nil)
	require.NoError(t, err)

	require.Len(t, result.Ranking, 3)
	for rank, cs := range result.Ranking {
		assert.Equal(t, RoleName(rank), cs.Role)
		if rank > 0 {
			assert.Greater(t, result.Ranking[rank-1].AvgSpent, cs.AvgSpent, "ranks should descend by mean spend")
		}
	}

	vip := result.Segments["VIP"]
	require.Len(t, vip, 5)
	for _, r := range vip {
		assert.GreaterOrEqual(t, r.ClientID, uint(11), "the highest spenders should be VIP")
	}
	assert.Len(t, result.Segments["Frequent"], 5)
	assert.Len(t, result.Segments["Regular"], 5)
}

func TestSegment_InsightsPerCluster(t *testing.T) {
	engine := newTestEngine()

	result, err := engine.Segment(spreadOrders(), 1, 3, nil)
	require.NoError(t, err)

	require.Len(t, result.Insights, len(result.Segments))
	for i, insight := range result.Insights {
		assert.Equal(t, result.Ranking[i].Role, insight.Cluster)
		assert.Contains(t, insight.Description, insight.Cluster)
		require.Len(t, insight.Actions, 2)
		assert.NotEqual(t, insight.Actions[0], insight.Actions[1], "actions should be distinct")
		for _, action := range insight.Actions {
			assert.Contains(t, ActionPool, action)
		}
	}
}

func TestSegment_MinimumTwoClusters(t *testing.T) {
	engine := newTestEngine()

	result, err := engine.Segment(spreadOrders(), 1, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.Clusters)
	assert.Len(t, result.Segments, 2)
}

func TestSegment_MoreClustersThanRoleNames(t *testing.T) {
	engine := newTestEngine()

	result, err := engine.Segment(spreadOrders(), 1, 6, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, result.Summary.Clusters)
	for rank, cs := range result.Ranking {
		if rank >= len(RoleNames) {
			assert.Equal(t, RoleName(rank), cs.Role)
			assert.Contains(t, result.Segments, "Cluster_4")
		}
	}
}

func TestSegment_KCappedAtClientCount(t *testing.T) {
	engine := newTestEngine()
	orders := []models.Order{
		order(1, 1, 1, 100, daysAgo(1)),
		order(2, 2, 1, 900, daysAgo(1)),
	}

	result, err := engine.Segment(orders, 1, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.Clusters)
	assert.Len(t, result.Segments["VIP"], 1)
	assert.Equal(t, uint(2), result.Segments["VIP"][0].ClientID)
}

func TestSegment_FiltersEliminateEverything(t *testing.T) {
	engine := newTestEngine()
	orders := []models.Order{
		order(1, 1, 1, 100, daysAgo(1)),
		order(2, 1, 1, 200, daysAgo(2)),
		order(3, 2, 1, 999.99, daysAgo(3)),
	}

	result, err := engine.Segment(orders, 1, 4, Criteria{"min_spent": 1000})
	require.NoError(t, err)

	assert.Empty(t, result.Segments)
	assert.Empty(t, result.Insights)
	assert.Equal(t, 0, result.Summary.Clients)
	assert.Equal(t, 4, result.Summary.Clusters, "degenerate response reports the requested cluster count")
	assert.Equal(t, 1000.0, result.Summary.Filters["min_spent"])
}

func TestSegment_UnknownTenant(t *testing.T) {
	engine := newTestEngine()

	result, err := engine.Segment(spreadOrders(), 99, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Segments)
	assert.NotNil(t, result.Insights)
}

func TestSegment_FiltersApplyBeforeAggregation(t *testing.T) {
	engine := newTestEngine()

	result, err := engine.Segment(spreadOrders(), 1, 2, Criteria{"min_spent": 1000})
	require.NoError(t, err)

	for _, rows := range result.Segments {
		for _, r := range rows {
			assert.GreaterOrEqual(t, r.ClientID, uint(6), "low spenders have no order reaching 1000")
			if r.ClientID <= 10 {
				assert.Equal(t, 2, r.OrderCount, "only the 1000 and 1100 orders survive for mid spenders")
			}
		}
	}
}

func TestSegment_MalformedCriteria(t *testing.T) {
	engine := newTestEngine()

	result, err := engine.Segment(spreadOrders(), 1, 3, Criteria{"date_from": "not-a-date"})
	require.Error(t, err)
	assert.Nil(t, result, "no partial result should be returned")

	var criteriaErr *CriteriaError
	assert.ErrorAs(t, err, &criteriaErr)
}

func TestSegment_StableMembershipWithPinnedEntropy(t *testing.T) {
	orders := spreadOrders()

	first, err := newTestEngine().Segment(orders, 1, 3, nil)
	require.NoError(t, err)
	second, err := newTestEngine().Segment(orders, 1, 3, nil)
	require.NoError(t, err)

	assert.Equal(t, membership(first), membership(second))
}

func TestRoleName(t *testing.T) {
	assert.Equal(t, "VIP", RoleName(0))
	assert.Equal(t, "Frequent", RoleName(1))
	assert.Equal(t, "Regular", RoleName(2))
	assert.Equal(t, "LowValue", RoleName(3))
	assert.Equal(t, "Cluster_4", RoleName(4))
	assert.Equal(t, "Cluster_7", RoleName(7))
}
