package analytics

import (
	"fmt"
	"sort"

	"github.com/kendall-kelly/customer-analytics-api/utils"
	"gonum.org/v1/gonum/stat"
)

// DefaultClusters is used when a request does not say how many clusters it wants
const DefaultClusters = 3

// RoleNames label clusters by spend rank; ranks past the list become "Cluster_<rank>"
var RoleNames = []string{"VIP", "Frequent", "Regular", "LowValue"}

// ActionPool holds the suggested follow-ups; each insight carries two distinct ones
var ActionPool = []string{
	"Send a 15% coupon to boost engagement.",
	"Offer personalized product bundles.",
	"Launch a targeted WhatsApp marketing campaign.",
	"Offer a 100 DH loyalty reward.",
	"Analyze their favorite products for personalized recommendations.",
}

// Insight describes one cluster in plain language
type Insight struct {
	Cluster     string   `json:"cluster"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

// ClusterSummary ranks one cluster by mean spend
type ClusterSummary struct {
	Index    int     `json:"index"`
	Role     string  `json:"role"`
	AvgSpent float64 `json:"avg_spent"`
	Count    int     `json:"count"`
}

// SegmentationSummary reports the size of the run
type SegmentationSummary struct {
	Clients  int            `json:"clients"`
	Clusters int            `json:"clusters"`
	Filters  map[string]any `json:"filters"`
}

// SegmentationResult maps role names to the clients in that cluster
type SegmentationResult struct {
	Segments map[string][]ClientFeatures `json:"segments"`
	Insights []Insight                   `json:"insights"`
	Summary  SegmentationSummary         `json:"summary"`
	Ranking  []ClusterSummary            `json:"-"`
}

// RoleName returns the label for a spend rank
func RoleName(rank int) string {
	if rank < len(RoleNames) {
		return RoleNames[rank]
	}
	return fmt.Sprintf("Cluster_%d", rank)
}

// Segment filters the tenant's raw orders, rebuilds features on what is left, clusters
// the clients and names each cluster by its rank in mean total spend.
//
// k is max(2, nClusters), capped at the number of clients. Cluster membership is the
// stable output; which integer a cluster gets is arbitrary and not reported.
func (e *Engine) Segment(orders []Order, tenantID uint, nClusters int, criteria Criteria) (*SegmentationResult, error) {
	filters, err := ParseCriteria(criteria)
	if err != nil {
		return nil, err
	}

	now := e.now()
	filtered := filters.Apply(TenantOrders(orders, tenantID), now)
	features := BuildFeatures(filtered, tenantID, now)
	if len(features) == 0 {
		return &SegmentationResult{
			Segments: map[string][]ClientFeatures{},
			Insights: []Insight{},
			Summary:  SegmentationSummary{Clients: 0, Clusters: nClusters, Filters: filters.Applied()},
			Ranking:  []ClusterSummary{},
		}, nil
	}

	k := nClusters
	if k < 2 {
		k = 2
	}
	if k > len(features) {
		k = len(features)
	}

	rng := e.unseeded()
	clustering, err := KMeans(featureMatrix(features), k, e.kmeans, rng)
	if err != nil {
		return nil, fmt.Errorf("cluster clients: %w", err)
	}

	members := make(map[int][]ClientFeatures)
	for i, label := range clustering.Labels {
		members[label] = append(members[label], features[i])
	}
	ranking := rankClusters(members)

	result := &SegmentationResult{
		Segments: make(map[string][]ClientFeatures, len(ranking)),
		Insights: make([]Insight, 0, len(ranking)),
		Summary:  SegmentationSummary{Clients: len(features), Clusters: k, Filters: filters.Applied()},
		Ranking:  ranking,
	}
	for _, cs := range ranking {
		rows := make([]ClientFeatures, len(members[cs.Index]))
		for i, row := range members[cs.Index] {
			rows[i] = row.Rounded()
		}
		result.Segments[cs.Role] = rows
		result.Insights = append(result.Insights, clusterInsight(cs, members[cs.Index], rng))
	}
	return result, nil
}

// rankClusters orders the non-empty clusters by mean total spend, highest first, and
// assigns role names in that order. Ties keep the lower cluster index first.
func rankClusters(members map[int][]ClientFeatures) []ClusterSummary {
	ranking := make([]ClusterSummary, 0, len(members))
	for idx, rows := range members {
		spent := make([]float64, len(rows))
		for i, r := range rows {
			spent[i] = r.TotalSpent
		}
		ranking = append(ranking, ClusterSummary{Index: idx, AvgSpent: stat.Mean(spent, nil), Count: len(rows)})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].AvgSpent != ranking[j].AvgSpent {
			return ranking[i].AvgSpent > ranking[j].AvgSpent
		}
		return ranking[i].Index < ranking[j].Index
	})
	for rank := range ranking {
		ranking[rank].Role = RoleName(rank)
	}
	return ranking
}

func clusterInsight(cs ClusterSummary, rows []ClientFeatures, rng Random) Insight {
	days := make([]float64, len(rows))
	orderCounts := make([]float64, len(rows))
	for i, r := range rows {
		days[i] = float64(r.DaysSinceLast)
		orderCounts[i] = float64(r.OrderCount)
	}

	description := fmt.Sprintf(
		"%s clients spend %.2f DH on average over %.1f orders. Their last purchase was %d days ago.",
		cs.Role, utils.Round2(cs.AvgSpent), stat.Mean(orderCounts, nil), int(stat.Mean(days, nil)),
	)

	pool := make([]string, len(ActionPool))
	copy(pool, ActionPool)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	return Insight{Cluster: cs.Role, Description: description, Actions: pool[:2]}
}
