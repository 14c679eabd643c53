package analytics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ForestConfig holds the bagged regression-tree hyperparameters
type ForestConfig struct {
	Trees           int
	MaxDepth        int // 0 grows until leaves are pure or too small to split
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // features tried per split; 0 tries all of them
	Bootstrap       bool
}

// DefaultForestConfig returns 50 fully grown trees on bootstrap samples
func DefaultForestConfig() ForestConfig {
	return ForestConfig{Trees: 50, MinSamplesSplit: 2, MinSamplesLeaf: 1, Bootstrap: true}
}

// TreeNode is one node of a flattened regression tree. Leaves have Left == -1.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// RegressionTree is a CART tree stored as a node slice rooted at index 0
type RegressionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

// Predict walks x down to a leaf
func (t *RegressionTree) Predict(x []float64) float64 {
	i := 0
	for t.Nodes[i].Left >= 0 {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Value
}

// RandomForest averages the predictions of its trees
type RandomForest struct {
	NumFeatures int              `json:"num_features"`
	Trees       []RegressionTree `json:"trees"`
}

// Predict returns the mean tree prediction for x
func (f *RandomForest) Predict(x []float64) float64 {
	sum := 0.0
	for i := range f.Trees {
		sum += f.Trees[i].Predict(x)
	}
	return sum / float64(len(f.Trees))
}

// FitForest grows cfg.Trees regression trees on x and y, each on a bootstrap sample
// when cfg.Bootstrap is set. Splits minimize the summed squared error of the children.
func FitForest(x [][]float64, y []float64, cfg ForestConfig, rng Random) (*RandomForest, error) {
	if len(x) == 0 {
		return nil, errors.New("no training rows")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%d rows but %d targets", len(x), len(y))
	}
	dim := len(x[0])
	for i := range x {
		if len(x[i]) != dim {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(x[i]), dim)
		}
		for _, v := range x[i] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("row %d has a non-finite feature", i)
			}
		}
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return nil, fmt.Errorf("row %d has a non-finite target", i)
		}
	}
	if cfg.Trees <= 0 {
		cfg.Trees = 1
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.MinSamplesLeaf < 1 {
		cfg.MinSamplesLeaf = 1
	}
	if cfg.MaxFeatures <= 0 || cfg.MaxFeatures > dim {
		cfg.MaxFeatures = dim
	}

	forest := &RandomForest{NumFeatures: dim, Trees: make([]RegressionTree, 0, cfg.Trees)}
	for t := 0; t < cfg.Trees; t++ {
		sample := make([]int, len(x))
		for i := range sample {
			if cfg.Bootstrap {
				sample[i] = rng.IntN(len(x))
			} else {
				sample[i] = i
			}
		}
		b := &treeBuilder{x: x, y: y, cfg: cfg, rng: rng}
		b.grow(sample, 0)
		forest.Trees = append(forest.Trees, RegressionTree{Nodes: b.nodes})
	}
	return forest, nil
}

type treeBuilder struct {
	x     [][]float64
	y     []float64
	cfg   ForestConfig
	rng   Random
	nodes []TreeNode
}

// grow appends the subtree for rows and returns its node index
func (b *treeBuilder) grow(rows []int, depth int) int {
	targets := make([]float64, len(rows))
	for i, r := range rows {
		targets[i] = b.y[r]
	}
	idx := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{Left: -1, Right: -1, Value: stat.Mean(targets, nil)})

	if len(rows) < b.cfg.MinSamplesSplit || (b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth) {
		return idx
	}
	feature, threshold, ok := b.bestSplit(rows)
	if !ok {
		return idx
	}

	var left, right []int
	for _, r := range rows {
		if b.x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx].Feature = feature
	b.nodes[idx].Threshold = threshold
	b.nodes[idx].Left = l
	b.nodes[idx].Right = r
	return idx
}

// bestSplit scans every candidate threshold of a random feature subset
func (b *treeBuilder) bestSplit(rows []int) (int, float64, bool) {
	n := len(rows)
	total, totalSq := 0.0, 0.0
	for _, r := range rows {
		total += b.y[r]
		totalSq += b.y[r] * b.y[r]
	}
	parentSSE := totalSq - total*total/float64(n)
	if parentSSE <= 1e-12 {
		return 0, 0, false
	}

	features := make([]int, len(b.x[0]))
	for i := range features {
		features[i] = i
	}
	b.rng.Shuffle(len(features), func(i, j int) { features[i], features[j] = features[j], features[i] })
	features = features[:b.cfg.MaxFeatures]

	bestFeature, bestThreshold, bestSSE := -1, 0.0, parentSSE
	sorted := make([]int, n)
	for _, f := range features {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(i, j int) bool { return b.x[sorted[i]][f] < b.x[sorted[j]][f] })

		leftSum, leftSq := 0.0, 0.0
		for i := 0; i < n-1; i++ {
			v := b.y[sorted[i]]
			leftSum += v
			leftSq += v * v
			nl := i + 1
			nr := n - nl
			if nl < b.cfg.MinSamplesLeaf || nr < b.cfg.MinSamplesLeaf {
				continue
			}
			cur, next := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
			if cur == next {
				continue
			}
			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if sse < bestSSE-1e-12 {
				threshold := cur + (next-cur)/2
				if threshold >= next {
					threshold = cur
				}
				bestFeature, bestThreshold, bestSSE = f, threshold, sse
			}
		}
	}
	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}
