package analytics

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// KMeansConfig bounds the clustering search
type KMeansConfig struct {
	MaxIter int     // Lloyd iterations per restart
	NInit   int     // k-means++ restarts; the lowest-inertia run wins
	Tol     float64 // convergence threshold relative to the mean feature variance
}

// DefaultKMeansConfig mirrors the usual k-means++ defaults
func DefaultKMeansConfig() KMeansConfig {
	return KMeansConfig{MaxIter: 300, NInit: 10, Tol: 1e-4}
}

// Clustering is the outcome of a k-means run
type Clustering struct {
	Labels    []int
	Centroids [][]float64
	Inertia   float64
}

// KMeans partitions points into k clusters with k-means++ seeding and Lloyd iterations.
// Points are used as given; no scaling is applied. k must be between 1 and len(points).
func KMeans(points [][]float64, k int, cfg KMeansConfig, rng Random) (*Clustering, error) {
	n := len(points)
	if n == 0 {
		return nil, errors.New("kmeans: no points")
	}
	if k < 1 || k > n {
		return nil, errors.New("kmeans: k must be between 1 and the number of points")
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = DefaultKMeansConfig().MaxIter
	}
	if cfg.NInit <= 0 {
		cfg.NInit = 1
	}
	tol := cfg.Tol * meanVariance(points)

	var best *Clustering
	for run := 0; run < cfg.NInit; run++ {
		c := lloyd(points, seedCentroids(points, k, rng), cfg.MaxIter, tol)
		if best == nil || c.Inertia < best.Inertia {
			best = c
		}
	}
	return best, nil
}

// seedCentroids applies k-means++: the first centre is uniform, each next one is drawn
// with probability proportional to the squared distance to the nearest chosen centre.
func seedCentroids(points [][]float64, k int, rng Random) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.IntN(n)]))

	dist := make([]float64, n)
	for i, p := range points {
		dist[i] = sqDist(p, centroids[0])
	}
	for len(centroids) < k {
		total := floats.Sum(dist)
		next := rng.IntN(n)
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range dist {
				if d <= 0 {
					continue
				}
				next = i
				if target -= d; target <= 0 {
					break
				}
			}
		}
		centroids = append(centroids, clone(points[next]))
		for i, p := range points {
			if d := sqDist(p, centroids[len(centroids)-1]); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centroids
}

func lloyd(points [][]float64, centroids [][]float64, maxIter int, tol float64) *Clustering {
	k := len(centroids)
	dim := len(points[0])
	labels := make([]int, len(points))

	for iter := 0; iter < maxIter; iter++ {
		assign(points, centroids, labels)

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}

		shift := 0.0
		for c := 0; c < k; c++ {
			var next []float64
			if counts[c] == 0 {
				// an empty cluster takes over the point worst served by its centre
				next = clone(points[farthestPoint(points, centroids, labels)])
			} else {
				next = sums[c]
				floats.Scale(1/float64(counts[c]), next)
			}
			shift += sqDist(next, centroids[c])
			centroids[c] = next
		}
		if shift <= tol {
			break
		}
	}

	inertia := assign(points, centroids, labels)
	return &Clustering{Labels: labels, Centroids: centroids, Inertia: inertia}
}

// assign labels each point with its nearest centroid (lowest index on ties) and
// returns the summed squared distance
func assign(points, centroids [][]float64, labels []int) float64 {
	inertia := 0.0
	for i, p := range points {
		best, bestDist := 0, math.Inf(1)
		for c, centre := range centroids {
			if d := sqDist(p, centre); d < bestDist {
				best, bestDist = c, d
			}
		}
		labels[i] = best
		inertia += bestDist
	}
	return inertia
}

func farthestPoint(points, centroids [][]float64, labels []int) int {
	idx, worst := 0, -1.0
	for i, p := range points {
		if d := sqDist(p, centroids[labels[i]]); d > worst {
			idx, worst = i, d
		}
	}
	return idx
}

func meanVariance(points [][]float64) float64 {
	if len(points) < 2 {
		return 0
	}
	dim := len(points[0])
	col := make([]float64, len(points))
	total := 0.0
	for j := 0; j < dim; j++ {
		for i, p := range points {
			col[i] = p[j]
		}
		total += stat.Variance(col, nil)
	}
	return total / float64(dim)
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
