package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/customer-analytics-api/utils"
	"gonum.org/v1/gonum/stat"
)

// ProxyTarget names the synthesized training label. It is not an observed next purchase.
const ProxyTarget = "synthetic_proxy"

// Bounds of the proxy label multiplier applied to avg_order
const (
	ProxyTargetLow  = 0.8
	ProxyTargetHigh = 1.6
)

// HoldoutFraction is the share of feature rows kept out of training
const HoldoutFraction = 0.2

// TopClientsLimit caps the top_clients list
const TopClientsLimit = 5

// ErrModelFit marks a failure to train the regression model
var ErrModelFit = errors.New("model fit failed")

// Model is the per-tenant artifact handed to a ModelSaver after every successful fit
type Model struct {
	ID        string        `json:"id"`
	TenantID  uint          `json:"tenant_id"`
	TrainedAt time.Time     `json:"trained_at"`
	TrainedOn int           `json:"trained_on"`
	Features  []string      `json:"features"`
	Target    string        `json:"target"`
	Forest    *RandomForest `json:"forest"`
}

// Predict scores one feature row
func (m *Model) Predict(f ClientFeatures) float64 {
	return m.Forest.Predict(f.Vector())
}

// ModelSaver persists the latest model of a tenant, overwriting the previous one
type ModelSaver interface {
	Save(ctx context.Context, tenantID uint, model *Model) error
}

// Prediction is one scored client
type Prediction struct {
	ClientID       uint    `json:"client_id"`
	PredictedValue float64 `json:"predicted_value"`
}

// PredictionSummary describes the training run behind a prediction response
type PredictionSummary struct {
	TrainedOn   int      `json:"trained_on"`
	HoldoutSize int      `json:"holdout_size"`
	HoldoutR2   *float64 `json:"holdout_r2,omitempty"`
	Target      string   `json:"target"`
	ModelID     string   `json:"model_id,omitempty"`
	Message     string   `json:"message,omitempty"`
}

// PredictionResult is the response of Predict
type PredictionResult struct {
	Predictions []Prediction      `json:"predictions"`
	Summary     PredictionSummary `json:"summary"`
	AvgPurchase float64           `json:"avg_purchase"`
	TopClients  []Prediction      `json:"top_clients"`
}

// SynthesizeTarget draws the proxy label avg_order × U(0.8, 1.6) for every row
func SynthesizeTarget(rows []ClientFeatures, rng Random) []float64 {
	y := make([]float64, len(rows))
	for i, r := range rows {
		y[i] = r.AvgOrder * Uniform(rng, ProxyTargetLow, ProxyTargetHigh)
	}
	return y
}

// TrainTestSplit shuffles row indices and holds out ceil(n × holdout) of them. When that
// would leave nothing to train on, every row is used for training.
func TrainTestSplit(n int, holdout float64, rng Random) (train, test []int) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	nTest := int(math.Ceil(float64(n)*holdout - 1e-9))
	if n-nTest < 1 {
		return idx, nil
	}
	return idx[nTest:], idx[:nTest]
}

// Predict trains a regression forest on the tenant's features against the proxy label,
// saves it through saver and scores clientIDs (every client when clientIDs is empty).
// Unknown client ids are skipped. The random stream is seeded so repeated calls over the
// same data produce the same model.
//
// Concurrent calls for one tenant race on saver; the last Save wins.
func (e *Engine) Predict(ctx context.Context, orders []Order, tenantID uint, clientIDs []uint, saver ModelSaver) (*PredictionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	features := BuildFeatures(orders, tenantID, e.now())
	if len(features) == 0 {
		return &PredictionResult{
			Predictions: []Prediction{},
			Summary:     PredictionSummary{Target: ProxyTarget, Message: "No data"},
			AvgPurchase: 0,
			TopClients:  []Prediction{},
		}, nil
	}

	rng := e.seeded()
	x := featureMatrix(features)
	y := SynthesizeTarget(features, rng)
	train, test := TrainTestSplit(len(features), HoldoutFraction, rng)

	xTrain, yTrain := gatherRows(x, y, train)
	forest, err := FitForest(xTrain, yTrain, e.forest, rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelFit, err)
	}

	model := &Model{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		TrainedAt: e.now().UTC(),
		TrainedOn: len(train),
		Features:  append([]string(nil), FeatureNames...),
		Target:    ProxyTarget,
		Forest:    forest,
	}
	if saver != nil {
		if err := saver.Save(ctx, tenantID, model); err != nil {
			return nil, fmt.Errorf("save model for tenant %d: %w", tenantID, err)
		}
	}

	summary := PredictionSummary{
		TrainedOn:   len(train),
		HoldoutSize: len(test),
		HoldoutR2:   holdoutR2(forest, x, y, test),
		Target:      ProxyTarget,
		ModelID:     model.ID,
	}

	predictions := scoreClients(model, features, clientIDs)
	result := &PredictionResult{
		Predictions: predictions,
		Summary:     summary,
		AvgPurchase: 0,
		TopClients:  topPredictions(predictions, TopClientsLimit),
	}
	if len(predictions) > 0 {
		values := make([]float64, len(predictions))
		for i, p := range predictions {
			values[i] = p.PredictedValue
		}
		result.AvgPurchase = utils.Round2(stat.Mean(values, nil))
	}
	return result, nil
}

func scoreClients(model *Model, features []ClientFeatures, clientIDs []uint) []Prediction {
	var wanted map[uint]bool
	if len(clientIDs) > 0 {
		wanted = make(map[uint]bool, len(clientIDs))
		for _, id := range clientIDs {
			wanted[id] = true
		}
	}

	out := make([]Prediction, 0, len(features))
	for _, f := range features {
		if wanted != nil && !wanted[f.ClientID] {
			continue
		}
		out = append(out, Prediction{ClientID: f.ClientID, PredictedValue: utils.Round2(model.Predict(f))})
	}
	return out
}

// topPredictions returns the limit highest predictions; equal values keep input order
func topPredictions(predictions []Prediction, limit int) []Prediction {
	top := make([]Prediction, len(predictions))
	copy(top, predictions)
	sort.SliceStable(top, func(i, j int) bool { return top[i].PredictedValue > top[j].PredictedValue })
	if len(top) > limit {
		top = top[:limit]
	}
	return top
}

func holdoutR2(forest *RandomForest, x [][]float64, y []float64, test []int) *float64 {
	if len(test) < 2 {
		return nil
	}
	estimates := make([]float64, len(test))
	actual := make([]float64, len(test))
	for i, r := range test {
		estimates[i] = forest.Predict(x[r])
		actual[i] = y[r]
	}
	r2 := stat.RSquaredFrom(estimates, actual, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return nil
	}
	r2 = utils.Round2(r2)
	return &r2
}

func gatherRows(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, r := range idx {
		xs[i] = x[r]
		ys[i] = y[r]
	}
	return xs, ys
}
