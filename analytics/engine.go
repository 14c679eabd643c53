// Package analytics derives per-client behavioral features from raw order records and
// serves the analytics products built on them: segmentation, next-purchase prediction,
// lifetime-value ranking, churn labels and product recommendations.
//
// Every operation is a batch recomputation over the orders it is given. The only state
// that outlives a call is the fitted prediction model, which is handed to a ModelSaver.
package analytics

import (
	"time"
)

// DefaultSeed pins the randomness of prediction, churn and recommendation so repeated
// calls over the same dataset return the same answers.
const DefaultSeed uint64 = 42

// Engine runs the analytics operations. It holds no per-request state and is safe for
// concurrent use; each call draws its own random stream.
type Engine struct {
	now     func() time.Time
	random  func(seed uint64) Random
	entropy func() uint64
	seed    uint64
	forest  ForestConfig
	kmeans  KMeansConfig
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the reference "now" used for recency features and the "new client" filter
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSeed sets the seed used by the reproducible operations (prediction, churn, recommendations)
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithEntropy sets the seed source for the operations that are random per request
// (clustering restarts, insight actions, the CLV multiplier). Tests pin it to a constant.
func WithEntropy(entropy func() uint64) Option {
	return func(e *Engine) { e.entropy = entropy }
}

// WithRandom replaces the random stream factory
func WithRandom(factory func(seed uint64) Random) Option {
	return func(e *Engine) { e.random = factory }
}

// WithForestConfig overrides the regression forest hyperparameters
func WithForestConfig(cfg ForestConfig) Option {
	return func(e *Engine) { e.forest = cfg }
}

// WithKMeansConfig overrides the clustering iteration limits
func WithKMeansConfig(cfg KMeansConfig) Option {
	return func(e *Engine) { e.kmeans = cfg }
}

// NewEngine creates an Engine with production defaults
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:     time.Now,
		random:  NewRandom,
		entropy: func() uint64 { return uint64(time.Now().UnixNano()) },
		seed:    DefaultSeed,
		forest:  DefaultForestConfig(),
		kmeans:  DefaultKMeansConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine's reference time
func (e *Engine) Now() time.Time {
	return e.now()
}

func (e *Engine) seeded() Random {
	return e.random(e.seed)
}

func (e *Engine) unseeded() Random {
	return e.random(e.entropy())
}

// Features builds the feature rows for a tenant at the engine's reference time
func (e *Engine) Features(orders []Order, tenantID uint) []ClientFeatures {
	return BuildFeatures(orders, tenantID, e.now())
}
