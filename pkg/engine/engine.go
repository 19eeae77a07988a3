// Package engine provides the high-level interface for the hyperank
// re-ranking engine.
//
// It orchestrates the refinement pipeline over an in-memory collection of
// feature vectors: the initial pairwise similarity, the iterated hypergraph
// refinement rounds, and the final top-K retrieval with accuracy reporting.
//
// Basic usage:
//
//	opts := engine.DefaultOptions()
//	eng, err := engine.Open(features, labels, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := eng.Refine(); err != nil {
//	    log.Fatal(err)
//	}
//	results, err := eng.Search(0, opts.TopK)
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sanonone/hyperank/pkg/core"
	"github.com/sanonone/hyperank/pkg/core/distance"
	"github.com/sanonone/hyperank/pkg/metrics"
)

// Options configures the behavior of the Engine. All parameters are simple
// scalars validated once in Open, before the refinement loop starts.
type Options struct {
	// HyperedgeSize is the number of top-ranked neighbors stored in each
	// hyperedge (default: 5). Must not exceed the collection size.
	HyperedgeSize int

	// Iterations is the fixed number of refinement rounds (default: 9).
	// Zero runs no refinement: retrieval then ranks the initial similarity.
	Iterations int

	// TopK is the default result-list size for retrieval (default: 5).
	// Must not exceed the collection size.
	TopK int

	// Workers bounds the goroutines used inside data-parallel stages.
	// Zero or negative selects runtime.NumCPU().
	Workers int

	// SelfSimilarity selects the zero-distance scoring convention
	// (default: epsilon, which scores zero distances as 1e5).
	SelfSimilarity core.SelfSimilarity

	// Precision selects the storage precision of the feature vectors
	// (default: float32; float16 halves memory at some precision loss).
	Precision distance.PrecisionType
}

// DefaultOptions returns the standard configuration.
//
// Defaults:
//   - HyperedgeSize: 5
//   - Iterations: 9
//   - TopK: 5
//   - Workers: 0 (NumCPU)
//   - SelfSimilarity: epsilon
//   - Precision: float32
func DefaultOptions() Options {
	return Options{
		HyperedgeSize:  5,
		Iterations:     9,
		TopK:           5,
		Workers:        0,
		SelfSimilarity: core.SelfSimilarityEpsilon,
		Precision:      distance.Float32,
	}
}

// Engine is the main entry point for hyperank.
// It holds the immutable feature collection and the evolving similarity
// structure, which is the only state carried across refinement rounds.
//
// Use Open() to initialize an Engine; Refine() runs the configured rounds.
type Engine struct {
	features *core.FeatureSet
	labels   []string
	opts     Options

	// sim is the current similarity structure. It starts as the inverse
	// Euclidean pairwise similarity and is replaced by the fused affinity
	// matrix at the end of every round.
	sim *core.SimilarityMatrix

	rounds int // completed refinement rounds

	log *slog.Logger

	// adminMu serializes Refine against Search/Evaluate.
	adminMu sync.RWMutex
}

// Open validates the configuration, stores the feature vectors at the
// requested precision and computes the initial similarity matrix.
//
// It fails fast on any configuration error: empty collection, mismatched
// vector dimensions, label/feature count mismatch, or out-of-range k,
// top-K or iteration count. This method blocks until the initial pairwise
// similarity (quadratic in the item count) is fully computed.
func Open(features [][]float32, labels []string, opts Options) (*Engine, error) {
	if len(labels) != len(features) {
		return nil, fmt.Errorf("got %d labels for %d feature vectors", len(labels), len(features))
	}

	if opts.Precision == "" {
		opts.Precision = distance.Float32
	}
	fs, err := core.NewFeatureSet(features, opts.Precision)
	if err != nil {
		return nil, fmt.Errorf("invalid feature set: %w", err)
	}

	n := fs.Len()
	if opts.HyperedgeSize <= 0 || opts.HyperedgeSize > n {
		return nil, fmt.Errorf("hyperedge size %d out of range [1, %d]", opts.HyperedgeSize, n)
	}
	if opts.TopK <= 0 || opts.TopK > n {
		return nil, fmt.Errorf("top-K %d out of range [1, %d]", opts.TopK, n)
	}
	if opts.Iterations < 0 {
		return nil, fmt.Errorf("iteration count %d must not be negative", opts.Iterations)
	}
	switch opts.SelfSimilarity {
	case core.SelfSimilarityEpsilon, core.SelfSimilarityUnit:
	case "":
		opts.SelfSimilarity = core.SelfSimilarityEpsilon
	default:
		return nil, fmt.Errorf("unknown self-similarity convention '%s'", opts.SelfSimilarity)
	}

	e := &Engine{
		features: fs,
		labels:   labels,
		opts:     opts,
		log:      slog.Default().With("component", "hyperank"),
	}

	start := time.Now()
	sim, err := core.ComputeSimilarity(fs, opts.SelfSimilarity, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("initial similarity: %w", err)
	}
	metrics.StageDuration.WithLabelValues("similarity").Observe(time.Since(start).Seconds())
	e.sim = sim

	metrics.IndexedItems.Set(float64(n))
	e.log.Info("collection loaded",
		"items", n,
		"dim", fs.Dim(),
		"precision", string(fs.Precision()),
	)

	return e, nil
}

// Size returns the number of items in the collection.
func (e *Engine) Size() int {
	return e.features.Len()
}

// Label returns the ground-truth label of item id, or the empty string
// when id is out of range.
func (e *Engine) Label(id int) string {
	if id < 0 || id >= len(e.labels) {
		return ""
	}
	return e.labels[id]
}

// Rounds returns the number of refinement rounds completed so far.
func (e *Engine) Rounds() int {
	e.adminMu.RLock()
	defer e.adminMu.RUnlock()
	return e.rounds
}

// Refine runs the configured number of refinement rounds. Each round rebuilds
// every intermediate structure from the current similarity matrix and feeds
// the fused affinity matrix back as the next round's input; nothing else
// survives a round. There is no convergence check: the round count is the
// sole termination control. With Iterations == 0 this is a no-op and
// retrieval ranks the unrefined similarity.
func (e *Engine) Refine() error {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()

	runID := uuid.New().String()
	log := e.log.With("run_id", runID)
	k := e.opts.HyperedgeSize

	log.Info("refinement started", "iterations", e.opts.Iterations, "k", k)
	runStart := time.Now()

	for round := 1; round <= e.opts.Iterations; round++ {
		roundStart := time.Now()
		fused, err := e.runRound(k)
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}

		e.sim = fused
		e.rounds++
		metrics.RefinementRoundsTotal.Inc()
		log.Debug("round completed", "round", round, "elapsed", time.Since(roundStart))
	}

	log.Info("refinement completed",
		"rounds", e.opts.Iterations,
		"elapsed", time.Since(runStart),
	)
	return nil
}

// runRound executes one full pass of the pipeline over the current similarity
// matrix and returns the fused affinity as the next similarity structure.
// All intermediates are local to the round and garbage collected afterwards.
func (e *Engine) runRound(k int) (*core.SimilarityMatrix, error) {
	stage := newStageTimer()

	ranked, err := core.RankNormalize(e.sim, e.opts.Workers)
	if err != nil {
		return nil, err
	}
	stage.observe("rank_normalization")

	hyperedges, err := core.BuildHyperedges(ranked, k)
	if err != nil {
		return nil, err
	}
	stage.observe("hypergraph")

	assoc := core.EdgeAssociations(hyperedges, k, e.opts.Workers)
	stage.observe("edge_associations")

	weights := core.EdgeWeights(hyperedges, assoc)
	stage.observe("edge_weights")

	hyperSim := core.HyperedgeSimilarities(assoc)
	stage.observe("hyperedge_similarity")

	membership := core.MembershipDegrees(hyperedges, weights, assoc)
	stage.observe("membership")

	fused, err := core.CombineAffinity(membership, hyperSim)
	if err != nil {
		return nil, err
	}
	stage.observe("affinity_fusion")

	return fused, nil
}

// stageTimer records per-stage durations into the shared histogram.
type stageTimer struct {
	last time.Time
}

func newStageTimer() *stageTimer {
	return &stageTimer{last: time.Now()}
}

func (t *stageTimer) observe(stage string) {
	now := time.Now()
	metrics.StageDuration.WithLabelValues(stage).Observe(now.Sub(t.last).Seconds())
	t.last = now
}
