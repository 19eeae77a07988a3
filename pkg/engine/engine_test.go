package engine

import (
	"math"
	"testing"

	"github.com/sanonone/hyperank/pkg/core"
	"github.com/sanonone/hyperank/pkg/core/distance"
)

// twoPairFeatures places two tight pairs far apart: items 0/1 are near
// neighbors, items 2/3 are near neighbors, and the pairs are distant.
var twoPairFeatures = [][]float32{
	{0, 0},
	{0.1, 0},
	{10, 10},
	{10.1, 10},
}

var twoPairLabels = []string{"a", "a", "b", "b"}

func TestOpenValidation(t *testing.T) {
	opts := DefaultOptions()

	cases := []struct {
		name     string
		features [][]float32
		labels   []string
		mutate   func(*Options)
	}{
		{"EmptyCollection", nil, nil, nil},
		{"LabelCountMismatch", twoPairFeatures, []string{"a"}, nil},
		{"MismatchedDimensions", [][]float32{{1, 2}, {1}}, []string{"a", "b"}, nil},
		{"HyperedgeTooLarge", twoPairFeatures, twoPairLabels, func(o *Options) { o.HyperedgeSize = 5 }},
		{"TopKTooLarge", twoPairFeatures, twoPairLabels, func(o *Options) { o.TopK = 5 }},
		{"NegativeIterations", twoPairFeatures, twoPairLabels, func(o *Options) { o.Iterations = -1 }},
		{"UnknownConvention", twoPairFeatures, twoPairLabels, func(o *Options) { o.SelfSimilarity = "clamp" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := opts
			o.HyperedgeSize = 2
			o.TopK = 2
			if tc.mutate != nil {
				tc.mutate(&o)
			}
			if _, err := Open(tc.features, tc.labels, o); err == nil {
				t.Error("expected configuration error")
			}
		})
	}
}

func TestTwoPairScenario(t *testing.T) {
	opts := DefaultOptions()
	opts.HyperedgeSize = 2
	opts.Iterations = 1
	opts.TopK = 4
	opts.Workers = 1

	eng, err := Open(twoPairFeatures, twoPairLabels, opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Refine(); err != nil {
		t.Fatal(err)
	}

	results, err := eng.Search(0, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("no results")
	}

	// After one round item 0's strongest neighbor must be its duplicate
	// pair member, item 1; the far pair scores lower or drops to zero.
	scores := make(map[int]float64, len(results))
	for _, res := range results {
		scores[res.ID] = res.Score
	}

	best := -1
	for _, res := range results {
		if res.ID != 0 {
			best = res.ID
			break
		}
	}
	if best != 1 {
		t.Errorf("top non-self result is %d, want 1", best)
	}
	for _, far := range []int{2, 3} {
		if scores[far] >= scores[1] {
			t.Errorf("item %d scored %f, not below pair member's %f", far, scores[far], scores[1])
		}
	}
}

func TestZeroRoundPassThrough(t *testing.T) {
	opts := DefaultOptions()
	opts.HyperedgeSize = 2
	opts.Iterations = 0
	opts.TopK = 4

	eng, err := Open(twoPairFeatures, twoPairLabels, opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Refine(); err != nil {
		t.Fatal(err)
	}
	if eng.Rounds() != 0 {
		t.Fatalf("completed %d rounds, want 0", eng.Rounds())
	}

	results, err := eng.Search(0, 4)
	if err != nil {
		t.Fatal(err)
	}

	// With zero rounds the ranking is the unrefined inverse-distance
	// ordering: the epsilon self-score first, then by real distance.
	wantOrder := []int{0, 1, 2, 3}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for i, res := range results {
		if res.ID != wantOrder[i] {
			t.Errorf("position %d: got item %d, want %d", i, res.ID, wantOrder[i])
		}
	}

	// Scores are the raw inverse distances.
	d01 := math.Hypot(float64(twoPairFeatures[0][0]-twoPairFeatures[1][0]), 0)
	if got, want := results[1].Score, 1/d01; math.Abs(got-want) > 1e-4 {
		t.Errorf("item 1 score %f, want %f", got, want)
	}
}

func TestAccuracy(t *testing.T) {
	got := Accuracy([]string{"dog", "dog", "cat", "dog", "bird"}, "dog")
	if got != 60.0 {
		t.Errorf("got %f, want exactly 60.0", got)
	}

	if Accuracy(nil, "dog") != 0 {
		t.Error("empty result list must score 0")
	}
	if Accuracy([]string{"dog"}, "dog") != 100.0 {
		t.Error("perfect match must score 100")
	}
}

func TestQueryReport(t *testing.T) {
	opts := DefaultOptions()
	opts.HyperedgeSize = 2
	opts.Iterations = 1
	opts.TopK = 2

	eng, err := Open(twoPairFeatures, twoPairLabels, opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Refine(); err != nil {
		t.Fatal(err)
	}

	qr, err := eng.Query(0)
	if err != nil {
		t.Fatal(err)
	}
	if qr.Label != "a" {
		t.Errorf("query label %q, want \"a\"", qr.Label)
	}
	// Top-2 for item 0 is {0, 1}, both labeled "a".
	if qr.Accuracy != 100.0 {
		t.Errorf("accuracy %f, want 100", qr.Accuracy)
	}
}

func TestEvaluateMeanAccuracy(t *testing.T) {
	opts := DefaultOptions()
	opts.HyperedgeSize = 2
	opts.Iterations = 1
	opts.TopK = 2

	eng, err := Open(twoPairFeatures, twoPairLabels, opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Refine(); err != nil {
		t.Fatal(err)
	}

	report, err := eng.Evaluate([]int{0, 1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Queries) != 4 {
		t.Fatalf("got %d query reports, want 4", len(report.Queries))
	}
	// Every item's top-2 is its own pair, so each query is perfect.
	if report.MeanAccuracy != 100.0 {
		t.Errorf("mean accuracy %f, want 100", report.MeanAccuracy)
	}

	if _, err := eng.Evaluate(nil); err == nil {
		t.Error("expected error for empty query set")
	}
}

func TestSearchValidation(t *testing.T) {
	opts := DefaultOptions()
	opts.HyperedgeSize = 2
	opts.TopK = 2
	opts.Iterations = 0

	eng, err := Open(twoPairFeatures, twoPairLabels, opts)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := eng.Search(-1, 2); err == nil {
		t.Error("expected error for negative query id")
	}
	if _, err := eng.Search(4, 2); err == nil {
		t.Error("expected error for out-of-range query id")
	}
	if _, err := eng.Search(0, 0); err == nil {
		t.Error("expected error for zero result count")
	}
	if _, err := eng.Search(0, 5); err == nil {
		t.Error("expected error for result count above collection size")
	}
}

func TestZeroValueOptionDefaults(t *testing.T) {
	// Empty convention and precision fall back to the defaults instead
	// of failing validation.
	opts := Options{HyperedgeSize: 2, Iterations: 0, TopK: 2, Workers: 1}

	eng, err := Open(twoPairFeatures, twoPairLabels, opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := eng.opts.SelfSimilarity; got != core.SelfSimilarityEpsilon {
		t.Errorf("self-similarity: got %q, want %q", got, core.SelfSimilarityEpsilon)
	}
	if got := eng.opts.Precision; got != distance.Float32 {
		t.Errorf("precision: got %q, want %q", got, distance.Float32)
	}
}

func TestLabelBounds(t *testing.T) {
	opts := DefaultOptions()
	opts.HyperedgeSize = 2
	opts.TopK = 2
	opts.Iterations = 0

	eng, err := Open(twoPairFeatures, twoPairLabels, opts)
	if err != nil {
		t.Fatal(err)
	}

	if got := eng.Label(1); got != "a" {
		t.Errorf("Label(1): got %q, want %q", got, "a")
	}
	if got := eng.Label(-1); got != "" {
		t.Errorf("Label(-1): got %q, want empty string", got)
	}
	if got := eng.Label(eng.Size()); got != "" {
		t.Errorf("Label(%d): got %q, want empty string", eng.Size(), got)
	}
}

func TestFloat16Engine(t *testing.T) {
	opts := DefaultOptions()
	opts.HyperedgeSize = 2
	opts.Iterations = 1
	opts.TopK = 2
	opts.Precision = distance.Float16

	eng, err := Open(twoPairFeatures, twoPairLabels, opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Refine(); err != nil {
		t.Fatal(err)
	}

	qr, err := eng.Query(0)
	if err != nil {
		t.Fatal(err)
	}
	if qr.Accuracy != 100.0 {
		t.Errorf("accuracy %f, want 100", qr.Accuracy)
	}
}

// TestRefinementKeepsDuplicateOnTop is a regression check: a query with an
// exact duplicate keeps that duplicate at the top of the ranking across the
// full default round count.
func TestRefinementKeepsDuplicateOnTop(t *testing.T) {
	features := [][]float32{
		{0, 0},
		{0, 0}, // exact duplicate of item 0
		{5, 5},
		{5.2, 5},
		{9, 1},
		{9.1, 1.1},
	}
	labels := []string{"a", "a", "b", "b", "c", "c"}

	opts := DefaultOptions()
	opts.HyperedgeSize = 2
	opts.Iterations = 9
	opts.TopK = 2

	eng, err := Open(features, labels, opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Refine(); err != nil {
		t.Fatal(err)
	}

	results, err := eng.Search(0, 2)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, res := range results {
		if res.ID == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("duplicate item 1 missing from top-2: %+v", results)
	}
}

// sanity check that the core package constants round-trip through Options.
func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.HyperedgeSize != 5 || opts.Iterations != 9 || opts.TopK != 5 {
		t.Errorf("unexpected defaults: %+v", opts)
	}
	if opts.SelfSimilarity != core.SelfSimilarityEpsilon {
		t.Errorf("default convention %q", opts.SelfSimilarity)
	}
	if opts.Precision != distance.Float32 {
		t.Errorf("default precision %q", opts.Precision)
	}
}
