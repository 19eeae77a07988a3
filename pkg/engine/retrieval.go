package engine

import (
	"fmt"
	"sort"

	"github.com/sanonone/hyperank/pkg/metrics"
)

// Result pairs a retrieved item id with its affinity score.
type Result struct {
	ID    int     `json:"id"`
	Score float64 `json:"score"`
}

// QueryReport holds the outcome of one retrieval query.
type QueryReport struct {
	QueryID  int      `json:"query_id"`
	Label    string   `json:"label"`
	Results  []Result `json:"results"`
	Accuracy float64  `json:"accuracy"`
}

// EvalReport aggregates retrieval accuracy over a set of queries.
type EvalReport struct {
	Queries      []QueryReport `json:"queries"`
	MeanAccuracy float64       `json:"mean_accuracy"`
}

// Search returns the top-k items most similar to the query item under the
// current similarity structure. Entries whose score is exactly zero are
// discarded (the conjunctive fusion zeroes pairs without hypergraph
// evidence), the rest are sorted descending by score with a stable tie-break
// on the original position order, and at most k survive.
func (e *Engine) Search(query, k int) ([]Result, error) {
	e.adminMu.RLock()
	defer e.adminMu.RUnlock()

	n := e.features.Len()
	if query < 0 || query >= n {
		return nil, fmt.Errorf("query id %d out of range [0, %d)", query, n)
	}
	if k <= 0 || k > n {
		return nil, fmt.Errorf("result count %d out of range [1, %d]", k, n)
	}
	metrics.QueriesTotal.Inc()

	row := e.sim.Row(query)
	results := make([]Result, 0, n)
	for _, nb := range row {
		if nb.Score != 0 {
			results = append(results, Result{ID: nb.ID, Score: nb.Score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Accuracy returns the percentage of result labels equal to the query label.
// Returns 0 for an empty result list.
func Accuracy(resultLabels []string, queryLabel string) float64 {
	if len(resultLabels) == 0 {
		return 0
	}
	count := 0
	for _, label := range resultLabels {
		if label == queryLabel {
			count++
		}
	}
	return float64(count) / float64(len(resultLabels)) * 100
}

// Query runs a single retrieval for the given item with the configured TopK
// and scores it against the ground-truth labels.
func (e *Engine) Query(query int) (QueryReport, error) {
	results, err := e.Search(query, e.opts.TopK)
	if err != nil {
		return QueryReport{}, err
	}

	resultLabels := make([]string, len(results))
	for i, res := range results {
		resultLabels[i] = e.labels[res.ID]
	}

	return QueryReport{
		QueryID:  query,
		Label:    e.labels[query],
		Results:  results,
		Accuracy: Accuracy(resultLabels, e.labels[query]),
	}, nil
}

// Evaluate runs retrieval for every given query id and reports per-query
// accuracy along with the mean over all queries.
func (e *Engine) Evaluate(queryIDs []int) (EvalReport, error) {
	if len(queryIDs) == 0 {
		return EvalReport{}, fmt.Errorf("no query ids given")
	}

	report := EvalReport{Queries: make([]QueryReport, 0, len(queryIDs))}
	var sum float64
	for _, id := range queryIDs {
		qr, err := e.Query(id)
		if err != nil {
			return EvalReport{}, fmt.Errorf("query %d: %w", id, err)
		}
		report.Queries = append(report.Queries, qr)
		sum += qr.Accuracy
	}
	report.MeanAccuracy = sum / float64(len(queryIDs))
	return report, nil
}
