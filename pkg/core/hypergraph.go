// Package core provides the fundamental data structures and logic for the
// hyperank re-ranking engine.
//
// This file builds the hypergraph of ranking references: one hyperedge per
// item anchored at its top-k ranked neighbors, a log-decaying association
// weight for every (hyperedge, vertex) pair, and a coherence weight per
// hyperedge.
package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// BuildHyperedges takes the first k entries of every ranked list and stores
// their neighbor ids in rank order. Position 0 holds the closest neighbor,
// which is usually (but not necessarily) the item itself. Requires k <= N.
func BuildHyperedges(ranked [][]Neighbor, k int) ([][]int, error) {
	if k <= 0 || k > len(ranked) {
		return nil, fmt.Errorf("hyperedge size %d out of range (collection has %d items)", k, len(ranked))
	}

	hyperedges := make([][]int, len(ranked))
	for i, list := range ranked {
		edge := make([]int, k)
		for p := 0; p < k; p++ {
			edge[p] = list[p].ID
		}
		hyperedges[i] = edge
	}
	return hyperedges, nil
}

// EdgeAssociations computes the N×N association matrix. For vertex j at
// 1-indexed position p inside hyperedge i:
//
//	A[i][j] = 1 − log_{k+1}(p)
//
// so the closest member gets weight 1 and the k-th member a small positive
// weight. Entries for non-members stay exactly zero. The matrix is indexed by
// hyperedge on the rows and is asymmetric in general.
func EdgeAssociations(hyperedges [][]int, k int, workers int) *mat.Dense {
	n := len(hyperedges)
	a := mat.NewDense(n, n, nil)
	logBase := math.Log(float64(k + 1))

	forEachRowChunk(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			for p, j := range hyperedges[i] {
				a.Set(i, j, 1-math.Log(float64(p+1))/logBase)
			}
		}
	})
	return a
}

// EdgeWeights aggregates one coherence weight per hyperedge: the sum of the
// hyperedge's association weights to its own k members. Tightly clustered
// hyperedges score higher.
func EdgeWeights(hyperedges [][]int, assoc *mat.Dense) []float64 {
	weights := make([]float64, len(hyperedges))
	for i, edge := range hyperedges {
		var sum float64
		for _, v := range edge {
			sum += assoc.At(i, v)
		}
		weights[i] = sum
	}
	return weights
}
