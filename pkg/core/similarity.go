package core

import (
	"fmt"
	"math"
	"sync"
)

// SelfSimilarity selects the score assigned when the Euclidean distance
// between two items is exactly zero (an item against itself, or duplicate
// features). The convention is applied uniformly at every call site so the
// ordering fed into rank normalization stays well defined.
type SelfSimilarity string

const (
	// SelfSimilarityEpsilon replaces a zero distance with a small epsilon
	// before inversion, yielding a large finite score (1e5). Default.
	SelfSimilarityEpsilon SelfSimilarity = "epsilon"
	// SelfSimilarityUnit assigns the literal score 1 to zero distances.
	SelfSimilarityUnit SelfSimilarity = "unit"
)

// zeroDistanceEpsilon substitutes exact-zero distances under the epsilon
// convention, so the resulting score is 1e5.
const zeroDistanceEpsilon = 1e-5

// ComputeSimilarity builds the initial similarity matrix from the feature
// set: s(i,j) = 1/d(i,j) with Euclidean d, zero distances handled by the
// configured convention. Rows are computed in parallel; every row is aligned
// by position. All produced scores are finite, non-NaN and non-negative.
func ComputeSimilarity(fs *FeatureSet, mode SelfSimilarity, workers int) (*SimilarityMatrix, error) {
	n := fs.Len()
	m := NewSimilarityMatrix(n)

	var errMu sync.Mutex
	var firstErr error
	forEachRowChunk(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			row := m.rows[i]
			for j := 0; j < n; j++ {
				d, err := fs.Distance(i, j)
				if err != nil {
					errMu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("distance(%d,%d): %w", i, j, err)
					}
					errMu.Unlock()
					return
				}
				row[j].Score = invertDistance(d, mode)
			}
		}
	})
	if firstErr != nil {
		return nil, firstErr
	}

	return m, nil
}

// invertDistance maps a Euclidean distance to a similarity score.
func invertDistance(d float64, mode SelfSimilarity) float64 {
	if d == 0 || math.IsNaN(d) {
		if mode == SelfSimilarityUnit {
			return 1
		}
		return 1 / zeroDistanceEpsilon
	}
	return 1 / d
}
