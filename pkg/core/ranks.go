package core

import (
	"fmt"
	"sort"
)

// RankNormalize converts the similarity matrix into one ranked neighbor list
// per item. For items i and j the normalized rank is
//
//	rank(i,j) = 2L − (s(i,j) + s(j,i))    with L = N
//
// which symmetrizes the two directed similarities into a single agreed value:
// lower rank means more mutually similar. Scores are read by position, so the
// input must satisfy the alignment law; this is verified before any row is
// processed. Each returned list is sorted ascending by rank with a stable
// tie-break on the original position order.
func RankNormalize(sim *SimilarityMatrix, workers int) ([][]Neighbor, error) {
	if err := sim.CheckAligned(); err != nil {
		return nil, fmt.Errorf("rank normalization input: %w", err)
	}

	n := sim.Size()
	twoL := 2 * float64(n)

	ranked := make([][]Neighbor, n)
	forEachRowChunk(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			row := make([]Neighbor, n)
			for j := 0; j < n; j++ {
				row[j] = Neighbor{
					ID:    j,
					Score: twoL - (sim.Score(i, j) + sim.Score(j, i)),
				}
			}
			sort.SliceStable(row, func(a, b int) bool {
				return row[a].Score < row[b].Score
			})
			ranked[i] = row
		}
	})

	return ranked, nil
}
