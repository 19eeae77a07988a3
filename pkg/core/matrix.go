// Package core provides the fundamental data structures and logic for the
// hyperank re-ranking engine.
//
// This file defines the SimilarityMatrix type, the similarity structure that
// flows through every refinement round. Each row i holds one (neighbor id,
// score) pair per item of the collection, and the rows obey a positional
// alignment law: entry j of row i always refers to item j. Rank normalization
// reads scores by position, so the alignment is a checked property rather than
// an implicit convention.
package core

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Neighbor pairs an item id with a score. Depending on the stage, the score is
// a similarity (higher is better) or a normalized rank (lower is better).
type Neighbor struct {
	ID    int
	Score float64
}

// SimilarityMatrix is the per-item similarity structure of the collection.
// Row i is aligned by position: Row(i)[j].ID == j for every j.
type SimilarityMatrix struct {
	n    int
	rows [][]Neighbor
}

// NewSimilarityMatrix allocates an aligned n×n similarity matrix with all
// scores set to zero.
func NewSimilarityMatrix(n int) *SimilarityMatrix {
	rows := make([][]Neighbor, n)
	for i := range rows {
		row := make([]Neighbor, n)
		for j := range row {
			row[j].ID = j
		}
		rows[i] = row
	}
	return &SimilarityMatrix{n: n, rows: rows}
}

// Size returns the number of items in the collection.
func (m *SimilarityMatrix) Size() int {
	return m.n
}

// Row returns the similarity row of item i. The returned slice is the
// matrix's own storage and must be treated as read-only by callers.
func (m *SimilarityMatrix) Row(i int) []Neighbor {
	return m.rows[i]
}

// Score reads the score of pair (i, j) by position, relying on the alignment law.
func (m *SimilarityMatrix) Score(i, j int) float64 {
	return m.rows[i][j].Score
}

// SetScore writes the score of pair (i, j) by position.
func (m *SimilarityMatrix) SetScore(i, j int, score float64) {
	m.rows[i][j].Score = score
}

// CheckAligned verifies the positional alignment law on every row.
// Stages that read scores by position call this at round boundaries; a
// violation means an upstream stage reordered a row before handing it off.
func (m *SimilarityMatrix) CheckAligned() error {
	for i, row := range m.rows {
		if len(row) != m.n {
			return fmt.Errorf("similarity row %d has length %d, want %d", i, len(row), m.n)
		}
		for j := range row {
			if row[j].ID != j {
				return fmt.Errorf("similarity row %d misaligned at position %d: found id %d", i, j, row[j].ID)
			}
		}
	}
	return nil
}

// FromDense re-expresses a dense n×n matrix as an aligned SimilarityMatrix.
// Used at the end of a refinement round to restore the alignment law on the
// fused affinity matrix before it becomes the next round's similarity input.
func FromDense(d *mat.Dense) (*SimilarityMatrix, error) {
	r, c := d.Dims()
	if r != c {
		return nil, fmt.Errorf("affinity matrix must be square, got %dx%d", r, c)
	}
	m := NewSimilarityMatrix(r)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.rows[i][j].Score = d.At(i, j)
		}
	}
	return m, nil
}
