// Package core provides the fundamental data structures and logic for the
// hyperank re-ranking engine.
//
// This file computes the three matrices that close a refinement round: the
// hyperedge similarity S, the membership degree accumulation C, and their
// conjunctive fusion F, which becomes the next round's similarity input.
package core

import (
	"gonum.org/v1/gonum/mat"
)

// HyperedgeSimilarities combines both directions of structural agreement
// between hyperedges into one symmetric matrix:
//
//	S = (A·Aᵗ) ∘ (Aᵗ·A)
//
// The row-space product measures how much two hyperedges point to the same
// vertices; the column-space product measures how much two vertices are
// pointed to by the same hyperedges. The Hadamard product zeroes any pair
// that lacks agreement in either direction.
func HyperedgeSimilarities(assoc *mat.Dense) *mat.Dense {
	n, _ := assoc.Dims()

	sh := mat.NewDense(n, n, nil)
	sh.Mul(assoc, assoc.T())

	su := mat.NewDense(n, n, nil)
	su.Mul(assoc.T(), assoc)

	s := mat.NewDense(n, n, nil)
	s.MulElem(sh, su)
	return s
}

// MembershipDegrees accumulates, over every hyperedge, the membership degree
// of each member pair from the cartesian product of the hyperedge with
// itself (k² pairs, self-pairs included):
//
//	C[v1][v2] += w[i] · A[i][v1] · A[i][v2]
//
// A pair gains weight from every hyperedge containing both vertices, scaled
// by how strongly each vertex is associated with it and by the hyperedge's
// own coherence weight. C is symmetric because the pair enumeration is.
func MembershipDegrees(hyperedges [][]int, weights []float64, assoc *mat.Dense) *mat.Dense {
	n := len(hyperedges)
	c := mat.NewDense(n, n, nil)

	for i, edge := range hyperedges {
		w := weights[i]
		for _, v1 := range edge {
			wa1 := w * assoc.At(i, v1)
			for _, v2 := range edge {
				c.Set(v1, v2, c.At(v1, v2)+wa1*assoc.At(i, v2))
			}
		}
	}
	return c
}

// CombineAffinity fuses membership and hyperedge similarity into the refined
// affinity matrix F = C ∘ S, then re-expresses it as an aligned similarity
// matrix so the next round's rank normalization can read it by position.
// An entry survives only when both co-occurrence evidence and structural
// agreement are nonzero.
func CombineAffinity(c, s *mat.Dense) (*SimilarityMatrix, error) {
	n, _ := c.Dims()
	f := mat.NewDense(n, n, nil)
	f.MulElem(c, s)
	return FromDense(f)
}
