// Package core provides the fundamental data structures and logic for the
// hyperank re-ranking engine.
//
// This file defines the FeatureSet, the immutable collection of feature
// vectors the initial similarity matrix is computed from. Vectors can be kept
// at full float32 precision or compressed to float16 to halve memory usage.
package core

import (
	"errors"
	"fmt"

	"github.com/sanonone/hyperank/pkg/core/distance"
)

// FeatureSet stores the collection's feature vectors at a chosen precision.
// It is built once before the refinement loop and never mutated afterwards.
type FeatureSet struct {
	dim       int
	precision distance.PrecisionType

	f32 [][]float32
	f16 [][]uint16

	distF32 distance.DistanceFuncF32
	distF16 distance.DistanceFuncF16
}

// NewFeatureSet validates the feature vectors and stores them at the requested
// precision. All vectors must be non-empty and share the same dimension.
func NewFeatureSet(features [][]float32, precision distance.PrecisionType) (*FeatureSet, error) {
	if len(features) == 0 {
		return nil, errors.New("feature set is empty")
	}
	dim := len(features[0])
	if dim == 0 {
		return nil, errors.New("feature vectors have zero dimension")
	}
	for i, vec := range features {
		if len(vec) != dim {
			return nil, fmt.Errorf("feature vector %d has dimension %d, want %d", i, len(vec), dim)
		}
	}

	fs := &FeatureSet{dim: dim, precision: precision}

	switch precision {
	case distance.Float32:
		fn, err := distance.GetFloat32Func(distance.Euclidean)
		if err != nil {
			return nil, err
		}
		fs.distF32 = fn
		fs.f32 = features
	case distance.Float16:
		fn, err := distance.GetFloat16Func(distance.Euclidean)
		if err != nil {
			return nil, err
		}
		fs.distF16 = fn
		fs.f16 = make([][]uint16, len(features))
		for i, vec := range features {
			fs.f16[i] = distance.CompressFloat16(vec)
		}
	default:
		return nil, fmt.Errorf("unsupported precision '%s'", precision)
	}

	return fs, nil
}

// Len returns the number of vectors in the collection.
func (fs *FeatureSet) Len() int {
	if fs.f32 != nil {
		return len(fs.f32)
	}
	return len(fs.f16)
}

// Dim returns the shared vector dimension.
func (fs *FeatureSet) Dim() int {
	return fs.dim
}

// Precision returns the storage precision of the collection.
func (fs *FeatureSet) Precision() distance.PrecisionType {
	return fs.precision
}

// Distance returns the Euclidean distance between items i and j.
func (fs *FeatureSet) Distance(i, j int) (float64, error) {
	if fs.f32 != nil {
		return fs.distF32(fs.f32[i], fs.f32[j])
	}
	return fs.distF16(fs.f16[i], fs.f16[j])
}
