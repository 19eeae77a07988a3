// Package distance provides functions for calculating vector distances.
// It supports the Euclidean metric over float32 and float16 precisions.
//
// The package uses runtime CPU detection to dispatch to the most optimized
// implementation available: pure Go, Gonum (BLAS) or vek (SIMD).
package distance

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/cpuid/v2"
	"github.com/viterin/vek/vek32"
	"github.com/x448/float16"
	"gonum.org/v1/gonum/blas/gonum"
)

// --- Public Types ---
// These types define the public contract that this package offers to the rest of the system.

// DistanceMetric defines the type of distance calculation to perform.
type DistanceMetric string

// PrecisionType defines the data type used for vector storage and calculations.
type PrecisionType string

const (
	// Euclidean represents the Euclidean (L2) distance metric.
	Euclidean DistanceMetric = "euclidean"

	// Float32 represents single-precision floating-point numbers.
	Float32 PrecisionType = "float32"
	// Float16 represents half-precision floating-point numbers.
	Float16 PrecisionType = "float16"
)

// Define function types for each precision
type DistanceFuncF32 func(v1, v2 []float32) (float64, error)
type DistanceFuncF16 func(v1, v2 []uint16) (float64, error)

// --- WORKSPACE POOL ---

// diffWorkspace is a pool of float32 slices used to avoid memory allocations
// in distance calculations. Functions can borrow a slice from the pool, use it
// for intermediate calculations (like the difference between two vectors), and
// then return it, reducing pressure on the garbage collector.
var diffWorkspace = sync.Pool{
	New: func() interface{} {
		// 2048 covers the feature dimensions produced by common CNN backbones
		// (e.g. 2048 for ResNet-50 penultimate-layer features).
		s := make([]float32, 2048)
		return &s
	},
}

// --- REFERENCE IMPLEMENTATIONS (PURE GO) ---

// euclideanDistanceGo is the pure Go implementation for Euclidean distance.
func euclideanDistanceGo(v1, v2 []float32) (float64, error) {
	if len(v1) != len(v2) {
		return 0, errors.New("euclideanDistance: vectors must have the same length")
	}
	var sum float32
	for i := range v1 {
		diff := v1[i] - v2[i]
		sum += diff * diff
	}
	return math.Sqrt(float64(sum)), nil
}

// euclideanGoFloat16 is the pure Go implementation for Euclidean distance on float16 vectors.
func euclideanGoFloat16(v1, v2 []uint16) (float64, error) {
	if len(v1) != len(v2) {
		return 0, errors.New("float16 vectors must have the same length")
	}
	var sum float32
	for i := range v1 {
		f1 := float16.Frombits(v1[i]).Float32()
		f2 := float16.Frombits(v2[i]).Float32()
		diff := f1 - f2
		sum += diff * diff
	}
	return math.Sqrt(float64(sum)), nil
}

// --- Gonum-based Implementation (for float32) ---
var gonumEngine = gonum.Implementation{}

// euclideanGonum uses the Gonum BLAS library for optimized calculation.
func euclideanGonum(v1, v2 []float32) (float64, error) {
	n := len(v1)
	if n != len(v2) {
		return 0, errors.New("vectors must have the same length")
	}

	// Get a slice from the pool
	diffPtr := diffWorkspace.Get().(*[]float32)
	defer diffWorkspace.Put(diffPtr) // Ensure the slice is returned to the pool

	// Check if the pooled slice is large enough
	if cap(*diffPtr) < n {
		*diffPtr = make([]float32, n)
	}
	diff := (*diffPtr)[:n] // Use only the portion we need

	// Now perform the calculations without allocations
	copy(diff, v1)
	gonumEngine.Saxpy(n, -1, v2, 1, diff, 1)
	dot := gonumEngine.Sdot(n, diff, 1, diff, 1)

	return math.Sqrt(float64(dot)), nil
}

// --- vek-based Implementation (for float32) ---

// euclideanVek uses the vek SIMD library for the full Euclidean distance.
func euclideanVek(v1, v2 []float32) (float64, error) {
	if len(v1) != len(v2) {
		return 0, errors.New("vectors must have the same length")
	}
	if len(v1) == 0 {
		return 0, nil
	}
	return float64(vek32.Distance(v1, v2)), nil
}

// --- Function Catalogs and Dispatchers ---

// float32Funcs maps a distance metric to its corresponding float32 implementation.
var float32Funcs = map[DistanceMetric]DistanceFuncF32{
	Euclidean: euclideanDistanceGo, // default
}

// float16Funcs maps a distance metric to its corresponding float16 implementation.
var float16Funcs = map[DistanceMetric]DistanceFuncF16{
	Euclidean: euclideanGoFloat16,
}

func init() {
	// Override defaults with optimized versions.
	// vek dispatches to AVX2 routines internally; Gonum covers the rest.
	if cpuid.CPU.Has(cpuid.AVX2) {
		float32Funcs[Euclidean] = euclideanVek
	} else {
		float32Funcs[Euclidean] = euclideanGonum
	}
}

// --- Public Getter Functions ---

// GetFloat32Func returns the appropriate distance calculation function for a given
// metric and float32 precision. It returns an error if the metric is not supported.
func GetFloat32Func(metric DistanceMetric) (DistanceFuncF32, error) {
	fn, ok := float32Funcs[metric]
	if !ok {
		return nil, fmt.Errorf("metric '%s' not supported for float32 precision", metric)
	}
	return fn, nil
}

// GetFloat16Func returns the appropriate distance calculation function for a given
// metric and float16 precision. It returns an error if the metric is not supported.
func GetFloat16Func(metric DistanceMetric) (DistanceFuncF16, error) {
	fn, ok := float16Funcs[metric]
	if !ok {
		return nil, fmt.Errorf("metric '%s' not supported for float16 precision", metric)
	}
	return fn, nil
}
