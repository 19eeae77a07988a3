// Package distance provides functions for calculating vector distances.
//
// This file implements half-precision compression for feature vectors. Storing
// features as float16 halves the memory footprint of the collection at a
// precision loss well below the noise floor of CNN feature embeddings.
package distance

import (
	"github.com/x448/float16"
)

// CompressFloat16 converts a float32 vector into its float16 bit representation.
func CompressFloat16(vector []float32) []uint16 {
	compressed := make([]uint16, len(vector))
	for i, val := range vector {
		compressed[i] = float16.Fromfloat32(val).Bits()
	}
	return compressed
}

// DecompressFloat16 converts a float16 bit vector back to its approximate
// float32 representation. The inverse of CompressFloat16, with precision loss.
func DecompressFloat16(vector []uint16) []float32 {
	decompressed := make([]float32, len(vector))
	for i, bits := range vector {
		decompressed[i] = float16.Frombits(bits).Float32()
	}
	return decompressed
}
