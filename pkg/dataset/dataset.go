// Package dataset loads feature-vector collections from disk.
//
// The engine core is file-format agnostic: it consumes an ordered sequence of
// fixed-length float32 vectors with index-aligned labels. This package
// provides that sequence from two on-disk formats:
//
//   - CSV: one item per line, "label,f0,f1,...,fD"
//   - fvecs: the binary format used by SIFT-style feature dumps (little-endian
//     int32 dimension followed by that many float32 values, repeated), with
//     labels in a companion text file, one per line
package dataset

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
)

// Dataset is an ordered collection of feature vectors with index-aligned
// ground-truth labels. Item ids are positions in the slices.
type Dataset struct {
	Features [][]float32
	Labels   []string
}

// Len returns the number of items.
func (d *Dataset) Len() int {
	return len(d.Features)
}

// LoadOptions controls sampling during load, mirroring the usual
// limit/shuffle dataset preparation step.
type LoadOptions struct {
	// Limit caps the number of loaded items. Zero or negative loads all.
	Limit int
	// Shuffle samples Limit items uniformly instead of taking a prefix.
	Shuffle bool
	// Seed seeds the sampler so runs are reproducible.
	Seed int64
}

// LoadCSV reads a "label,f0,f1,..." file. Every line must carry the same
// number of features.
func LoadCSV(path string, opts LoadOptions) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	ds := &Dataset{}
	dim := -1

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: want 'label,f0,...', got %q", lineNo, line)
		}
		if dim == -1 {
			dim = len(fields) - 1
		} else if len(fields)-1 != dim {
			return nil, fmt.Errorf("line %d: %d features, want %d", lineNo, len(fields)-1, dim)
		}

		vec := make([]float32, dim)
		for i, field := range fields[1:] {
			val, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid feature value %q: %w", lineNo, field, err)
			}
			if math.IsNaN(val) || math.IsInf(val, 0) {
				return nil, fmt.Errorf("line %d: non-finite feature value %q", lineNo, field)
			}
			vec[i] = float32(val)
		}

		ds.Labels = append(ds.Labels, strings.TrimSpace(fields[0]))
		ds.Features = append(ds.Features, vec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	if ds.Len() == 0 {
		return nil, errors.New("dataset is empty")
	}

	return sample(ds, opts), nil
}

// LoadFVecs reads a binary .fvecs feature file and a companion label file
// (one label per line, index-aligned with the vectors).
func LoadFVecs(vecPath, labelPath string, opts LoadOptions) (*Dataset, error) {
	file, err := os.Open(vecPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open feature file: %w", err)
	}
	defer file.Close()

	features, err := readFVecs(bufio.NewReader(file))
	if err != nil {
		return nil, err
	}

	labels, err := readLabels(labelPath)
	if err != nil {
		return nil, err
	}
	if len(labels) != len(features) {
		return nil, fmt.Errorf("label file has %d entries for %d vectors", len(labels), len(features))
	}

	return sample(&Dataset{Features: features, Labels: labels}, opts), nil
}

// readFVecs decodes the little-endian fvecs record stream:
// [int32 dim][dim × float32], repeated until EOF.
func readFVecs(r io.Reader) ([][]float32, error) {
	var features [][]float32
	dim := -1

	for {
		var d int32
		if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read vector header: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("vector %d: invalid dimension %d", len(features), d)
		}
		if dim == -1 {
			dim = int(d)
		} else if int(d) != dim {
			return nil, fmt.Errorf("vector %d: dimension %d, want %d", len(features), d, dim)
		}

		vec := make([]float32, d)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("vector %d: truncated record: %w", len(features), err)
		}
		features = append(features, vec)
	}

	if len(features) == 0 {
		return nil, errors.New("feature file is empty")
	}
	return features, nil
}

// readLabels reads one label per line.
func readLabels(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open label file: %w", err)
	}
	defer file.Close()

	var labels []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read label file: %w", err)
	}
	return labels, nil
}

// sample applies the limit/shuffle options. With Shuffle it draws Limit
// distinct indices from the seeded source; otherwise it takes the prefix.
func sample(ds *Dataset, opts LoadOptions) *Dataset {
	if opts.Limit <= 0 || opts.Limit >= ds.Len() {
		if opts.Shuffle {
			rng := rand.New(rand.NewSource(opts.Seed))
			rng.Shuffle(ds.Len(), func(i, j int) {
				ds.Features[i], ds.Features[j] = ds.Features[j], ds.Features[i]
				ds.Labels[i], ds.Labels[j] = ds.Labels[j], ds.Labels[i]
			})
		}
		return ds
	}

	if !opts.Shuffle {
		return &Dataset{
			Features: ds.Features[:opts.Limit],
			Labels:   ds.Labels[:opts.Limit],
		}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	picked := rng.Perm(ds.Len())[:opts.Limit]

	out := &Dataset{
		Features: make([][]float32, 0, opts.Limit),
		Labels:   make([]string, 0, opts.Limit),
	}
	for _, idx := range picked {
		out.Features = append(out.Features, ds.Features[idx])
		out.Labels = append(out.Labels, ds.Labels[idx])
	}
	return out
}
