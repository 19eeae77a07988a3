package dataset

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	csv := "dog,1.0,2.0\ncat,3.5,-4.25\n\ndog,0,0\n"
	path := writeTempFile(t, "features.csv", []byte(csv))

	ds, err := LoadCSV(path, LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 3 {
		t.Fatalf("got %d items, want 3", ds.Len())
	}
	if !reflect.DeepEqual(ds.Labels, []string{"dog", "cat", "dog"}) {
		t.Errorf("labels %v", ds.Labels)
	}
	if ds.Features[1][1] != -4.25 {
		t.Errorf("feature (1,1) = %f, want -4.25", ds.Features[1][1])
	}
}

func TestLoadCSVErrors(t *testing.T) {
	cases := map[string]string{
		"RaggedRows":    "a,1,2\nb,1\n",
		"MissingVector": "label-only\n",
		"BadValue":      "a,1,x\n",
		"NonFinite":     "a,1,NaN\n",
		"Empty":         "",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeTempFile(t, "bad.csv", []byte(content))
			if _, err := LoadCSV(path, LoadOptions{}); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestLoadCSVLimit(t *testing.T) {
	csv := "a,1\nb,2\nc,3\nd,4\n"
	path := writeTempFile(t, "features.csv", []byte(csv))

	ds, err := LoadCSV(path, LoadOptions{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 2 {
		t.Fatalf("got %d items, want 2", ds.Len())
	}
	if !reflect.DeepEqual(ds.Labels, []string{"a", "b"}) {
		t.Errorf("prefix sampling gave labels %v", ds.Labels)
	}
}

func TestLoadCSVShuffleIsSeeded(t *testing.T) {
	csv := "a,1\nb,2\nc,3\nd,4\ne,5\nf,6\n"
	path := writeTempFile(t, "features.csv", []byte(csv))
	opts := LoadOptions{Limit: 3, Shuffle: true, Seed: 7}

	first, err := LoadCSV(path, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := LoadCSV(path, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Labels, second.Labels) {
		t.Errorf("same seed gave %v then %v", first.Labels, second.Labels)
	}
	if first.Len() != 3 {
		t.Fatalf("got %d items, want 3", first.Len())
	}
	// Features stay aligned with their labels after sampling.
	for i, label := range first.Labels {
		want := float32(label[0]-'a') + 1
		if first.Features[i][0] != want {
			t.Errorf("item %d (%s): feature %f, want %f", i, label, first.Features[i][0], want)
		}
	}
}

func fvecsBytes(t *testing.T, vectors [][]float32) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, vec := range vectors {
		if err := binary.Write(&buf, binary.LittleEndian, int32(len(vec))); err != nil {
			t.Fatal(err)
		}
		if err := binary.Write(&buf, binary.LittleEndian, vec); err != nil {
			t.Fatal(err)
		}
	}
	return buf.Bytes()
}

func TestLoadFVecs(t *testing.T) {
	vectors := [][]float32{{1, 2, 3}, {4, 5, 6}}
	vecPath := writeTempFile(t, "features.fvecs", fvecsBytes(t, vectors))
	labelPath := writeTempFile(t, "labels.txt", []byte("dog\ncat\n"))

	ds, err := LoadFVecs(vecPath, labelPath, LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 2 {
		t.Fatalf("got %d items, want 2", ds.Len())
	}
	if !reflect.DeepEqual(ds.Features, vectors) {
		t.Errorf("features %v", ds.Features)
	}
	if !reflect.DeepEqual(ds.Labels, []string{"dog", "cat"}) {
		t.Errorf("labels %v", ds.Labels)
	}
}

func TestLoadFVecsErrors(t *testing.T) {
	vectors := [][]float32{{1, 2}, {3, 4}}

	t.Run("LabelCountMismatch", func(t *testing.T) {
		vecPath := writeTempFile(t, "f.fvecs", fvecsBytes(t, vectors))
		labelPath := writeTempFile(t, "l.txt", []byte("only-one\n"))
		if _, err := LoadFVecs(vecPath, labelPath, LoadOptions{}); err == nil {
			t.Error("expected error for label count mismatch")
		}
	})

	t.Run("MixedDimensions", func(t *testing.T) {
		vecPath := writeTempFile(t, "f.fvecs", fvecsBytes(t, [][]float32{{1, 2}, {3}}))
		labelPath := writeTempFile(t, "l.txt", []byte("a\nb\n"))
		if _, err := LoadFVecs(vecPath, labelPath, LoadOptions{}); err == nil {
			t.Error("expected error for mixed dimensions")
		}
	})

	t.Run("TruncatedRecord", func(t *testing.T) {
		data := fvecsBytes(t, vectors)
		vecPath := writeTempFile(t, "f.fvecs", data[:len(data)-2])
		labelPath := writeTempFile(t, "l.txt", []byte("a\nb\n"))
		if _, err := LoadFVecs(vecPath, labelPath, LoadOptions{}); err == nil {
			t.Error("expected error for truncated record")
		}
	})
}

func TestLabelIndex(t *testing.T) {
	idx := NewLabelIndex([]string{"dog", "cat", "dog", "bird", "dog"})

	if got := idx.IDs("dog"); !reflect.DeepEqual(got, []int{0, 2, 4}) {
		t.Errorf("dog ids %v, want [0 2 4]", got)
	}
	if got := idx.IDs("cat"); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("cat ids %v, want [1]", got)
	}
	if got := idx.IDs("fish"); got != nil {
		t.Errorf("unknown label gave %v", got)
	}
	if got := idx.Labels(); !reflect.DeepEqual(got, []string{"bird", "cat", "dog"}) {
		t.Errorf("labels %v, want [bird cat dog]", got)
	}
}
