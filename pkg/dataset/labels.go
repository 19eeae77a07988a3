package dataset

import (
	"github.com/tidwall/btree"
)

// labelEntry orders the index by (label, id).
type labelEntry struct {
	Label string
	ID    int
}

func labelEntryLess(a, b labelEntry) bool {
	if a.Label != b.Label {
		return a.Label < b.Label
	}
	return a.ID < b.ID
}

// LabelIndex is a sorted secondary index from ground-truth label to item ids.
// Evaluation uses it to walk all items of a class without scanning the whole
// collection.
type LabelIndex struct {
	tree *btree.BTreeG[labelEntry]
}

// NewLabelIndex builds the index from the index-aligned label slice.
func NewLabelIndex(labels []string) *LabelIndex {
	tree := btree.NewBTreeG[labelEntry](labelEntryLess)
	for id, label := range labels {
		tree.Set(labelEntry{Label: label, ID: id})
	}
	return &LabelIndex{tree: tree}
}

// IDs returns all item ids carrying the given label, in ascending order.
func (idx *LabelIndex) IDs(label string) []int {
	var ids []int
	idx.tree.Ascend(labelEntry{Label: label, ID: -1}, func(item labelEntry) bool {
		if item.Label != label {
			return false
		}
		ids = append(ids, item.ID)
		return true
	})
	return ids
}

// Labels returns the distinct labels present in the collection, sorted.
func (idx *LabelIndex) Labels() []string {
	var labels []string
	prev := ""
	first := true
	idx.tree.Scan(func(item labelEntry) bool {
		if first || item.Label != prev {
			labels = append(labels, item.Label)
			prev = item.Label
			first = false
		}
		return true
	})
	return labels
}
