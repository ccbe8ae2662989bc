package models

import (
	"fmt"
	"sort"
)

// Encoding is the fixed-size numeric representation of a candidate
type Encoding struct {
	InputIDs      []int64
	AttentionMask []int64
	Text          string
}

// Prediction holds the two probability distributions produced by a model.
// Index i of each slice is the probability of label index i.
type Prediction struct {
	Severity      []float64
	Vulnerability []float64
}

// LabelMap maps label indices to names
type LabelMap struct {
	names map[int]string
}

// NewLabelMap builds a validated index -> name map from a name -> index artifact
func NewLabelMap(byName map[string]int) (*LabelMap, error) {
	if len(byName) == 0 {
		return nil, fmt.Errorf("label map is empty")
	}

	names := make(map[int]string, len(byName))
	for name, idx := range byName {
		if name == "" {
			return nil, fmt.Errorf("label map contains an empty name")
		}
		if idx < 0 {
			return nil, fmt.Errorf("label %q has negative index %d", name, idx)
		}
		if prev, dup := names[idx]; dup {
			return nil, fmt.Errorf("labels %q and %q share index %d", prev, name, idx)
		}
		names[idx] = name
	}

	return &LabelMap{names: names}, nil
}

// Name returns the label for idx, or "Unknown" when idx has no entry
func (m *LabelMap) Name(idx int) string {
	if name, ok := m.names[idx]; ok {
		return name
	}
	return "Unknown"
}

// Index returns the index of a label name
func (m *LabelMap) Index(name string) (int, bool) {
	for idx, n := range m.names {
		if n == name {
			return idx, true
		}
	}
	return 0, false
}

// Size returns the length of a distribution covering every index in the map
func (m *LabelMap) Size() int {
	size := 0
	for idx := range m.names {
		if idx+1 > size {
			size = idx + 1
		}
	}
	return size
}

// Indices returns the defined indices in ascending order
func (m *LabelMap) Indices() []int {
	out := make([]int, 0, len(m.names))
	for idx := range m.names {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Names returns the label names ordered by index
func (m *LabelMap) Names() []string {
	idx := m.Indices()
	out := make([]string, len(idx))
	for i, k := range idx {
		out[i] = m.names[k]
	}
	return out
}
